package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/reading-bot/internal/app"
	"github.com/lueurxax/reading-bot/internal/platform/config"
	db "github.com/lueurxax/reading-bot/internal/storage"
)

func main() {
	mode := flag.String("mode", "server", "Service mode (server, newsletter)")
	once := flag.Bool("once", false, "Post one newsletter issue and exit (for newsletter mode)")

	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := newLogger(cfg.AppEnv, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var database *db.DB

	if cfg.PostgresDSN != "" {
		poolOpts := db.PoolOptions{
			MaxConns:          cfg.DBMaxConnections,
			MinConns:          cfg.DBMinConnections,
			MaxConnIdleTime:   cfg.DBMaxConnIdleTime,
			MaxConnLifetime:   cfg.DBMaxConnLifetime,
			HealthCheckPeriod: cfg.DBHealthCheckPeriod,
		}

		database, err = db.NewWithOptions(ctx, cfg.PostgresDSN, poolOpts, &logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer database.Close()

		if err := database.Migrate(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to run migrations")
		}
	}

	application := app.New(cfg, database, &logger)

	if err := runMode(ctx, application, *mode, *once); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info().Msg("application stopped")
			return
		}

		logger.Fatal().Err(err).Msg("application error")
	}
}

func newLogger(appEnv, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	if appEnv == "local" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).Level(lvl).With().Timestamp().Logger()
	}

	return zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger()
}

func runMode(ctx context.Context, application *app.App, mode string, once bool) error {
	switch mode {
	case "server":
		return application.RunServer(ctx)
	case "newsletter":
		return application.RunNewsletter(ctx, once)
	default:
		log.Fatalf("Usage: %s --mode=[server|newsletter]", os.Args[0])

		return nil
	}
}
