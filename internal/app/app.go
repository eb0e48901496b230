// Package app wires the reading bot's dependencies and runs its modes:
//
//   - Server mode: Slack webhooks, health checks and metrics on one port
//   - Newsletter mode: weekly newsletter posted to the configured channel
//
// Both modes share the same configuration and optional database.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/reading-bot/internal/archive"
	"github.com/lueurxax/reading-bot/internal/bot"
	"github.com/lueurxax/reading-bot/internal/chat"
	"github.com/lueurxax/reading-bot/internal/core/llm"
	"github.com/lueurxax/reading-bot/internal/core/ports"
	"github.com/lueurxax/reading-bot/internal/output/newsletter"
	"github.com/lueurxax/reading-bot/internal/platform/config"
	"github.com/lueurxax/reading-bot/internal/platform/observability"
	"github.com/lueurxax/reading-bot/internal/platform/ratelimit"
	"github.com/lueurxax/reading-bot/internal/platform/schedule"
	db "github.com/lueurxax/reading-bot/internal/storage"
)

const drainTimeout = 10 * time.Second

// App holds the application dependencies and provides methods to run different modes.
type App struct {
	cfg      *config.Config
	database *db.DB
	logger   *zerolog.Logger
}

// New creates an App. database may be nil when POSTGRES_DSN is unset.
func New(cfg *config.Config, database *db.DB, logger *zerolog.Logger) *App {
	return &App{
		cfg:      cfg,
		database: database,
		logger:   logger,
	}
}

// RunServer serves the Slack webhooks until ctx is canceled, then waits
// for in-flight handlers to finish.
func (a *App) RunServer(ctx context.Context) error {
	a.logger.Info().
		Int("emojis", a.cfg.Emojis.Len()).
		Bool("storage", a.database != nil).
		Msg("Starting server mode")

	archiveClient := a.newArchive()
	chatClient := a.newChat()

	b := bot.New(bot.Config{
		SigningSecret:  a.cfg.SlackSigningSecret,
		AllowedHosts:   a.cfg.AllowedHosts,
		Location:       a.cfg.Location,
		QueryDays:      a.cfg.QueryDefaultDays,
		MaxResults:     a.cfg.QueryMaxResults,
		MaxChars:       a.cfg.MessageMaxChars,
		HandlerTimeout: a.cfg.HandlerTimeout,
		PartsPerSecond: a.cfg.PostPartsPerSecond,
	}, bot.Deps{
		Archive:    archiveClient,
		Chat:       chatClient,
		SaveLog:    a.saveLog(),
		Newsletter: a.newBuilder(archiveClient),
		Emojis:     a.cfg.Emojis,
		Limiter:    ratelimit.NewPerMinute(a.cfg.RateLimitPerMinute),
	}, a.logger)

	srv := observability.NewServer(a.cfg.Port, a.pinger(), a.logger, b)

	err := srv.Start(ctx)

	drainCtx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()

	b.Wait(drainCtx) //nolint:contextcheck // handlers outlive the canceled server context

	if err != nil {
		return fmt.Errorf("server: %w", err)
	}

	return nil
}

// RunNewsletter posts the weekly newsletter. With once set it posts a
// single issue immediately and returns.
func (a *App) RunNewsletter(ctx context.Context, once bool) error {
	a.logger.Info().Bool("once", once).Strs("tags", a.cfg.NewsletterLabels()).Msg("Starting newsletter mode")

	archiveClient := a.newArchive()

	runner := newsletter.NewRunner(newsletter.RunnerConfig{
		ChannelID: a.cfg.NewsletterChannel,
		Slot: schedule.Weekly{
			Day:      a.cfg.NewsletterWeekday(),
			Hour:     a.cfg.NewsletterHour,
			Location: a.cfg.Location,
		},
		PartsPerSecond: a.cfg.PostPartsPerSecond,
	}, a.newBuilder(archiveClient), a.newChat(), a.newsletterStore(), a.logger)

	if a.database != nil {
		go func() {
			srv := observability.NewServer(a.cfg.Port, a.database, a.logger)
			if err := srv.Start(ctx); err != nil {
				a.logger.Error().Err(err).Msg("health server error")
			}
		}()
	}

	if once {
		issue, err := runner.PostIssue(ctx)
		if err != nil {
			return fmt.Errorf("newsletter run once: %w", err)
		}

		a.logger.Info().Int("articles", len(issue.Articles)).Msg("Newsletter run complete")

		return nil
	}

	if err := runner.Run(ctx); err != nil {
		return fmt.Errorf("newsletter run: %w", err)
	}

	return nil
}

func (a *App) newArchive() *archive.Client {
	logger := a.logger.With().Str("component", "archive").Logger()

	return archive.New(archive.Config{
		BaseURL:      a.cfg.WallabagURL,
		ClientID:     a.cfg.WallabagClientID,
		ClientSecret: a.cfg.WallabagClientSecret,
		Username:     a.cfg.WallabagUsername,
		Password:     a.cfg.WallabagPassword,
		Timeout:      a.cfg.ArchiveTimeout,
	}, &logger)
}

func (a *App) newChat() *chat.Client {
	logger := a.logger.With().Str("component", "chat").Logger()

	return chat.New(a.cfg.SlackBotToken, a.cfg.SlackAPIURL, &logger)
}

func (a *App) newBuilder(archiveClient ports.Archive) *newsletter.Builder {
	logger := a.logger.With().Str("component", "newsletter").Logger()

	var writer ports.TextGenerator

	if a.cfg.LLMAPIKey != "" {
		llmLogger := a.logger.With().Str("component", "llm").Logger()
		writer = llm.NewOpenAI(llm.Config{
			APIKey:  a.cfg.LLMAPIKey,
			Model:   a.cfg.LLMModel,
			BaseURL: a.cfg.LLMBaseURL,
		}, &llmLogger)
	}

	builder := newsletter.NewBuilder(newsletter.Config{
		Tags:       a.cfg.NewsletterLabels(),
		MinDays:    a.cfg.NewsletterMinDays,
		MaxDays:    a.cfg.NewsletterMaxDays,
		MinItems:   a.cfg.NewsletterMinItems,
		MaxItems:   a.cfg.NewsletterMaxItems,
		LongItems:  a.cfg.NewsletterLongItems,
		ShortItems: a.cfg.NewsletterShortItems,
		MaxChars:   a.cfg.MessageMaxChars,
		Location:   a.cfg.Location,
	}, archiveClient, writer, &logger)
	builder.SetSummaryCache(a.summaryCache())

	return builder
}

func (a *App) saveLog() ports.SaveLog {
	if a.database == nil {
		return db.Noop{}
	}

	return a.database
}

func (a *App) newsletterStore() ports.NewsletterStore {
	if a.database == nil {
		return db.Noop{}
	}

	return a.database
}

func (a *App) summaryCache() ports.SummaryCache {
	if a.database == nil {
		return db.Noop{}
	}

	return a.database
}

func (a *App) pinger() observability.Pinger {
	if a.database == nil {
		return nil
	}

	return a.database
}
