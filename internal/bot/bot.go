// Package bot receives Slack webhooks and turns reactions into archive saves
// and mentions or slash commands into archive queries.
package bot

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/lueurxax/reading-bot/internal/core/datequery"
	"github.com/lueurxax/reading-bot/internal/core/emoji"
	"github.com/lueurxax/reading-bot/internal/core/ports"
	"github.com/lueurxax/reading-bot/internal/output/reply"
	"github.com/lueurxax/reading-bot/internal/platform/ratelimit"
)

// Request handling limits.
const (
	// MaxBodyBytes caps inbound webhook bodies.
	MaxBodyBytes = 1 << 20
	// DefaultHandlerTimeout bounds the background work of one event.
	DefaultHandlerTimeout = 30 * time.Second
	// DefaultQueryDays is the lookback when a query names no date.
	DefaultQueryDays = 7
	// DefaultMaxResults caps the articles returned by one query.
	DefaultMaxResults = 50
)

// Slack HTTP headers.
const (
	headerRetryNum    = "X-Slack-Retry-Num"
	headerRetryReason = "X-Slack-Retry-Reason"
)

// Routes.
const (
	PathEvents   = "/slack/events"
	PathCommands = "/slack/commands"
)

// Log field names.
const (
	LogFieldRequestID = "request_id"
	LogFieldChannel   = "channel"
	LogFieldUserID    = "user_id"
	LogFieldEmoji     = "emoji"
	LogFieldLabel     = "label"
	LogFieldURL       = "url"
)

// NewsletterComposer renders a newsletter preview as chat message parts.
// A zero since lets the composer choose its own window.
type NewsletterComposer interface {
	Compose(ctx context.Context, now, since time.Time) ([]string, error)
}

// Config holds the dispatcher settings.
type Config struct {
	SigningSecret  string
	AllowedHosts   []string
	Location       *time.Location
	QueryDays      int
	MaxResults     int
	MaxChars       int
	HandlerTimeout time.Duration
	// PartsPerSecond paces multi-part replies. Zero disables pacing.
	PartsPerSecond float64
}

// Deps are the collaborators the bot talks to. SaveLog and Newsletter may
// be nil.
type Deps struct {
	Archive    ports.Archive
	Chat       ports.ChatClient
	SaveLog    ports.SaveLog
	Newsletter NewsletterComposer
	Emojis     *emoji.Table
	Limiter    *ratelimit.Window
}

// Bot is the webhook dispatcher plus the save and query handlers.
type Bot struct {
	cfg        Config
	archive    ports.Archive
	chat       ports.ChatClient
	saveLog    ports.SaveLog
	newsletter NewsletterComposer
	emojis     *emoji.Table
	limiter    *ratelimit.Window
	hosts      *HostAllowList
	dates      *datequery.Parser
	formatter  *reply.Formatter
	pacer      *rate.Limiter
	commands   map[string]commandHandler
	logger     *zerolog.Logger
	now        func() time.Time

	// saveMu serializes the duplicate check and the save so that two
	// reactions on the same link cannot both pass the check.
	saveMu sync.Mutex

	// spawn runs background work; tests replace it to run inline.
	spawn func(func())
	wg    sync.WaitGroup
}

// New wires a Bot. Missing limits fall back to defaults.
func New(cfg Config, deps Deps, logger *zerolog.Logger) *Bot {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}

	if cfg.QueryDays <= 0 {
		cfg.QueryDays = DefaultQueryDays
	}

	if cfg.MaxResults <= 0 {
		cfg.MaxResults = DefaultMaxResults
	}

	if cfg.HandlerTimeout <= 0 {
		cfg.HandlerTimeout = DefaultHandlerTimeout
	}

	if deps.Emojis == nil {
		deps.Emojis = emoji.Default()
	}

	if deps.Limiter == nil {
		deps.Limiter = ratelimit.NewPerMinute(0)
	}

	pace := rate.Inf
	if cfg.PartsPerSecond > 0 {
		pace = rate.Limit(cfg.PartsPerSecond)
	}

	b := &Bot{
		cfg:        cfg,
		archive:    deps.Archive,
		chat:       deps.Chat,
		saveLog:    deps.SaveLog,
		newsletter: deps.Newsletter,
		emojis:     deps.Emojis,
		limiter:    deps.Limiter,
		hosts:      NewHostAllowList(cfg.AllowedHosts),
		dates:      datequery.NewParser(cfg.Location, cfg.QueryDays),
		formatter:  reply.NewFormatter(cfg.Location, cfg.MaxChars),
		pacer:      rate.NewLimiter(pace, 1),
		logger:     logger,
		now:        time.Now,
	}

	b.spawn = func(fn func()) { go fn() }
	b.commands = b.newCommandRegistry()

	return b
}

// background runs fn detached from the inbound request, bounded by the
// handler timeout. The request logger travels with the new context.
func (b *Bot) background(reqCtx context.Context, fn func(ctx context.Context)) {
	logger := zerolog.Ctx(reqCtx)

	b.wg.Add(1)

	b.spawn(func() {
		defer b.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), b.cfg.HandlerTimeout)
		defer cancel()

		defer func() {
			if r := recover(); r != nil {
				logger.Error().Interface("panic", r).Msg("Event handler panicked")
			}
		}()

		fn(logger.WithContext(ctx))
	})
}

// Wait blocks until in-flight background handlers finish or ctx ends.
func (b *Bot) Wait(ctx context.Context) {
	done := make(chan struct{})

	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
	}
}
