package newsletter

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/lueurxax/reading-bot/internal/core/domain"
	apperrors "github.com/lueurxax/reading-bot/internal/core/errors"
	"github.com/lueurxax/reading-bot/internal/core/ports"
	"github.com/lueurxax/reading-bot/internal/platform/observability"
	"github.com/lueurxax/reading-bot/internal/platform/schedule"
	"github.com/lueurxax/reading-bot/internal/platform/worker"
)

const (
	taskName          = "newsletter"
	checkInterval     = time.Minute
	statusEmpty       = "empty"
	statusPostFailure = "post_failed"
)

// ErrNoChannel indicates the runner has nowhere to post.
var ErrNoChannel = errors.New("newsletter channel not configured")

// RunnerConfig says where and when the newsletter is posted.
type RunnerConfig struct {
	ChannelID string
	Slot      schedule.Weekly
	// PartsPerSecond paces multi-part posts. Zero disables pacing.
	PartsPerSecond float64
}

// Runner posts a newsletter issue once per weekly slot. Posted runs are
// recorded in store, when present, so a restart within the same slot does
// not post again.
type Runner struct {
	cfg     RunnerConfig
	builder *Builder
	chat    ports.ChatClient
	store   ports.NewsletterStore
	pacer   *rate.Limiter
	logger  *zerolog.Logger
	now     func() time.Time

	mu      sync.Mutex
	pending *delivery
}

// delivery is an issue whose parts were only partly posted.
type delivery struct {
	slot  time.Time
	issue Issue
	sent  int
}

// NewRunner wires a runner. store may be nil.
func NewRunner(cfg RunnerConfig, builder *Builder, chat ports.ChatClient, store ports.NewsletterStore, logger *zerolog.Logger) *Runner {
	pace := rate.Inf
	if cfg.PartsPerSecond > 0 {
		pace = rate.Limit(cfg.PartsPerSecond)
	}

	return &Runner{
		cfg:     cfg,
		builder: builder,
		chat:    chat,
		store:   store,
		pacer:   rate.NewLimiter(pace, 1),
		logger:  logger,
		now:     time.Now,
	}
}

// Run checks the weekly slot every minute until ctx is canceled.
func (r *Runner) Run(ctx context.Context) error {
	if r.cfg.ChannelID == "" {
		return ErrNoChannel
	}

	if err := r.cfg.Slot.Validate(); err != nil {
		return fmt.Errorf("newsletter schedule: %w", err)
	}

	scheduler := r.newScheduler(ctx)

	r.logger.Info().
		Str("channel", r.cfg.ChannelID).
		Time("next_slot", r.cfg.Slot.Next(r.now())).
		Msg("Newsletter runner started")

	return worker.TickerLoop(ctx, worker.TickerConfig{
		Name:       taskName,
		Interval:   checkInterval,
		RunOnStart: true,
		OnTick:     scheduler.CheckAndRun,
		Logger:     r.logger,
	})
}

// newScheduler registers the posting task. Without a recorded run the slot
// that already passed counts as served, so only the next slot posts.
func (r *Runner) newScheduler(ctx context.Context) *worker.WeeklyScheduler {
	scheduler := worker.NewWeeklyScheduler(r.logger)
	scheduler.SetClock(r.now)
	scheduler.AddTask(&worker.WeeklyTask{
		Name: taskName,
		Slot: r.cfg.Slot,
		Run: func(ctx context.Context, _ *zerolog.Logger) error {
			_, err := r.PostIssue(ctx)
			return err
		},
	})

	last, ok := r.lastRun(ctx)
	if !ok {
		last = r.cfg.Slot.Previous(r.now())
	}

	scheduler.SetLastRun(taskName, last)

	return scheduler
}

// PostIssue builds an issue and posts it to the channel. An issue without
// articles is not posted and not recorded. When a post fails part way, the
// next call within the same slot resumes from the failed part instead of
// rebuilding the issue.
func (r *Runner) PostIssue(ctx context.Context) (Issue, error) {
	if r.cfg.ChannelID == "" {
		return Issue{}, ErrNoChannel
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	slot := r.cfg.Slot.Previous(now)

	issue, start, ok := r.resume(slot)
	if !ok {
		built, err := r.builder.Build(ctx, now, time.Time{})
		if err != nil {
			observability.NewslettersPosted.WithLabelValues(observability.StatusError).Inc()
			return Issue{}, err
		}

		issue = built

		observability.NewsletterArticles.Set(float64(len(issue.Articles)))

		if len(issue.Articles) == 0 {
			observability.NewslettersPosted.WithLabelValues(statusEmpty).Inc()
			r.logger.Info().Time("since", issue.Since).Msg("No articles for the newsletter, skipping post")

			return issue, nil
		}
	}

	for i := start; i < len(issue.Parts); i++ {
		if err := r.pacer.Wait(ctx); err != nil {
			r.pending = &delivery{slot: slot, issue: issue, sent: i}
			return issue, fmt.Errorf("pacing newsletter part %d: %w", i, err)
		}

		if _, err := r.chat.PostMessage(ctx, r.cfg.ChannelID, "", issue.Parts[i]); err != nil {
			r.pending = &delivery{slot: slot, issue: issue, sent: i}
			observability.NewslettersPosted.WithLabelValues(statusPostFailure).Inc()

			return issue, fmt.Errorf("posting newsletter part %d: %w", i, err)
		}
	}

	r.pending = nil

	observability.NewslettersPosted.WithLabelValues(observability.StatusOK).Inc()
	r.logger.Info().
		Int("articles", len(issue.Articles)).
		Int("parts", len(issue.Parts)).
		Int("resumed_at", start).
		Bool("intro", issue.Intro != "").
		Msg("Newsletter posted")

	if r.store != nil {
		run := domain.NewsletterRun{RunAt: now, ArticleCount: len(issue.Articles), ChannelID: r.cfg.ChannelID}
		if err := r.store.RecordNewsletterRun(ctx, run); err != nil {
			r.logger.Warn().Err(err).Msg("Failed to record newsletter run")
		}
	}

	return issue, nil
}

// resume returns the partly delivered issue for slot and the first part
// still to post. A leftover from an earlier slot is dropped.
func (r *Runner) resume(slot time.Time) (Issue, int, bool) {
	if r.pending == nil {
		return Issue{}, 0, false
	}

	if !r.pending.slot.Equal(slot) {
		r.logger.Warn().
			Time("slot", r.pending.slot).
			Int("sent", r.pending.sent).
			Msg("Dropping unfinished newsletter from an earlier slot")

		r.pending = nil

		return Issue{}, 0, false
	}

	r.logger.Info().Int("from_part", r.pending.sent).Msg("Resuming newsletter post")

	return r.pending.issue, r.pending.sent, true
}

func (r *Runner) lastRun(ctx context.Context) (time.Time, bool) {
	if r.store == nil {
		return time.Time{}, false
	}

	run, err := r.store.LastNewsletterRun(ctx)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			r.logger.Warn().Err(err).Msg("Failed to load last newsletter run")
		}

		return time.Time{}, false
	}

	return run.RunAt, true
}
