// Package newsletter assembles a digest of recently archived articles for a
// set of tags and posts it on a weekly schedule.
package newsletter

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/reading-bot/internal/core/domain"
	"github.com/lueurxax/reading-bot/internal/core/links"
	"github.com/lueurxax/reading-bot/internal/core/ports"
)

// Defaults for zero config values.
const (
	DefaultMinDays    = 14
	DefaultMaxDays    = 28
	DefaultMinItems   = 10
	DefaultMaxItems   = 50
	DefaultLongItems  = 3
	DefaultShortItems = 4
)

// Config controls the article window and the section sizes.
type Config struct {
	Tags []string
	// MinDays is the initial lookback and the step the window widens by.
	MinDays int
	// MaxDays bounds the widened window.
	MaxDays int
	// MinItems is the article count that stops the widening.
	MinItems int
	// MaxItems caps the articles in one issue.
	MaxItems   int
	LongItems  int
	ShortItems int
	MaxChars   int
	Location   *time.Location
}

func (c Config) withDefaults() Config {
	if c.MinDays <= 0 {
		c.MinDays = DefaultMinDays
	}

	if c.MaxDays < c.MinDays {
		c.MaxDays = max(DefaultMaxDays, c.MinDays)
	}

	if c.MinItems <= 0 {
		c.MinItems = DefaultMinItems
	}

	if c.MaxItems <= 0 {
		c.MaxItems = DefaultMaxItems
	}

	if c.LongItems <= 0 {
		c.LongItems = DefaultLongItems
	}

	if c.ShortItems <= 0 {
		c.ShortItems = DefaultShortItems
	}

	if c.Location == nil {
		c.Location = time.UTC
	}

	return c
}

// Issue is one assembled newsletter. Articles are ranked by summary score
// when summaries exist, newest first otherwise.
type Issue struct {
	Since     time.Time
	Articles  []domain.Article
	Summaries map[string]domain.ArticleSummary
	Intro     string
	Parts     []string
}

// Builder gathers articles from the archive and renders an Issue.
type Builder struct {
	cfg     Config
	tags    TagSet
	archive ports.Archive
	writer  ports.TextGenerator
	cache   ports.SummaryCache
	logger  *zerolog.Logger
}

// NewBuilder creates a builder. writer may be nil, in which case issues
// use excerpts in recency order and have no intro paragraph.
func NewBuilder(cfg Config, archive ports.Archive, writer ports.TextGenerator, logger *zerolog.Logger) *Builder {
	cfg = cfg.withDefaults()

	return &Builder{
		cfg:     cfg,
		tags:    NewTagSet(cfg.Tags),
		archive: archive,
		writer:  writer,
		logger:  logger,
	}
}

// SetSummaryCache makes the builder reuse and keep generated summaries.
func (b *Builder) SetSummaryCache(cache ports.SummaryCache) {
	b.cache = cache
}

// Compose renders an issue as chat message parts.
func (b *Builder) Compose(ctx context.Context, now, since time.Time) ([]string, error) {
	issue, err := b.Build(ctx, now, since)
	if err != nil {
		return nil, err
	}

	return issue.Parts, nil
}

// Build gathers articles and renders them. A zero since lets the window
// widen from MinDays towards MaxDays until MinItems articles are found.
func (b *Builder) Build(ctx context.Context, now, since time.Time) (Issue, error) {
	articles, since, err := b.Gather(ctx, now, since)
	if err != nil {
		return Issue{}, err
	}

	issue := Issue{Since: since, Articles: articles}

	if len(articles) > 0 {
		issue.Summaries = b.summarize(ctx, articles)
		issue.Articles = rankBySummary(articles, issue.Summaries)
		issue.Intro = b.intro(ctx, issue)
	}

	issue.Parts = b.render(issue)

	return issue, nil
}

// Gather returns the issue's articles and the start of the window used.
func (b *Builder) Gather(ctx context.Context, now, since time.Time) ([]domain.Article, time.Time, error) {
	if !since.IsZero() {
		articles, err := b.fetch(ctx, since)
		return articles, since, err
	}

	today := startOfDay(now.In(b.cfg.Location))

	for days := b.cfg.MinDays; ; days += b.cfg.MinDays {
		days = min(days, b.cfg.MaxDays)
		since = today.AddDate(0, 0, -days)

		articles, err := b.fetch(ctx, since)
		if err != nil {
			return nil, since, err
		}

		if len(articles) >= b.cfg.MinItems || days >= b.cfg.MaxDays {
			if len(articles) < b.cfg.MinItems {
				b.logger.Warn().
					Int("found", len(articles)).
					Int("min_items", b.cfg.MinItems).
					Int("days", days).
					Msg("Newsletter window reached its limit with few articles")
			}

			return articles, since, nil
		}

		b.logger.Debug().Int("found", len(articles)).Int("days", days).Msg("Widening newsletter window")
	}
}

func (b *Builder) fetch(ctx context.Context, since time.Time) ([]domain.Article, error) {
	raw, err := b.archive.List(ctx, domain.ArticleQuery{Tags: b.tags.Names(), Since: since})
	if err != nil {
		return nil, fmt.Errorf("listing newsletter articles: %w", err)
	}

	sort.SliceStable(raw, func(i, j int) bool {
		return raw[i].CreatedAt.After(raw[j].CreatedAt)
	})

	seen := make(map[string]bool, len(raw))
	out := make([]domain.Article, 0, len(raw))

	for _, a := range raw {
		if b.tags.Len() > 0 && !b.tags.Matches(a) {
			continue
		}

		if a.CreatedAt.Before(since) {
			continue
		}

		key := links.Canonical(a.URL)
		if seen[key] {
			continue
		}

		seen[key] = true
		out = append(out, a)

		if len(out) >= b.cfg.MaxItems {
			break
		}
	}

	return out, nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()

	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
