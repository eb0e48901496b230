package bot

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lueurxax/reading-bot/internal/core/domain"
	apperrors "github.com/lueurxax/reading-bot/internal/core/errors"
	"github.com/lueurxax/reading-bot/internal/platform/observability"
)

// Query sources for metrics.
const (
	sourceMention = "mention"
	sourceCommand = "command"

	queryStatusEmpty       = "empty"
	queryStatusUnknown     = "unknown_emoji"
	queryStatusFuture      = "future_date"
	queryStatusRateLimited = "rate_limited"
)

var (
	emojiTokenRe = regexp.MustCompile(`:([a-z0-9_+\-']+)(?:::skin-tone-\d)?:`)
	markupRe     = regexp.MustCompile(`<[^>]*>`)
)

// mentionEvent is the part of an app_mention event the query path needs.
type mentionEvent struct {
	Text      string
	UserID    string
	ChannelID string
	ThreadTS  string
}

// handleMention answers a query in the thread of the mention.
func (b *Bot) handleMention(ctx context.Context, ev mentionEvent) {
	logger := zerolog.Ctx(ctx).With().
		Str(LogFieldChannel, ev.ChannelID).
		Str(LogFieldUserID, ev.UserID).
		Logger()
	ctx = logger.WithContext(ctx)

	parts := b.runQuery(ctx, sourceMention, ev.Text)

	for i, part := range parts {
		if err := b.pacer.Wait(ctx); err != nil {
			logger.Warn().Err(err).Int("sent", i).Int("total", len(parts)).Msg("Stopped posting query reply")
			return
		}

		if _, err := b.chat.PostMessage(ctx, ev.ChannelID, ev.ThreadTS, part); err != nil {
			logger.Warn().Err(err).Int("part", i).Msg("Failed to post query reply")
			return
		}
	}
}

// runQuery resolves the emoji and date in text and renders the matching
// archive entries. It always yields at least one message to send back.
func (b *Bot) runQuery(ctx context.Context, source, text string) []string {
	logger := zerolog.Ctx(ctx)

	entry, ok := b.resolveEmoji(text)
	if !ok {
		observability.QueriesTotal.WithLabelValues(source, queryStatusUnknown).Inc()
		return []string{helpText(b.emojis, b.cfg.QueryDays)}
	}

	if !b.limiter.Allow() {
		observability.RateLimitRejections.Inc()
		observability.QueriesTotal.WithLabelValues(source, queryStatusRateLimited).Inc()

		return []string{rateLimitedText(b.limiter.RetryAfter())}
	}

	when, err := b.dates.Parse(text, b.now())
	if err != nil {
		if errors.Is(err, apperrors.ErrFutureDate) {
			observability.QueriesTotal.WithLabelValues(source, queryStatusFuture).Inc()
			return []string{futureDateText(err)}
		}

		observability.QueriesTotal.WithLabelValues(source, observability.StatusError).Inc()
		logger.Warn().Err(err).Msg("Failed to parse query date")

		return []string{helpText(b.emojis, b.cfg.QueryDays)}
	}

	articles, err := b.archive.List(ctx, domain.ArticleQuery{
		Tags:  []string{entry.Label},
		Since: when.Since,
		Limit: b.cfg.MaxResults,
	})
	if err != nil {
		observability.QueriesTotal.WithLabelValues(source, observability.StatusError).Inc()
		logger.Error().Err(err).Str(LogFieldLabel, entry.Label).Msg("Archive query failed")

		return []string{queryFailedText}
	}

	status := observability.StatusOK
	if len(articles) == 0 {
		status = queryStatusEmpty
	}

	observability.QueriesTotal.WithLabelValues(source, status).Inc()
	observability.QueryResultCount.Observe(float64(len(articles)))

	logger.Info().
		Str(LogFieldLabel, entry.Label).
		Time("since", when.Since).
		Bool("default_range", when.Defaulted).
		Int("results", len(articles)).
		Msg("Query answered")

	return b.formatter.Query(entry.Label, when.Since, articles)
}

// resolveEmoji picks the configured entry a query refers to: an :emoji:
// token first, then a bare emoji name or label, then a multi-word label.
// With a single configured emoji that one is used.
func (b *Bot) resolveEmoji(text string) (domain.EmojiConfig, bool) {
	clean := markupRe.ReplaceAllString(text, " ")

	for _, m := range emojiTokenRe.FindAllStringSubmatch(strings.ToLower(clean), -1) {
		if e, ok := b.emojis.Lookup(m[1]); ok {
			return e, true
		}
	}

	for _, word := range strings.Fields(clean) {
		word = strings.Trim(word, ".,;!?\"'()[]")
		if word == "" {
			continue
		}

		if e, ok := b.emojis.Lookup(strings.ToLower(word)); ok {
			return e, true
		}

		if e, ok := b.emojis.LookupLabel(word); ok {
			return e, true
		}
	}

	lower := strings.ToLower(clean)
	for _, e := range b.emojis.Entries() {
		if strings.Contains(e.Label, " ") && strings.Contains(lower, strings.ToLower(e.Label)) {
			return e, true
		}
	}

	return b.emojis.Only()
}
