package bot

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/lueurxax/reading-bot/internal/core/domain"
	"github.com/lueurxax/reading-bot/internal/core/links/linkextract"
	"github.com/lueurxax/reading-bot/internal/platform/observability"
)

// reactionEvent is the part of a reaction_added event the save path needs.
type reactionEvent struct {
	Reaction  string
	UserID    string
	ChannelID string
	MessageTS string
}

// handleReaction saves the first link of the reacted message under the
// emoji's label and confirms in the message thread. Each archive failure is
// reported once and not retried.
func (b *Bot) handleReaction(ctx context.Context, ev reactionEvent) {
	logger := zerolog.Ctx(ctx).With().
		Str(LogFieldEmoji, ev.Reaction).
		Str(LogFieldChannel, ev.ChannelID).
		Str(LogFieldUserID, ev.UserID).
		Logger()

	entry, ok := b.emojis.Lookup(ev.Reaction)
	if !ok {
		logger.Debug().Msg("Reaction is not configured")
		return
	}

	label := entry.Label
	logger = logger.With().Str(LogFieldLabel, label).Logger()

	if !b.limiter.Allow() {
		observability.RateLimitRejections.Inc()
		observability.SavesTotal.WithLabelValues(label, domain.SaveStatusRateLimited).Inc()
		logger.Warn().Dur("retry_after", b.limiter.RetryAfter()).Msg("Save rejected by rate limiter")

		if err := b.chat.PostEphemeral(ctx, ev.ChannelID, ev.UserID, "", rateLimitedText(b.limiter.RetryAfter())); err != nil {
			logger.Warn().Err(err).Msg("Failed to post rate limit notice")
		}

		return
	}

	msg, err := b.chat.FetchMessage(ctx, ev.ChannelID, ev.MessageTS)
	if err != nil {
		observability.SavesTotal.WithLabelValues(label, domain.SaveStatusError).Inc()
		logger.Warn().Err(err).Str("ts", ev.MessageTS).Msg("Failed to fetch reacted message")

		return
	}

	rawURL, ok := linkextract.FirstURLIn(msg.Sources()...)
	if !ok {
		observability.SavesTotal.WithLabelValues(label, domain.SaveStatusNoURL).Inc()
		logger.Debug().Str("ts", ev.MessageTS).Msg("Reacted message has no link")

		return
	}

	logger = logger.With().Str(LogFieldURL, rawURL).Logger()

	// Replies go into the thread the reacted message belongs to.
	threadTS := msg.TS
	if msg.ThreadTS != "" {
		threadTS = msg.ThreadTS
	}

	status, article := b.saveOnce(ctx, &logger, rawURL, label)
	observability.SavesTotal.WithLabelValues(label, status).Inc()

	switch status {
	case domain.SaveStatusDuplicate:
		b.postThread(ctx, &logger, ev.ChannelID, threadTS, duplicateText)
		return
	case domain.SaveStatusError:
		b.postThread(ctx, &logger, ev.ChannelID, threadTS, saveFailedText)
		return
	}

	b.postThread(ctx, &logger, ev.ChannelID, threadTS, entry.Message)
	logger.Info().Int64("archive_id", article.ID).Msg("Link saved")

	if b.saveLog == nil {
		return
	}

	rec := domain.SaveRecord{
		URL:       rawURL,
		Tag:       label,
		Emoji:     entry.Emoji,
		ChannelID: ev.ChannelID,
		MessageTS: ev.MessageTS,
		UserID:    ev.UserID,
		ArchiveID: article.ID,
		CreatedAt: b.now(),
	}

	if err := b.saveLog.RecordSave(ctx, rec); err != nil {
		logger.Warn().Err(err).Msg("Failed to record save")
	}
}

// saveOnce checks for the link and saves it when absent. The check and the
// save run under one lock.
func (b *Bot) saveOnce(ctx context.Context, logger *zerolog.Logger, rawURL, label string) (string, domain.Article) {
	b.saveMu.Lock()
	defer b.saveMu.Unlock()

	id, found, err := b.archive.FindByURL(ctx, rawURL)
	if err != nil {
		logger.Error().Err(err).Msg("Duplicate check failed")
		return domain.SaveStatusError, domain.Article{}
	}

	if found {
		logger.Info().Int64("archive_id", id).Msg("Link already archived")
		return domain.SaveStatusDuplicate, domain.Article{ID: id, URL: rawURL}
	}

	article, err := b.archive.Save(ctx, rawURL, []string{label})
	if err != nil {
		logger.Error().Err(err).Msg("Archive save failed")
		return domain.SaveStatusError, domain.Article{}
	}

	return domain.SaveStatusSaved, article
}

func (b *Bot) postThread(ctx context.Context, logger *zerolog.Logger, channelID, threadTS, text string) {
	if _, err := b.chat.PostMessage(ctx, channelID, threadTS, text); err != nil {
		logger.Warn().Err(err).Msg("Failed to post thread reply")
	}
}
