package bot

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/slack-go/slack"

	apperrors "github.com/lueurxax/reading-bot/internal/core/errors"
	"github.com/lueurxax/reading-bot/internal/platform/observability"
)

// Slash command subcommands.
const (
	cmdHelp       = "help"
	cmdList       = "list"
	cmdNewsletter = "newsletter"
)

// commandHandler answers a slash command. The returned text is the
// immediate ephemeral acknowledgement.
type commandHandler func(ctx context.Context, cmd slack.SlashCommand, args string) string

func (b *Bot) newCommandRegistry() map[string]commandHandler {
	return map[string]commandHandler{
		cmdHelp:       b.handleHelpCommand,
		cmdList:       b.handleListCommand,
		cmdNewsletter: b.handleNewsletterCommand,
	}
}

// routeCommand picks the handler named by the first word. Anything else is
// treated as a query.
func (b *Bot) routeCommand(ctx context.Context, cmd slack.SlashCommand) string {
	text := strings.TrimSpace(cmd.Text)
	word, args, _ := strings.Cut(text, " ")

	zerolog.Ctx(ctx).Info().
		Str("command", cmd.Command).
		Str(LogFieldUserID, cmd.UserID).
		Str(LogFieldChannel, cmd.ChannelID).
		Str("text", text).
		Msg("Slash command received")

	if handler, ok := b.commands[strings.ToLower(word)]; ok {
		observability.EventsHandled.WithLabelValues("command_" + strings.ToLower(word)).Inc()
		return handler(ctx, cmd, strings.TrimSpace(args))
	}

	observability.EventsHandled.WithLabelValues("command_query").Inc()

	if _, ok := b.resolveEmoji(text); !ok {
		return helpText(b.emojis, b.cfg.QueryDays)
	}

	b.background(ctx, func(ctx context.Context) {
		b.respondAll(ctx, cmd.ResponseURL, b.runQuery(ctx, sourceCommand, text))
	})

	return lookingUpText
}

func (b *Bot) handleHelpCommand(_ context.Context, _ slack.SlashCommand, _ string) string {
	return helpText(b.emojis, b.cfg.QueryDays)
}

func (b *Bot) handleListCommand(_ context.Context, _ slack.SlashCommand, _ string) string {
	return "Configured emojis:\n" + emojiList(b.emojis)
}

// handleNewsletterCommand builds a newsletter preview for the caller. An
// optional date phrase sets the start of the window.
func (b *Bot) handleNewsletterCommand(ctx context.Context, cmd slack.SlashCommand, args string) string {
	if b.newsletter == nil {
		return newsletterOffText
	}

	var since time.Time

	if args != "" {
		when, err := b.dates.Parse(args, b.now())
		if err != nil {
			if errors.Is(err, apperrors.ErrFutureDate) {
				return futureDateText(err)
			}

			zerolog.Ctx(ctx).Warn().Err(err).Msg("Failed to parse newsletter date")

			return helpText(b.emojis, b.cfg.QueryDays)
		}

		if !when.Defaulted {
			since = when.Since
		}
	}

	if !b.limiter.Allow() {
		observability.RateLimitRejections.Inc()
		return rateLimitedText(b.limiter.RetryAfter())
	}

	b.background(ctx, func(ctx context.Context) {
		logger := zerolog.Ctx(ctx)

		parts, err := b.newsletter.Compose(ctx, b.now(), since)
		if err != nil {
			logger.Error().Err(err).Msg("Newsletter preview failed")

			parts = []string{queryFailedText}
		}

		b.respondAll(ctx, cmd.ResponseURL, parts)
	})

	return newsletterBusyText
}

// respondAll sends parts to a slash command response URL, paced.
func (b *Bot) respondAll(ctx context.Context, responseURL string, parts []string) {
	logger := zerolog.Ctx(ctx)

	for i, part := range parts {
		if err := b.pacer.Wait(ctx); err != nil {
			logger.Warn().Err(err).Int("sent", i).Msg("Stopped sending command response")
			return
		}

		if err := b.chat.Respond(ctx, responseURL, part, true); err != nil {
			logger.Warn().Err(err).Int("part", i).Msg("Failed to send command response")
			return
		}
	}
}
