// Package chat adapts the Slack Web API to the bot's chat port.
package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/slack-go/slack"

	"github.com/lueurxax/reading-bot/internal/core/domain"
	apperrors "github.com/lueurxax/reading-bot/internal/core/errors"
	"github.com/lueurxax/reading-bot/internal/platform/observability"
)

// Web API method names used as metric labels.
const (
	methodHistory   = "conversations.history"
	methodReplies   = "conversations.replies"
	methodPost      = "chat.postMessage"
	methodEphemeral = "chat.postEphemeral"
	methodRespond   = "response_url"
)

// Client implements ports.ChatClient on top of slack-go.
type Client struct {
	api    *slack.Client
	logger *zerolog.Logger
}

// New creates a Slack client. apiURL overrides the Web API base and is
// meant for tests and proxies.
func New(token, apiURL string, logger *zerolog.Logger) *Client {
	var opts []slack.Option
	if apiURL != "" {
		if !strings.HasSuffix(apiURL, "/") {
			apiURL += "/"
		}

		opts = append(opts, slack.OptionAPIURL(apiURL))
	}

	return &Client{
		api:    slack.New(token, opts...),
		logger: logger,
	}
}

// FetchMessage loads one message by channel and timestamp. Thread replies do
// not show up in channel history, so a miss there falls back to the replies
// endpoint.
func (c *Client) FetchMessage(ctx context.Context, channelID, ts string) (domain.Message, error) {
	start := time.Now()

	history, err := c.api.GetConversationHistoryContext(ctx, &slack.GetConversationHistoryParameters{
		ChannelID: channelID,
		Latest:    ts,
		Limit:     1,
		Inclusive: true,
	})

	observe(methodHistory, start)

	if err != nil {
		return domain.Message{}, fmt.Errorf("fetch history %s/%s: %w", channelID, ts, err)
	}

	for _, m := range history.Messages {
		if m.Timestamp == ts {
			return toDomain(channelID, m), nil
		}
	}

	return c.fetchReply(ctx, channelID, ts)
}

func (c *Client) fetchReply(ctx context.Context, channelID, ts string) (domain.Message, error) {
	start := time.Now()

	msgs, _, _, err := c.api.GetConversationRepliesContext(ctx, &slack.GetConversationRepliesParameters{
		ChannelID: channelID,
		Timestamp: ts,
		Latest:    ts,
		Oldest:    ts,
		Inclusive: true,
		Limit:     1,
	})

	observe(methodReplies, start)

	if err != nil {
		return domain.Message{}, fmt.Errorf("fetch replies %s/%s: %w", channelID, ts, err)
	}

	for _, m := range msgs {
		if m.Timestamp == ts {
			return toDomain(channelID, m), nil
		}
	}

	return domain.Message{}, fmt.Errorf("%w: %s/%s", apperrors.ErrMessageNotFound, channelID, ts)
}

// PostMessage posts text to a channel, threaded when threadTS is set.
func (c *Client) PostMessage(ctx context.Context, channelID, threadTS, text string) (string, error) {
	opts := []slack.MsgOption{
		slack.MsgOptionText(text, false),
		slack.MsgOptionDisableLinkUnfurl(),
	}

	if threadTS != "" {
		opts = append(opts, slack.MsgOptionTS(threadTS))
	}

	start := time.Now()
	_, ts, err := c.api.PostMessageContext(ctx, channelID, opts...)

	observe(methodPost, start)

	if err != nil {
		return "", fmt.Errorf("post message to %s: %w", channelID, err)
	}

	return ts, nil
}

// PostEphemeral shows text to a single user.
func (c *Client) PostEphemeral(ctx context.Context, channelID, userID, threadTS, text string) error {
	opts := []slack.MsgOption{slack.MsgOptionText(text, false)}
	if threadTS != "" {
		opts = append(opts, slack.MsgOptionTS(threadTS))
	}

	start := time.Now()
	_, err := c.api.PostEphemeralContext(ctx, channelID, userID, opts...)

	observe(methodEphemeral, start)

	if err != nil {
		return fmt.Errorf("post ephemeral to %s/%s: %w", channelID, userID, err)
	}

	return nil
}

// Respond replies to a slash command via its response URL.
func (c *Client) Respond(ctx context.Context, responseURL, text string, ephemeral bool) error {
	responseType := slack.ResponseTypeInChannel
	if ephemeral {
		responseType = slack.ResponseTypeEphemeral
	}

	start := time.Now()
	err := slack.PostWebhookContext(ctx, responseURL, &slack.WebhookMessage{
		Text:         text,
		ResponseType: responseType,
	})

	observe(methodRespond, start)

	if err != nil {
		return fmt.Errorf("respond via response_url: %w", err)
	}

	return nil
}

func observe(method string, start time.Time) {
	observability.ChatRequestDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
}

func toDomain(channelID string, m slack.Message) domain.Message {
	msg := domain.Message{
		ChannelID: channelID,
		TS:        m.Timestamp,
		ThreadTS:  m.ThreadTimestamp,
		UserID:    m.User,
		Text:      m.Text,
	}

	for _, a := range m.Attachments {
		msg.Attachments = append(msg.Attachments, attachmentText(a))
	}

	for _, b := range m.Blocks.BlockSet {
		if s := blockText(b); s != "" {
			msg.Blocks = append(msg.Blocks, s)
		}
	}

	return msg
}

// attachmentText joins the attachment fields that may carry a link, the
// unfurled original URL first.
func attachmentText(a slack.Attachment) string {
	parts := []string{a.OriginalURL, a.FromURL, a.TitleLink, a.Text, a.Pretext, a.Fallback}

	return strings.Join(nonEmpty(parts), " ")
}

func blockText(b slack.Block) string {
	section, ok := b.(*slack.SectionBlock)
	if !ok {
		return ""
	}

	var parts []string
	if section.Text != nil {
		parts = append(parts, section.Text.Text)
	}

	for _, f := range section.Fields {
		if f != nil {
			parts = append(parts, f.Text)
		}
	}

	return strings.Join(nonEmpty(parts), " ")
}

func nonEmpty(items []string) []string {
	out := items[:0:0]

	for _, s := range items {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}

	return out
}
