package bot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"

	apperrors "github.com/lueurxax/reading-bot/internal/core/errors"
	"github.com/lueurxax/reading-bot/internal/platform/observability"
)

// Route labels and outcomes for metrics.
const (
	routeEvents   = "events"
	routeCommands = "commands"

	outcomeOK         = "ok"
	outcomeBadHost    = "bad_host"
	outcomeBadSig     = "bad_signature"
	outcomeBadRequest = "bad_request"
	outcomeRetry      = "retry_dropped"
	outcomeChallenge  = "challenge"
	outcomeTooLarge   = "too_large"
	outcomeIgnored    = "ignored"

	eventTypeReaction  = "reaction_added"
	eventTypeMention   = "app_mention"
	eventTypeUnhandled = "other"
)

const (
	reactionItemType = "message"
	contentTypeJSON  = "application/json"
	contentTypeText  = "text/plain; charset=utf-8"
)

// commandAck is the immediate slash command response body.
type commandAck struct {
	ResponseType string `json:"response_type"`
	Text         string `json:"text"`
}

// Register mounts the webhook routes on mux.
func (b *Bot) Register(mux *http.ServeMux) {
	mux.HandleFunc(PathEvents, b.HandleEvents)
	mux.HandleFunc(PathCommands, b.HandleCommand)
}

// Handler returns a mux serving only the webhook routes.
func (b *Bot) Handler() http.Handler {
	mux := http.NewServeMux()
	b.Register(mux)

	return mux
}

// authenticate runs the checks shared by both routes: method, host
// allow-list, body size and signature. On failure it has already written
// the response and returns ok=false.
func (b *Bot) authenticate(w http.ResponseWriter, r *http.Request, route string) (context.Context, []byte, bool) {
	logger := b.logger.With().Str(LogFieldRequestID, uuid.NewString()).Str("route", route).Logger()
	ctx := logger.WithContext(r.Context())

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		observability.WebhookRequests.WithLabelValues(route, outcomeBadRequest).Inc()

		return ctx, nil, false
	}

	if !b.hosts.Allowed(r.Host) {
		logger.Warn().Str("host", r.Host).Msg("Rejected request from disallowed host")
		http.Error(w, apperrors.ErrHostNotAllowed.Error(), http.StatusBadRequest)
		observability.WebhookRequests.WithLabelValues(route, outcomeBadHost).Inc()

		return ctx, nil, false
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
			observability.WebhookRequests.WithLabelValues(route, outcomeTooLarge).Inc()

			return ctx, nil, false
		}

		http.Error(w, "cannot read body", http.StatusBadRequest)
		observability.WebhookRequests.WithLabelValues(route, outcomeBadRequest).Inc()

		return ctx, nil, false
	}

	if err := b.verifySignature(r.Header, body); err != nil {
		logger.Warn().Err(err).Msg("Rejected request with bad signature")
		http.Error(w, apperrors.ErrInvalidSignature.Error(), http.StatusUnauthorized)
		observability.WebhookRequests.WithLabelValues(route, outcomeBadSig).Inc()

		return ctx, nil, false
	}

	return ctx, body, true
}

// verifySignature checks the v0 HMAC over timestamp and body. Stale
// timestamps are rejected by the verifier.
func (b *Bot) verifySignature(header http.Header, body []byte) error {
	sv, err := slack.NewSecretsVerifier(header, b.cfg.SigningSecret)
	if err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrInvalidSignature, err)
	}

	if _, err := sv.Write(body); err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrInvalidSignature, err)
	}

	if err := sv.Ensure(); err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrInvalidSignature, err)
	}

	return nil
}

// HandleEvents serves the Events API endpoint.
func (b *Bot) HandleEvents(w http.ResponseWriter, r *http.Request) {
	ctx, body, ok := b.authenticate(w, r, routeEvents)
	if !ok {
		return
	}

	logger := zerolog.Ctx(ctx)

	event, err := slackevents.ParseEvent(json.RawMessage(body), slackevents.OptionNoVerifyToken())
	if err != nil {
		// Inner event types the library does not model fail to parse; they
		// are acknowledged so Slack does not redeliver them.
		if envelopeType(body) == slackevents.CallbackEvent {
			logger.Debug().Err(err).Msg("Ignoring unmodelled callback event")
			w.WriteHeader(http.StatusOK)
			observability.WebhookRequests.WithLabelValues(routeEvents, outcomeIgnored).Inc()

			return
		}

		logger.Warn().Err(err).Msg("Unparseable event payload")
		http.Error(w, "invalid event payload", http.StatusBadRequest)
		observability.WebhookRequests.WithLabelValues(routeEvents, outcomeBadRequest).Inc()

		return
	}

	switch event.Type {
	case slackevents.URLVerification:
		b.answerChallenge(w, body)
	case slackevents.CallbackEvent:
		if retry := r.Header.Get(headerRetryNum); retry != "" {
			logger.Info().Str("retry", retry).Str("reason", r.Header.Get(headerRetryReason)).Msg("Dropping redelivered event")
			w.WriteHeader(http.StatusOK)
			observability.WebhookRequests.WithLabelValues(routeEvents, outcomeRetry).Inc()

			return
		}

		b.dispatchCallback(ctx, event.InnerEvent)
		w.WriteHeader(http.StatusOK)
		observability.WebhookRequests.WithLabelValues(routeEvents, outcomeOK).Inc()
	default:
		logger.Debug().Str("type", event.Type).Msg("Ignoring event envelope")
		w.WriteHeader(http.StatusOK)
		observability.WebhookRequests.WithLabelValues(routeEvents, outcomeIgnored).Inc()
	}
}

func (b *Bot) answerChallenge(w http.ResponseWriter, body []byte) {
	var challenge struct {
		Challenge string `json:"challenge"`
	}

	if err := json.Unmarshal(body, &challenge); err != nil {
		http.Error(w, "invalid challenge", http.StatusBadRequest)
		observability.WebhookRequests.WithLabelValues(routeEvents, outcomeBadRequest).Inc()

		return
	}

	w.Header().Set("Content-Type", contentTypeText)
	_, _ = w.Write([]byte(challenge.Challenge))

	observability.WebhookRequests.WithLabelValues(routeEvents, outcomeChallenge).Inc()
}

// dispatchCallback routes an inner event to its handler in the background.
func (b *Bot) dispatchCallback(ctx context.Context, inner slackevents.EventsAPIInnerEvent) {
	logger := zerolog.Ctx(ctx)

	switch ev := inner.Data.(type) {
	case *slackevents.ReactionAddedEvent:
		observability.EventsHandled.WithLabelValues(eventTypeReaction).Inc()

		if ev.Item.Type != reactionItemType {
			logger.Debug().Str("item_type", ev.Item.Type).Msg("Ignoring reaction on non-message item")
			return
		}

		reaction := reactionEvent{
			Reaction:  ev.Reaction,
			UserID:    ev.User,
			ChannelID: ev.Item.Channel,
			MessageTS: ev.Item.Timestamp,
		}

		b.background(ctx, func(ctx context.Context) { b.handleReaction(ctx, reaction) })
	case *slackevents.AppMentionEvent:
		observability.EventsHandled.WithLabelValues(eventTypeMention).Inc()

		threadTS := ev.ThreadTimeStamp
		if threadTS == "" {
			threadTS = ev.TimeStamp
		}

		mention := mentionEvent{
			Text:      ev.Text,
			UserID:    ev.User,
			ChannelID: ev.Channel,
			ThreadTS:  threadTS,
		}

		b.background(ctx, func(ctx context.Context) { b.handleMention(ctx, mention) })
	default:
		observability.EventsHandled.WithLabelValues(eventTypeUnhandled).Inc()
		logger.Debug().Str("type", inner.Type).Msg("Ignoring callback event")
	}
}

// HandleCommand serves the slash command endpoint.
func (b *Bot) HandleCommand(w http.ResponseWriter, r *http.Request) {
	ctx, body, ok := b.authenticate(w, r, routeCommands)
	if !ok {
		return
	}

	// SlashCommandParse reads the form from the body again.
	r.Body = io.NopCloser(bytes.NewReader(body))

	cmd, err := slack.SlashCommandParse(r)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("Unparseable slash command")
		http.Error(w, "invalid command payload", http.StatusBadRequest)
		observability.WebhookRequests.WithLabelValues(routeCommands, outcomeBadRequest).Inc()

		return
	}

	ack := b.routeCommand(ctx, cmd)

	w.Header().Set("Content-Type", contentTypeJSON)
	_ = json.NewEncoder(w).Encode(commandAck{ResponseType: slack.ResponseTypeEphemeral, Text: ack})

	observability.WebhookRequests.WithLabelValues(routeCommands, outcomeOK).Inc()
}

func envelopeType(body []byte) string {
	var envelope struct {
		Type string `json:"type"`
	}

	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}

	return envelope.Type
}
