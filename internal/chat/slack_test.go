package chat

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	apperrors "github.com/lueurxax/reading-bot/internal/core/errors"
)

type fakeSlack struct {
	mu       sync.Mutex
	history  []map[string]any
	replies  []map[string]any
	calls    map[string][]url.Values
	webhooks []map[string]any
}

func newFakeSlack() *fakeSlack {
	return &fakeSlack{calls: make(map[string][]url.Values)}
}

func (f *fakeSlack) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if r.URL.Path == "/hook" {
		var body map[string]any

		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		f.webhooks = append(f.webhooks, body)

		w.WriteHeader(http.StatusOK)

		return
	}

	_ = r.ParseForm()
	method := r.URL.Path[len("/api/"):]
	f.calls[method] = append(f.calls[method], r.Form)

	w.Header().Set("Content-Type", "application/json")

	switch method {
	case "conversations.history":
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "messages": f.history})
	case "conversations.replies":
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "messages": f.replies})
	case "chat.postMessage":
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "channel": r.Form.Get("channel"), "ts": "222.333"})
	case "chat.postEphemeral":
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "message_ts": "222.444"})
	default:
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "error": "unknown_method"})
	}
}

func newTestClient(t *testing.T, f *fakeSlack) (*Client, string) {
	t.Helper()

	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	logger := zerolog.Nop()

	return New("xoxb-test", srv.URL+"/api", &logger), srv.URL
}

func TestFetchMessage_FromHistory(t *testing.T) {
	f := newFakeSlack()
	f.history = []map[string]any{{
		"type": "message",
		"user": "U1",
		"ts":   "100.1",
		"text": "look <https://example.com/a|example.com/a>",
		"attachments": []map[string]any{
			{"original_url": "https://example.com/a", "text": "preview"},
		},
		"blocks": []map[string]any{
			{"type": "section", "text": map[string]any{"type": "mrkdwn", "text": "block https://example.com/b"}},
			{"type": "divider"},
		},
	}}

	c, _ := newTestClient(t, f)

	msg, err := c.FetchMessage(context.Background(), "C1", "100.1")
	require.NoError(t, err)
	require.Equal(t, "C1", msg.ChannelID)
	require.Equal(t, "100.1", msg.TS)
	require.Equal(t, "U1", msg.UserID)
	require.Equal(t, "look <https://example.com/a|example.com/a>", msg.Text)
	require.Equal(t, []string{"https://example.com/a preview"}, msg.Attachments)
	require.Equal(t, []string{"block https://example.com/b"}, msg.Blocks)

	require.Empty(t, f.calls["conversations.replies"])

	req := f.calls["conversations.history"][0]
	require.Equal(t, "C1", req["channel"][0])
	require.Equal(t, "100.1", req["latest"][0])
}

func TestFetchMessage_FallsBackToReplies(t *testing.T) {
	f := newFakeSlack()
	f.history = []map[string]any{{"type": "message", "ts": "90.0", "text": "parent"}}
	f.replies = []map[string]any{
		{"type": "message", "ts": "90.0", "text": "parent"},
		{"type": "message", "ts": "100.1", "thread_ts": "90.0", "text": "https://example.com/reply"},
	}

	c, _ := newTestClient(t, f)

	msg, err := c.FetchMessage(context.Background(), "C1", "100.1")
	require.NoError(t, err)
	require.Equal(t, "https://example.com/reply", msg.Text)
	require.Equal(t, "90.0", msg.ThreadTS)
}

func TestFetchMessage_NotFound(t *testing.T) {
	f := newFakeSlack()
	c, _ := newTestClient(t, f)

	_, err := c.FetchMessage(context.Background(), "C1", "100.1")
	require.ErrorIs(t, err, apperrors.ErrMessageNotFound)
}

func TestPostMessage_Threaded(t *testing.T) {
	f := newFakeSlack()
	c, _ := newTestClient(t, f)

	ts, err := c.PostMessage(context.Background(), "C1", "100.1", "Saved!")
	require.NoError(t, err)
	require.Equal(t, "222.333", ts)

	req := f.calls["chat.postMessage"][0]
	require.Equal(t, "C1", req.Get("channel"))
	require.Equal(t, "Saved!", req.Get("text"))
	require.Equal(t, "100.1", req.Get("thread_ts"))
}

func TestPostEphemeral(t *testing.T) {
	f := newFakeSlack()
	c, _ := newTestClient(t, f)

	require.NoError(t, c.PostEphemeral(context.Background(), "C1", "U1", "", "slow down"))

	req := f.calls["chat.postEphemeral"][0]
	require.Equal(t, "U1", req.Get("user"))
	require.Equal(t, "slow down", req.Get("text"))
}

func TestRespond(t *testing.T) {
	f := newFakeSlack()
	c, base := newTestClient(t, f)

	require.NoError(t, c.Respond(context.Background(), base+"/hook", "results", true))
	require.NoError(t, c.Respond(context.Background(), base+"/hook", "shared", false))

	require.Len(t, f.webhooks, 2)
	require.Equal(t, "results", f.webhooks[0]["text"])
	require.Equal(t, "ephemeral", f.webhooks[0]["response_type"])
	require.Equal(t, "in_channel", f.webhooks[1]["response_type"])
}
