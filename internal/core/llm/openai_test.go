package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newCompletionServer(t *testing.T, status int, content string, seen *map[string]any) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)

		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}

		if seen != nil {
			_ = json.NewDecoder(r.Body).Decode(seen)
		}

		w.Header().Set("Content-Type", "application/json")

		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":{"message":"upstream down","type":"server_error"}}`))

			return
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  "test-model",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
			"usage": map[string]any{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
		})
	}))
	t.Cleanup(srv.Close)

	return srv, &calls
}

func newTestClient(baseURL string) *OpenAI {
	logger := zerolog.Nop()

	return NewOpenAI(Config{APIKey: "sk-test", Model: "test-model", BaseURL: baseURL + "/v1"}, &logger)
}

func TestComplete(t *testing.T) {
	var body map[string]any

	srv, _ := newCompletionServer(t, http.StatusOK, "  A fine week of reading.  ", &body)
	c := newTestClient(srv.URL)

	got, err := c.Complete(context.Background(), "be brief", "write an intro")
	require.NoError(t, err)
	require.Equal(t, "A fine week of reading.", got)

	require.Equal(t, "test-model", body["model"])

	messages, ok := body["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 2)
	require.Equal(t, "system", messages[0].(map[string]any)["role"])
	require.Equal(t, "write an intro", messages[1].(map[string]any)["content"])
}

func TestComplete_EmptyReply(t *testing.T) {
	srv, _ := newCompletionServer(t, http.StatusOK, "   ", nil)
	c := newTestClient(srv.URL)

	_, err := c.Complete(context.Background(), "", "write an intro")
	require.ErrorIs(t, err, ErrEmptyCompletion)
}

func TestComplete_CircuitBreakerOpensAfterFailures(t *testing.T) {
	srv, calls := newCompletionServer(t, http.StatusBadRequest, "", nil)
	c := newTestClient(srv.URL)
	c.rateLimiter.SetLimit(1000)
	c.rateLimiter.SetBurst(1000)

	for range circuitBreakerThreshold {
		_, err := c.Complete(context.Background(), "", "prompt")
		require.Error(t, err)
	}

	before := calls.Load()

	_, err := c.Complete(context.Background(), "", "prompt")
	require.ErrorIs(t, err, ErrCircuitBreakerOpen)
	require.Equal(t, before, calls.Load())
}
