package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
)

type fakePinger struct {
	err error
}

func (f fakePinger) Ping(context.Context) error {
	return f.err
}

type pingRoute struct{}

func (pingRoute) Register(mux *http.ServeMux) {
	mux.HandleFunc("/extra", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
}

func TestServerRoutes(t *testing.T) {
	logger := zerolog.Nop()

	tests := []struct {
		name   string
		pinger Pinger
		path   string
		want   int
	}{
		{"healthz", nil, "/healthz", http.StatusOK},
		{"ready without db", nil, "/readyz", http.StatusOK},
		{"ready with db", fakePinger{}, "/readyz", http.StatusOK},
		{"db down", fakePinger{err: errors.New("refused")}, "/readyz", http.StatusServiceUnavailable},
		{"metrics", nil, "/metrics", http.StatusOK},
		{"registered route", nil, "/extra", http.StatusTeapot},
		{"unknown", nil, "/nope", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := NewServer(0, tt.pinger, &logger, pingRoute{})
			rec := httptest.NewRecorder()

			srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if rec.Code != tt.want {
				t.Errorf("GET %s = %d, want %d", tt.path, rec.Code, tt.want)
			}
		})
	}
}
