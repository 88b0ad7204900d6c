package trace

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"donors/internal/log"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware_GeneratesRequestID(t *testing.T) {
	m := NewMiddleware(nil)
	var seen string
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/donors", nil))

	require.NotEmpty(t, seen)
	assert.True(t, strings.HasPrefix(seen, "req_"))
	assert.Equal(t, seen, rr.Header().Get(RequestIDHeader))
}

func TestMiddleware_HonoursIncomingID(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
		keep     bool
	}{
		{"valid", "abc-123_DEF", true},
		{"injected newline", "abc\nlevel=ERROR", false},
		{"too long", strings.Repeat("a", 65), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewMiddleware(nil).Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set(RequestIDHeader, tt.incoming)
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			if tt.keep {
				assert.Equal(t, tt.incoming, rr.Header().Get(RequestIDHeader))
			} else {
				assert.NotEqual(t, tt.incoming, rr.Header().Get(RequestIDHeader))
			}
		})
	}
}

func TestMiddleware_LogsWithContextLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(log.Config{
		Component: log.ComponentHTTP,
		Handler:   slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}),
	})

	m := NewMiddleware(func(*http.Request) string { return "192.0.2.1" })
	h := log.Middleware(logger)(m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.WriteHeader(http.StatusInternalServerError)
	})))

	req := httptest.NewRequest(http.MethodGet, "/donors/x", nil)
	req.Header.Set(RequestIDHeader, "fixed-id")
	h.ServeHTTP(httptest.NewRecorder(), req)

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "HTTP request completed", line["msg"])
	assert.Equal(t, "WARN", line["level"])
	assert.Equal(t, "fixed-id", line[log.FieldRequestID])
	assert.Equal(t, "192.0.2.1", line[log.FieldClientIP])
	assert.Equal(t, float64(http.StatusNotFound), line[log.FieldStatusCode])
	assert.Equal(t, "http", line[log.FieldComponent])

	metrics := m.GetMetrics()
	assert.Equal(t, int64(1), metrics.TotalRequests)
	assert.Zero(t, metrics.ServerErrors)
}
