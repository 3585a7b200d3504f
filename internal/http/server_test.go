package http

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger/internal/log"
)

func quietLogger() *log.Logger {
	return log.New(log.Config{Component: log.ComponentHTTP, Output: &bytes.Buffer{}})
}

func newTestServer(t *testing.T, ready ReadinessCheck) *Server {
	t.Helper()
	mcp := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{}}`))
	})
	srv := NewServer(":0", mcp, ready, quietLogger())
	t.Cleanup(func() { srv.Shutdown(context.Background()) })
	return srv
}

func TestHealthAndReady(t *testing.T) {
	srv := newTestServer(t, func(context.Context) error { return nil })

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rr.Code, path)
		assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
		_, err := uuid.Parse(rr.Header().Get("X-Request-ID"))
		assert.NoError(t, err)
	}
}

func TestReadyFailsWhenCheckFails(t *testing.T) {
	srv := newTestServer(t, func(context.Context) error { return errors.New("database is locked") })

	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.NotContains(t, rr.Body.String(), "locked")
}

func TestMCPRouteAndRequestID(t *testing.T) {
	srv := newTestServer(t, nil)

	id := uuid.NewString()
	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"ping"}`))
	req.Header.Set("X-Request-ID", id)
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, id, rr.Header().Get("X-Request-ID"))
	assert.Contains(t, rr.Body.String(), `"jsonrpc":"2.0"`)

	req = httptest.NewRequest(http.MethodPost, "/mcp", nil)
	req.Header.Set("X-Request-ID", "not-a-uuid\r\n")
	rr = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	assert.NotEqual(t, "not-a-uuid\r\n", rr.Header().Get("X-Request-ID"))
}

func TestRateLimitOnlyCountsPosts(t *testing.T) {
	srv := newTestServer(t, nil)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	srv.rateLimiter.now = func() time.Time { return now }
	srv.rateLimiter.limit = 3

	post := func() int {
		req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader("{}"))
		req.RemoteAddr = "203.0.113.9:5555"
		rr := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rr, req)
		return rr.Code
	}

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, post())
	}
	assert.Equal(t, http.StatusTooManyRequests, post())
	assert.Equal(t, int64(1), srv.RateLimitHits())

	rr := httptest.NewRecorder()
	get := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	get.RemoteAddr = "203.0.113.9:5555"
	srv.Handler.ServeHTTP(rr, get)
	assert.Equal(t, http.StatusOK, rr.Code)

	now = now.Add(time.Minute)
	assert.Equal(t, http.StatusOK, post(), "a new window resets the counter")
}

func TestExtractClientIP(t *testing.T) {
	tests := []struct {
		name   string
		remote string
		xff    string
		want   string
	}{
		{"direct", "203.0.113.5:1234", "", "203.0.113.5"},
		{"untrusted proxy is ignored", "203.0.113.5:1234", "198.51.100.7", "203.0.113.5"},
		{"trusted proxy forwards", "10.0.0.2:1234", "198.51.100.7, 10.0.0.2", "198.51.100.7"},
		{"garbage forwarded header", "127.0.0.1:1234", "nonsense", "127.0.0.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			assert.Equal(t, tt.want, extractClientIP(req))
		})
	}
}
