package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frahmantamala/license-portal/internal"
	"github.com/frahmantamala/license-portal/internal/role"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("success"))
	})
}

func withPrincipal(r *http.Request, p *internal.Principal) *http.Request {
	return r.WithContext(internal.ContextWithPrincipal(r.Context(), p))
}

func TestRequireRoles(t *testing.T) {
	h := RequireRoles(role.Admin, role.Moderator)(okHandler())

	t.Run("no principal", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("missing grant", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := withPrincipal(httptest.NewRequest(http.MethodGet, "/", nil), &internal.Principal{ID: 1, Roles: role.Grants{role.Customer}})
		h.ServeHTTP(w, req)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), "UNAUTHORIZED_ACCESS")
	})

	t.Run("held grant", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := withPrincipal(httptest.NewRequest(http.MethodGet, "/", nil), &internal.Principal{ID: 1, Roles: role.Grants{role.Moderator}})
		h.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestRateLimiterIsPerCaller(t *testing.T) {
	limiter := NewRateLimiter(internal.RateLimitConfig{DemoIssueRPS: 0.001, DemoIssueBurst: 1})
	h := limiter.Middleware(okHandler())

	first := withPrincipal(httptest.NewRequest(http.MethodPost, "/demo", nil), &internal.Principal{ID: 1})
	second := withPrincipal(httptest.NewRequest(http.MethodPost, "/demo", nil), &internal.Principal{ID: 2})

	w := httptest.NewRecorder()
	h.ServeHTTP(w, first)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, first)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "RATE_LIMITED")

	w = httptest.NewRecorder()
	h.ServeHTTP(w, second)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimiterDropsIdleCallers(t *testing.T) {
	limiter := NewRateLimiter(internal.RateLimitConfig{DemoIssueRPS: 1, DemoIssueBurst: 1, IdleTTL: time.Minute})
	clock := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return clock }
	limiter.lastSweep = clock
	h := limiter.Middleware(okHandler())

	for id := int64(1); id <= 50; id++ {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, withPrincipal(httptest.NewRequest(http.MethodPost, "/demo", nil), &internal.Principal{ID: id}))
		require.Equal(t, http.StatusOK, w.Code)
	}
	assert.Len(t, limiter.limiters, 50)

	clock = clock.Add(30 * time.Second)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, withPrincipal(httptest.NewRequest(http.MethodPost, "/demo", nil), &internal.Principal{ID: 1}))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, limiter.limiters, 50)

	clock = clock.Add(45 * time.Second)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, withPrincipal(httptest.NewRequest(http.MethodPost, "/demo", nil), &internal.Principal{ID: 51}))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, limiter.limiters, 2)
	assert.Contains(t, limiter.limiters, "user:1")
	assert.Contains(t, limiter.limiters, "user:51")
}

func TestRateLimiterIdleTTLCoversRefill(t *testing.T) {
	limiter := NewRateLimiter(internal.RateLimitConfig{DemoIssueRPS: 0.01, DemoIssueBurst: 2, IdleTTL: time.Second})
	assert.Equal(t, 200*time.Second, limiter.idleTTL)
}

func TestCORS(t *testing.T) {
	h := CORS([]string{"https://portal.example.com"})(okHandler())

	t.Run("allowed preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/v1/licenses", nil)
		req.Header.Set("Origin", "https://portal.example.com")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "https://portal.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("unknown origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/licenses", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestRecoveryMiddleware(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := RecoveryMiddleware(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "boom")
}

func TestFilterSensitiveBody(t *testing.T) {
	out := filterSensitiveBody([]byte(`{"email":"a@b.c","password":"hunter22","license":{"license_key":"ABCD-1234","status":"active"}}`))
	assert.NotContains(t, out, "hunter22")
	assert.NotContains(t, out, "ABCD-1234")
	assert.Contains(t, out, "a@b.c")
	assert.Contains(t, out, "active")

	assert.Equal(t, "[NON-JSON BODY]", filterSensitiveBody([]byte("first_name,email")))
	assert.Equal(t, "[TRUNCATED]", filterSensitiveBody([]byte(strings.Repeat("x", maxLoggedBody+1))))
}

func TestLoggingMiddlewareKeepsRequestBody(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	var seen string
	h := LoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		seen = string(b)
		w.WriteHeader(http.StatusCreated)
	}))

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, `{"name":"x"}`, seen)
}
