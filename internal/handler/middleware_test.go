package handler_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msomdec/skillmatch-auth/internal/handler"
	"github.com/msomdec/skillmatch-auth/internal/service"
)

func TestRequireAuth(t *testing.T) {
	env := newTestEnv(t)
	token := env.register(t, "Ada", "ada@x.io", "secret1")

	var seen string
	protected := handler.RequireAuth(env.auth, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if u := handler.UserFromContext(r.Context()); u != nil {
			seen = u.Email
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	t.Run("valid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "ada@x.io", seen)
	})

	t.Run("wrong scheme", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Basic "+token)
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), `"message":"Unauthenticated"`)
	})

	t.Run("no token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestUserFromContext_Empty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Nil(t, handler.UserFromContext(req.Context()))
	assert.Nil(t, handler.PrincipalFromContext(req.Context()))
}

func TestRequestID(t *testing.T) {
	var seen string
	h := handler.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = handler.RequestIDFromContext(r.Context())
	}))

	t.Run("generated", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		require.NotEmpty(t, seen)
		assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))
	})

	t.Run("propagated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", "abc-123")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, "abc-123", seen)
		assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
	})
}

func TestSecurityHeaders(t *testing.T) {
	h := handler.SecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "no-referrer", rec.Header().Get("Referrer-Policy"))
}

func TestRecover(t *testing.T) {
	h := handler.Recover(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"statusCode":500,"message":"Internal Server Error"}`, rec.Body.String())
}

func TestRateLimit_Credentials(t *testing.T) {
	limiter := service.NewTokenBucket(0.001, 1)
	t.Cleanup(limiter.Close)
	env := newTestEnv(t, func(o *envOptions) { o.limiter = limiter })

	creds := map[string]string{"email": "ada@x.io", "password": "secret1"}

	resp, _ := env.postJSON(t, "/auth/login", "", creds)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body := env.postJSON(t, "/auth/login", "", creds)
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "Too many requests", body.Message)
	assert.Equal(t, "1", resp.Header.Get("Retry-After"))
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.RateLimited))

	// Token endpoints are not throttled.
	resp, _ = env.get(t, "/auth/me", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestInstrument_RecordsRoutePattern(t *testing.T) {
	env := newTestEnv(t)

	resp, _ := env.get(t, "/healthz", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = env.get(t, "/nope", "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.HTTPRequests.WithLabelValues("GET", "GET /healthz", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.HTTPRequests.WithLabelValues("GET", "unmatched", "404")))
}

func TestAuthOperationMetrics(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "Ada", "ada@x.io", "secret1")
	env.postJSON(t, "/auth/login", "", map[string]string{"email": "ada@x.io", "password": "badpass"})

	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.AuthOperations.WithLabelValues("register", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.AuthOperations.WithLabelValues("login", "unauthenticated")))
}
