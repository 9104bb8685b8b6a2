package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/msomdec/skillmatch-auth/internal/handler"
	"github.com/msomdec/skillmatch-auth/internal/metrics"
	"github.com/msomdec/skillmatch-auth/internal/repository/sqlite"
	"github.com/msomdec/skillmatch-auth/internal/service"
)

const testJWTSecret = "test-secret-for-handler-tests-0123456789"

// testClock is a settable time source shared by the token issuer.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testEnv struct {
	auth    *service.AuthService
	metrics *metrics.Metrics
	clock   *testClock
	srv     *httptest.Server
}

type envOptions struct {
	limiter *service.TokenBucket
}

func newTestAuthService(t *testing.T, clock *testClock) *service.AuthService {
	t.Helper()
	db, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, db.Migrate(context.Background()))
	t.Cleanup(func() { db.Close() })

	tokens := service.NewTokenIssuer(testJWTSecret, time.Hour,
		service.WithClock(clock.Now), service.WithIssuer("test"))
	return service.NewAuthService(db.Users(), db.Denylist(), db.FileStore(), tokens, service.NewBcryptHasher(4))
}

func newTestEnv(t *testing.T, opts ...func(*envOptions)) *testEnv {
	t.Helper()
	var o envOptions
	for _, opt := range opts {
		opt(&o)
	}

	clock := &testClock{now: time.Now().Truncate(time.Second)}
	auth := newTestAuthService(t, clock)
	m := metrics.New()

	srv := httptest.NewServer(handler.NewRouter(handler.Deps{
		Auth:    auth,
		Limiter: o.limiter,
		Metrics: m,
	}))
	t.Cleanup(srv.Close)

	return &testEnv{auth: auth, metrics: m, clock: clock, srv: srv}
}

// apiResponse mirrors the response envelope.
type apiResponse struct {
	StatusCode int             `json:"statusCode"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
}

func (e *testEnv) request(t *testing.T, method, path, token, contentType string, body io.Reader) (*http.Response, apiResponse) {
	t.Helper()
	req, err := http.NewRequest(method, e.srv.URL+path, body)
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var env apiResponse
	if resp.Header.Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(raw, &env), "body: %s", raw)
	}
	return resp, env
}

func (e *testEnv) postJSON(t *testing.T, path, token string, payload any) (*http.Response, apiResponse) {
	t.Helper()
	b, err := json.Marshal(payload)
	require.NoError(t, err)
	return e.request(t, http.MethodPost, path, token, "application/json", bytes.NewReader(b))
}

func (e *testEnv) get(t *testing.T, path, token string) (*http.Response, apiResponse) {
	t.Helper()
	return e.request(t, http.MethodGet, path, token, "", nil)
}

// register creates an account and returns its token.
func (e *testEnv) register(t *testing.T, name, email, password string) string {
	t.Helper()
	resp, env := e.postJSON(t, "/auth/register", "", map[string]string{
		"name": name, "email": email, "password": password, "role": "student",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, "register: %s", env.Message)

	var data struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	return data.Token
}

func (e *testEnv) login(t *testing.T, email, password string) string {
	t.Helper()
	resp, env := e.postJSON(t, "/auth/login", "", map[string]string{"email": email, "password": password})
	require.Equal(t, http.StatusOK, resp.StatusCode, "login: %s", env.Message)

	var data struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	return data.Token
}

func decodeData[T any](t *testing.T, env apiResponse) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}
