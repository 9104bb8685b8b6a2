package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msomdec/skillmatch-auth/internal/metrics"
)

func TestMetrics_RecordAuth(t *testing.T) {
	m := metrics.New()

	m.RecordAuth("login", metrics.OutcomeSuccess)
	m.RecordAuth("login", metrics.OutcomeSuccess)
	m.RecordAuth("login", metrics.OutcomeInvalid)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.AuthOperations.WithLabelValues("login", metrics.OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuthOperations.WithLabelValues("login", metrics.OutcomeInvalid)))
}

func TestMetrics_ObserveHTTP(t *testing.T) {
	m := metrics.New()

	m.ObserveHTTP(http.MethodPost, "/auth/login", http.StatusOK, 20*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("POST", "/auth/login", "200")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.HTTPDuration))
}

func TestMetrics_RecordPurged(t *testing.T) {
	m := metrics.New()

	m.RecordPurged(0)
	m.RecordPurged(3)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.DenylistPurged))
}

func TestMetrics_InstancesAreIndependent(t *testing.T) {
	a := metrics.New()
	b := metrics.New()

	a.RateLimited.Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(a.RateLimited))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.RateLimited))
}

func TestMetrics_Handler(t *testing.T) {
	m := metrics.New()
	m.RecordAuth("register", metrics.OutcomeSuccess)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "skillmatch_auth_operations_total")
	assert.Contains(t, string(body), "go_goroutines")
}
