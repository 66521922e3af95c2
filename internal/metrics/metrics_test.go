package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveAnalysis(t *testing.T) {
	m := New()

	m.ObserveAnalysis("ok", "joy", 20*time.Millisecond)
	m.ObserveAnalysis("ok", "joy", 10*time.Millisecond)
	m.ObserveAnalysis("client_rejected", "", 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.analyses.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.analyses.WithLabelValues("client_rejected")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.dominant.WithLabelValues("joy")))
}

func TestObserveLedgerOperation(t *testing.T) {
	m := New()

	m.ObserveLedgerOperation("create", nil)
	m.ObserveLedgerOperation("create", errors.New("boom"))
	m.SetLedgerSize(4)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ledgerOperations.WithLabelValues("create", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ledgerOperations.WithLabelValues("create", "error")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.ledgerSize))
}

func TestCacheAndPublishCounters(t *testing.T) {
	m := New()

	m.ObserveCacheLookup(true)
	m.ObserveCacheLookup(false)
	m.ObserveCacheLookup(false)
	m.ObservePublish("transaction.created", nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.eventsPublished.WithLabelValues("transaction.created", "success")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.ObserveHTTPRequest(http.MethodGet, "/transactions", http.StatusOK, 5*time.Millisecond)
	m.ObserveRateLimited(http.MethodPost)

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, `finmood_http_requests_total{method="GET",route="/transactions",status="200"} 1`)
	assert.Contains(t, body, `finmood_http_rate_limited_total{method="POST"} 1`)
}

func TestInstancesDoNotCollide(t *testing.T) {
	assert.NotPanics(t, func() {
		_ = New()
		_ = New()
	})
}
