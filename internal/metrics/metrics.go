// Package metrics exposes Prometheus collectors for the HTTP API, the
// transaction ledger and the emotion analyzer.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "finmood"

// Metrics owns a private registry so several instances can coexist in tests.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests     *prometheus.CounterVec
	httpLatency      *prometheus.HistogramVec
	rateLimited      *prometheus.CounterVec
	ledgerOperations *prometheus.CounterVec
	ledgerSize       prometheus.Gauge
	analyses         *prometheus.CounterVec
	dominant         *prometheus.CounterVec
	analysisLatency  prometheus.Histogram
	cacheLookups     *prometheus.CounterVec
	eventsPublished  *prometheus.CounterVec
}

// New registers every collector on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests served, by route and status code.",
		}, []string{"method", "route", "status"}),
		httpLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		rateLimited: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_rate_limited_total",
			Help:      "Requests rejected by the per-client rate limiter.",
		}, []string{"method"}),
		ledgerOperations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_operations_total",
			Help:      "Ledger operations, by operation and outcome.",
		}, []string{"operation", "status"}),
		ledgerSize: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ledger_transactions",
			Help:      "Transactions currently held in the ledger.",
		}),
		analyses: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "emotion_analyses_total",
			Help:      "Emotion analyses, by outcome.",
		}, []string{"outcome"}),
		dominant: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "emotion_dominant_total",
			Help:      "Successful analyses, by dominant emotion.",
		}, []string{"emotion"}),
		analysisLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "emotion_analysis_duration_seconds",
			Help:      "Time spent waiting on the emotion classifier.",
			Buckets:   prometheus.DefBuckets,
		}),
		cacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "emotion_cache_lookups_total",
			Help:      "Analysis cache lookups, by result.",
		}, []string{"result"}),
		eventsPublished: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Domain events handed to the message broker, by routing key and outcome.",
		}, []string{"routing_key", "status"}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveHTTPRequest records one served request.
func (m *Metrics) ObserveHTTPRequest(method, route string, status int, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpLatency.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObserveRateLimited records a request rejected with 429.
func (m *Metrics) ObserveRateLimited(method string) {
	m.rateLimited.WithLabelValues(method).Inc()
}

// ObserveLedgerOperation records the outcome of a ledger operation.
func (m *Metrics) ObserveLedgerOperation(operation string, err error) {
	m.ledgerOperations.WithLabelValues(operation, statusLabel(err)).Inc()
}

// SetLedgerSize records the number of stored transactions.
func (m *Metrics) SetLedgerSize(n int) {
	m.ledgerSize.Set(float64(n))
}

// ObserveAnalysis records one analysis. dominant is empty unless the outcome
// is a success.
func (m *Metrics) ObserveAnalysis(outcome, dominant string, elapsed time.Duration) {
	m.analyses.WithLabelValues(outcome).Inc()
	if dominant != "" {
		m.dominant.WithLabelValues(dominant).Inc()
	}
	if elapsed > 0 {
		m.analysisLatency.Observe(elapsed.Seconds())
	}
}

// ObserveCacheLookup records an analysis cache hit or miss.
func (m *Metrics) ObserveCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// ObservePublish records a broker publish attempt.
func (m *Metrics) ObservePublish(routingKey string, err error) {
	m.eventsPublished.WithLabelValues(routingKey, statusLabel(err)).Inc()
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
