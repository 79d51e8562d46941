package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Request outcomes, one per terminal state of the asset router
const (
	OutcomeUnauthorized    = "unauthorized"
	OutcomeBadMethod       = "bad_method"
	OutcomeNotFound        = "not_found"
	OutcomeText            = "text"
	OutcomeRedirect        = "redirect"
	OutcomeMissingLink     = "missing_link"
	OutcomeTransformed     = "transformed"
	OutcomeTransformFailed = "transform_failed"
)

// Metrics holds the Prometheus collectors of the service.
// All methods are safe on a nil receiver.
type Metrics struct {
	registry          *prometheus.Registry
	requests          *prometheus.CounterVec
	transformDuration prometheus.Histogram
	cacheWrites       *prometheus.CounterVec
	reported          prometheus.Counter
}

// NewMetrics creates collectors on a private registry
func NewMetrics(namespace string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "asset_requests_total",
			Help:      "Asset requests by terminal outcome.",
		}, []string{"outcome"}),
		transformDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "asset_transform_duration_seconds",
			Help:      "Time spent in the image codec.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
		cacheWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "asset_cache_writes_total",
			Help:      "Writes of transformed assets to the cache store.",
		}, []string{"result"}),
		reported: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_reported_total",
			Help:      "Errors handed to the error reporter.",
		}),
	}

	m.registry.MustRegister(
		m.requests,
		m.transformDuration,
		m.cacheWrites,
		m.reported,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveRequest counts a request outcome
func (m *Metrics) ObserveRequest(outcome string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(outcome).Inc()
}

// ObserveTransform records codec latency
func (m *Metrics) ObserveTransform(start time.Time) {
	if m == nil {
		return
	}
	m.transformDuration.Observe(time.Since(start).Seconds())
}

// ObserveCacheWrite counts a cache write by result ("ok", "error")
func (m *Metrics) ObserveCacheWrite(result string) {
	if m == nil {
		return
	}
	m.cacheWrites.WithLabelValues(result).Inc()
}

func (m *Metrics) observeReport() {
	if m == nil {
		return
	}
	m.reported.Inc()
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
