// Package metrics provides Prometheus metrics for both dashboards.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OutcomeOK    = "ok"
	OutcomeEmpty = "empty"
	OutcomeError = "error"
)

// Metrics holds the collectors shared by the fetch services and the web layer.
type Metrics struct {
	registry *prometheus.Registry

	// Upstream fetches
	FetchTotal    *prometheus.CounterVec
	FetchDuration *prometheus.HistogramVec

	// Narrative cache
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter

	// Rendering
	PageRenders   *prometheus.CounterVec
	WSConnections prometheus.Gauge
}

// New creates a Metrics instance on its own registry so several instances
// can coexist (one per server, one per test).
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = "crypto_dashboards"
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		FetchTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "fetch_total",
			Help:      "Upstream fetches by source, endpoint and outcome",
		}, []string{"source", "endpoint", "outcome"}),
		FetchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "fetch_duration_seconds",
			Help:      "Upstream fetch latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source", "endpoint"}),
		CacheHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Narrative dashboard cache hits",
		}),
		CacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Narrative dashboard cache misses",
		}),
		PageRenders: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "web",
			Name:      "renders_total",
			Help:      "Rendered pages and fragments",
		}, []string{"view"}),
		WSConnections: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "web",
			Name:      "ws_connections",
			Help:      "Open websocket connections",
		}),
	}
}

// ObserveFetch records one upstream call.
func (m *Metrics) ObserveFetch(source, endpoint, outcome string, started time.Time) {
	if m == nil {
		return
	}
	m.FetchTotal.WithLabelValues(source, endpoint, outcome).Inc()
	m.FetchDuration.WithLabelValues(source, endpoint).Observe(time.Since(started).Seconds())
}

func (m *Metrics) CacheHit() {
	if m != nil {
		m.CacheHits.Inc()
	}
}

func (m *Metrics) CacheMiss() {
	if m != nil {
		m.CacheMisses.Inc()
	}
}

func (m *Metrics) Rendered(view string) {
	if m != nil {
		m.PageRenders.WithLabelValues(view).Inc()
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
