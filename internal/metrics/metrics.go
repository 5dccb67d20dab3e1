// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "securelink"

// Metrics is the set of counters exported at /metrics. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	resolutions         *prometheus.CounterVec
	linksCreated        *prometheus.CounterVec
	visitRecordFailures prometheus.Counter
	cacheEvents         *prometheus.CounterVec
}

// New registers the collectors on a fresh registry, so several instances can
// live in one process (tests).
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		resolutions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolutions_total",
			Help:      "Short code resolutions by outcome.",
		}, []string{"outcome"}),
		linksCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "links_created_total",
			Help:      "Links created, by owner kind (anonymous or account).",
		}, []string{"owner"}),
		visitRecordFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "visit_record_failures_total",
			Help:      "Visits that could not be recorded.",
		}),
		cacheEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_events_total",
			Help:      "Resolution cache hits, misses and errors.",
		}, []string{"event"}),
	}
}

func (m *Metrics) ObserveResolution(outcome string) {
	if m == nil {
		return
	}
	m.resolutions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveLinkCreated(identified bool) {
	if m == nil {
		return
	}
	owner := "anonymous"
	if identified {
		owner = "account"
	}
	m.linksCreated.WithLabelValues(owner).Inc()
}

func (m *Metrics) ObserveVisitFailure() {
	if m == nil {
		return
	}
	m.visitRecordFailures.Inc()
}

func (m *Metrics) ObserveCache(event string) {
	if m == nil {
		return
	}
	m.cacheEvents.WithLabelValues(event).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
