// Package monitoring exposes Prometheus metrics for route checks, upstream
// calls, and the freshness of the event data.
package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sells-group/disruption-cli/internal/model"
	"github.com/sells-group/disruption-cli/internal/resilience"
)

const namespace = "disruption"

// Metrics holds every collector, registered on its own registry.
type Metrics struct {
	registry *prometheus.Registry

	checksTotal        *prometheus.CounterVec
	checkDuration      prometheus.Histogram
	disruptionsFound   prometheus.Histogram
	geocodeMisses      *prometheus.CounterVec
	upstreamFailures   *prometheus.CounterVec
	circuitState       *prometheus.GaugeVec
	upcomingEvents     prometheus.Gauge
	lastScrape         prometheus.Gauge
	httpRequests       *prometheus.CounterVec
	httpRequestLatency *prometheus.HistogramVec
}

// NewMetrics registers all collectors, plus the Go runtime and process
// collectors, on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		checksTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "check",
			Name:      "total",
			Help:      "Route checks by outcome (ok or error kind).",
		}, []string{"outcome"}),
		checkDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "check",
			Name:      "duration_seconds",
			Help:      "Route check latency in seconds.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 15, 30},
		}),
		disruptionsFound: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "check",
			Name:      "disruptions",
			Help:      "Disruptions reported per successful route check.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13},
		}),
		geocodeMisses: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "geocode",
			Name:      "misses_total",
			Help:      "Addresses that did not geocode, by scope (event, endpoint).",
		}, []string{"scope"}),
		upstreamFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "failures_total",
			Help:      "Failed upstream calls by service.",
		}, []string{"service"}),
		circuitState: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "circuit_state",
			Help:      "Circuit breaker state by service (0 closed, 1 open, 2 half-open).",
		}, []string{"service"}),
		upcomingEvents: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "upcoming",
			Help:      "Stored events within the scrape window.",
		}),
		lastScrape: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "last_scrape_timestamp_seconds",
			Help:      "Unix time of the most recently scraped stored event.",
		}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route pattern, and status.",
		}, []string{"method", "route", "status"}),
		httpRequestLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds.",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 15},
		}, []string{"method", "route"}),
	}
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// CheckCompleted records one route check. An empty kind means success.
func (m *Metrics) CheckCompleted(kind model.ErrorKind, elapsed time.Duration) {
	outcome := "ok"
	if kind != "" {
		outcome = string(kind)
	}
	m.checksTotal.WithLabelValues(outcome).Inc()
	m.checkDuration.Observe(elapsed.Seconds())
}

// DisruptionsFound records the size of a successful check's report.
func (m *Metrics) DisruptionsFound(n int) {
	m.disruptionsFound.Observe(float64(n))
}

// GeocodeMiss counts one address that did not resolve.
func (m *Metrics) GeocodeMiss(scope string) {
	m.geocodeMisses.WithLabelValues(scope).Inc()
}

// UpstreamFailure counts one failed call to service.
func (m *Metrics) UpstreamFailure(service string) {
	m.upstreamFailures.WithLabelValues(service).Inc()
}

// BreakerStateChanged tracks circuit breaker transitions. Its signature
// matches the resilience.NewServiceBreakers hook.
func (m *Metrics) BreakerStateChanged(service string, _, to resilience.CircuitState) {
	m.circuitState.WithLabelValues(service).Set(float64(to))
}

// ObserveHTTP records one served HTTP request.
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpRequestLatency.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// SetEventSnapshot publishes the freshness gauges from a collected snapshot.
func (m *Metrics) SetEventSnapshot(s *Snapshot) {
	m.upcomingEvents.Set(float64(s.UpcomingEvents))
	if !s.LastScrapedAt.IsZero() {
		m.lastScrape.Set(float64(s.LastScrapedAt.Unix()))
	}
}
