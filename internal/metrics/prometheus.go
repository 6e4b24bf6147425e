// Package metrics provides Prometheus-based metrics collection for netsweep
// using an instance-scoped registry so tests never collide on global state.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	// Namespace for all netsweep metrics
	namespace = "netsweep"

	// Subsystems
	subsystemSweep   = "sweep"
	subsystemPublish = "publish"
	subsystemAPI     = "api"
)

// Metrics holds all Prometheus metric collectors.
type Metrics struct {
	// Sweep metrics
	sweepsTotal   *prometheus.CounterVec
	sweepDuration *prometheus.HistogramVec
	hostsSwept    *prometheus.CounterVec
	activeSweeps  prometheus.Gauge

	// Publish metrics
	publishTotal *prometheus.CounterVec

	// API metrics
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	registry *prometheus.Registry
}

// New creates a metrics instance with all collectors registered.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{registry: registry}

	m.sweepsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystemSweep,
			Name:      "runs_total",
			Help:      "Total number of sweep runs by outcome",
		},
		[]string{"status"},
	)

	m.sweepDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystemSweep,
			Name:      "duration_seconds",
			Help:      "Duration of sweep runs in seconds",
			Buckets:   []float64{1, 5, 30, 60, 300, 600, 1800, 3600, 7200},
		},
		[]string{"network"},
	)

	m.hostsSwept = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystemSweep,
			Name:      "hosts_total",
			Help:      "Total number of hosts processed by detail-phase outcome",
		},
		[]string{"status"},
	)

	m.activeSweeps = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystemSweep,
			Name:      "active",
			Help:      "Number of sweep runs currently in flight",
		},
	)

	m.publishTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystemPublish,
			Name:      "total",
			Help:      "Total number of point batches published by outcome",
		},
		[]string{"status"},
	)

	m.httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystemAPI,
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method, path, and status",
		},
		[]string{"method", "path", "status"},
	)

	m.httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystemAPI,
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"method", "path"},
	)

	registry.MustRegister(
		m.sweepsTotal,
		m.sweepDuration,
		m.hostsSwept,
		m.activeSweeps,
		m.publishTotal,
		m.httpRequests,
		m.httpDuration,
	)

	// Standard Go and process collectors for runtime visibility
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return m
}

// SweepStarted marks a run as in flight.
func (m *Metrics) SweepStarted() {
	m.activeSweeps.Inc()
}

// SweepFinished records a completed or failed run.
func (m *Metrics) SweepFinished(network, status string, duration time.Duration) {
	m.activeSweeps.Dec()
	m.sweepsTotal.WithLabelValues(status).Inc()
	m.sweepDuration.WithLabelValues(network).Observe(duration.Seconds())
}

// HostsSwept records detail-phase host outcomes.
func (m *Metrics) HostsSwept(analyzed, failed int) {
	m.hostsSwept.WithLabelValues("analyzed").Add(float64(analyzed))
	m.hostsSwept.WithLabelValues("failed").Add(float64(failed))
}

// PublishAttempt records a point-batch delivery outcome.
func (m *Metrics) PublishAttempt(status string) {
	m.publishTotal.WithLabelValues(status).Inc()
}

// HTTPRequest records a served API request.
func (m *Metrics) HTTPRequest(method, path, status string, duration time.Duration) {
	m.httpRequests.WithLabelValues(method, path, status).Inc()
	m.httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// Handler returns an HTTP handler exposing the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
