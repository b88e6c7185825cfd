// Package metrics exposes Prometheus instrumentation for the wizard
// service: counters for the core operations and a latency histogram for
// the HTTP layer, served from a dedicated registry on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors for one server instance.
type Metrics struct {
	ReconcilesTotal   prometheus.Counter
	ValidationsTotal  *prometheus.CounterVec
	DDLGeneratedTotal prometheus.Counter
	SessionsActive    prometheus.Gauge
	RequestDuration   *prometheus.HistogramVec

	registry *prometheus.Registry
}

// New creates the collectors on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		ReconcilesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "loadwizard_reconciles_total",
			Help: "Total number of column reconciliation runs",
		}),
		ValidationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "loadwizard_validations_total",
			Help: "Total number of step validations by step and result",
		}, []string{"step", "result"}),
		DDLGeneratedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "loadwizard_ddl_generated_total",
			Help: "Total number of schema statements generated",
		}),
		SessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "loadwizard_sessions_active",
			Help: "Number of open wizard sessions",
		}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "loadwizard_http_request_duration_seconds",
			Help:    "HTTP request latency by method and status",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		}, []string{"method", "status"}),
		registry: registry,
	}

	registry.MustRegister(
		m.ReconcilesTotal,
		m.ValidationsTotal,
		m.DDLGeneratedTotal,
		m.SessionsActive,
		m.RequestDuration,
	)
	return m
}

// ObserveValidation records one validation outcome for a step.
func (m *Metrics) ObserveValidation(step string, valid bool) {
	result := "pass"
	if !valid {
		result = "fail"
	}
	m.ValidationsTotal.WithLabelValues(step, result).Inc()
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
