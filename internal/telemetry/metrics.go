package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ProviderErrors  *prometheus.CounterVec
}

// NewMetrics creates the courier operation metrics and registers them on
// reg. Pass prometheus.DefaultRegisterer in production; tests supply their
// own registry so repeated construction does not collide.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "courierhub_requests_total",
				Help: "Total number of courier operations by operation, provider, and outcome",
			},
			[]string{"operation", "provider", "outcome"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "courierhub_request_duration_seconds",
				Help:    "Courier operation duration in seconds by operation and provider",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "provider"},
		),
		ProviderErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "courierhub_provider_errors_total",
				Help: "Total provider failures by provider and error type",
			},
			[]string{"provider", "error_type"},
		),
	}
}

// RecordRequest records one courier operation outcome.
func (m *Metrics) RecordRequest(operation, provider, outcome string, duration float64) {
	m.RequestsTotal.WithLabelValues(operation, provider, outcome).Inc()
	m.RequestDuration.WithLabelValues(operation, provider).Observe(duration)
}

// RecordError records a provider failure.
func (m *Metrics) RecordError(provider, errorType string) {
	m.ProviderErrors.WithLabelValues(provider, errorType).Inc()
}
