package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OutcomeSuccess labels requests that completed with a decoded 2xx response.
const OutcomeSuccess = "success"

// ProviderMetrics tracks provider request outcomes, latency, retries and health.
//
// It satisfies base.Recorder so adapters can report into it directly through
// base.WithRecorder.
type ProviderMetrics struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	retries  *prometheus.CounterVec
	health   *prometheus.GaugeVec
}

// NewProviderMetrics creates and registers provider metrics under namespace.
// A nil registerer falls back to prometheus.DefaultRegisterer.
func NewProviderMetrics(namespace string, reg prometheus.Registerer) *ProviderMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &ProviderMetrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "provider",
				Name:      "requests_total",
				Help:      "Total provider request attempts by outcome",
			},
			[]string{"provider", "outcome"},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "provider",
				Name:      "request_duration_seconds",
				Help:      "Provider request attempt latency in seconds",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"provider"},
		),
		retries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "provider",
				Name:      "retries_total",
				Help:      "Total provider request retries",
			},
			[]string{"provider"},
		),
		health: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "provider",
				Name:      "health",
				Help:      "Provider configuration health from the last connection test (1=healthy, 0=unhealthy)",
			},
			[]string{"config"},
		),
	}

	reg.MustRegister(m.requests, m.latency, m.retries, m.health)

	return m
}

// ObserveRequest records one request attempt.
func (m *ProviderMetrics) ObserveRequest(provider, outcome string, elapsed time.Duration) {
	m.requests.WithLabelValues(provider, outcome).Inc()
	m.latency.WithLabelValues(provider).Observe(elapsed.Seconds())
}

// IncRetry counts a backoff before another attempt.
func (m *ProviderMetrics) IncRetry(provider string) {
	m.retries.WithLabelValues(provider).Inc()
}

// UpdateHealth sets the health gauge for one provider configuration.
func (m *ProviderMetrics) UpdateHealth(config string, healthy bool) {
	value := 0.0
	if healthy {
		value = 1.0
	}
	m.health.WithLabelValues(config).Set(value)
}
