package orchestration

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome label values.
const (
	OutcomeOK      = "ok"
	OutcomeFailed  = "failed"
	OutcomeSkipped = "skipped"
	OutcomeCached  = "cached"
)

// Metrics counts provider calls and classifications in a private registry.
// A nil *Metrics discards every observation.
type Metrics struct {
	registry        *prometheus.Registry
	providerCalls   *prometheus.CounterVec
	callLatency     *prometheus.HistogramVec
	classifications *prometheus.CounterVec
}

// NewMetrics creates and registers the benchmark collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		providerCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chainbench_provider_calls_total",
			Help: "Provider calls by provider and outcome.",
		}, []string{"provider", "outcome"}),
		callLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "chainbench_provider_call_seconds",
			Help:    "Latency of successful provider calls.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 8),
		}, []string{"provider"}),
		classifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chainbench_classifications_total",
			Help: "Response classifications by outcome.",
		}, []string{"outcome"}),
	}
	m.registry.MustRegister(m.providerCalls, m.callLatency, m.classifications)
	return m
}

// Registry exposes the collectors for scraping or inspection.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// WriteTextfile writes the current values in the node-exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

func (m *Metrics) providerCall(provider, outcome string, latency time.Duration) {
	if m == nil {
		return
	}
	m.providerCalls.WithLabelValues(provider, outcome).Inc()
	if outcome == OutcomeOK {
		m.callLatency.WithLabelValues(provider).Observe(latency.Seconds())
	}
}

func (m *Metrics) classified(outcome string) {
	if m == nil {
		return
	}
	m.classifications.WithLabelValues(outcome).Inc()
}
