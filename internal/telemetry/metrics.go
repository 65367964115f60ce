package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the QBOT gateway.
type Metrics struct {
	RequestTotal      *prometheus.CounterVec
	AttemptTotal      *prometheus.CounterVec
	ProviderLatencyMs *prometheus.HistogramVec
	FallbackTotal     prometheus.Counter
	TruncationTotal   *prometheus.CounterVec
	TokensTotal       *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		RequestTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "qbot_request_total",
			Help: "Total generation requests processed.",
		}, []string{"provider", "tier", "category"}),

		AttemptTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "qbot_provider_attempt_total",
			Help: "Provider call attempts by outcome.",
		}, []string{"provider", "outcome"}),

		ProviderLatencyMs: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "qbot_provider_latency_ms",
			Help:    "Latency of the provider call that produced the returned content.",
			Buckets: []float64{100, 250, 500, 1000, 2500, 5000, 10000, 30000, 60000},
		}, []string{"provider"}),

		FallbackTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "qbot_static_fallback_total",
			Help: "Responses served from the static fallback pool after provider exhaustion.",
		}),

		TruncationTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "qbot_tier_truncation_total",
			Help: "Free-tier responses truncated to the word budget.",
		}, []string{"kept_followup"}),

		TokensTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "qbot_tokens_total",
			Help: "Tokens reported by providers.",
		}, []string{"provider"}),
	}
}

// RecordAttempt records the outcome of one provider call attempt.
func (m *Metrics) RecordAttempt(provider, outcome string) {
	m.AttemptTotal.WithLabelValues(provider, outcome).Inc()
}

// RecordResult records metrics for the result returned to the caller.
func (m *Metrics) RecordResult(provider, tier, category string, latencyMs float64, tokens int) {
	m.RequestTotal.WithLabelValues(provider, tier, category).Inc()
	if provider == "fallback" {
		m.FallbackTotal.Inc()
		return
	}
	m.ProviderLatencyMs.WithLabelValues(provider).Observe(latencyMs)
	if tokens > 0 {
		m.TokensTotal.WithLabelValues(provider).Add(float64(tokens))
	}
}

// RecordTruncation records a free-tier truncation.
func (m *Metrics) RecordTruncation(keptFollowup bool) {
	label := "no"
	if keptFollowup {
		label = "yes"
	}
	m.TruncationTotal.WithLabelValues(label).Inc()
}
