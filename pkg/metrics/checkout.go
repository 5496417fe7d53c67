package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records the terminal state and latency of checkout attempts.
type CheckoutMetrics struct {
	outcomes *prometheus.CounterVec
	duration prometheus.Histogram
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_checkout_outcomes_total",
		Help: "Checkout attempts by terminal state.",
	}, []string{"outcome"})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "storefront_checkout_duration_seconds",
		Help:    "Duration of checkout attempts in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	reg.MustRegister(outcomes, duration)
	return &CheckoutMetrics{
		outcomes: outcomes,
		duration: duration,
	}
}

// Observe records one finished checkout.
func (c *CheckoutMetrics) Observe(outcome string, elapsed time.Duration) {
	if c == nil {
		return
	}
	if c.outcomes != nil {
		c.outcomes.WithLabelValues(normalizeLabel(outcome)).Inc()
	}
	if c.duration != nil {
		c.duration.Observe(elapsed.Seconds())
	}
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
