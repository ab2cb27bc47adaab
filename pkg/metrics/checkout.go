package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records order commit outcomes.
type CheckoutMetrics struct {
	commits      *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	numberRetry  prometheus.Counter
	lowStockHits prometheus.Counter
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	commits := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_commits_total",
		Help: "Order commit attempts by outcome.",
	}, []string{"outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_commit_duration_seconds",
		Help:    "Duration of order commits in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	numberRetry := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_order_number_retries_total",
		Help: "Order number collisions that triggered a regeneration.",
	})
	lowStockHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_low_stock_signals_total",
		Help: "Stock units that crossed the low-stock threshold after a commit.",
	})
	reg.MustRegister(commits, duration, numberRetry, lowStockHits)
	return &CheckoutMetrics{
		commits:      commits,
		duration:     duration,
		numberRetry:  numberRetry,
		lowStockHits: lowStockHits,
	}
}

// ObserveCommit records one commit attempt with its outcome label.
func (c *CheckoutMetrics) ObserveCommit(outcome string, duration time.Duration) {
	if c == nil || c.commits == nil {
		return
	}
	label := normalizeLabel(outcome)
	c.commits.WithLabelValues(label).Inc()
	c.duration.WithLabelValues(label).Observe(duration.Seconds())
}

// IncOrderNumberRetry counts a regenerated order number.
func (c *CheckoutMetrics) IncOrderNumberRetry() {
	if c == nil || c.numberRetry == nil {
		return
	}
	c.numberRetry.Inc()
}

// AddLowStockSignals counts low-stock notifications handed to the notifier.
func (c *CheckoutMetrics) AddLowStockSignals(n int) {
	if c == nil || c.lowStockHits == nil || n <= 0 {
		return
	}
	c.lowStockHits.Add(float64(n))
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
