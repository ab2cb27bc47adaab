package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	LowStockDelivered  = "delivered"
	LowStockFailed     = "failed"
	LowStockDropped    = "dropped"
	LowStockSuppressed = "suppressed"
)

// LowStockMetrics counts low-stock notification dispatch results.
type LowStockMetrics struct {
	events *prometheus.CounterVec
	queue  prometheus.Gauge
}

// NewLowStockMetrics registers the low-stock dispatcher metrics.
func NewLowStockMetrics(reg prometheus.Registerer) *LowStockMetrics {
	if reg == nil {
		return &LowStockMetrics{}
	}
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lowstock_notifications_total",
		Help: "Low-stock notifications by dispatch result.",
	}, []string{"result"})
	queue := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "lowstock_queue_depth",
		Help: "Low-stock notifications waiting for a worker.",
	})
	reg.MustRegister(events, queue)
	return &LowStockMetrics{events: events, queue: queue}
}

// Inc increments the counter for the given dispatch result.
func (m *LowStockMetrics) Inc(result string) {
	if m == nil || m.events == nil {
		return
	}
	m.events.WithLabelValues(normalizeLabel(result)).Inc()
}

// SetQueueDepth reports the number of buffered notifications.
func (m *LowStockMetrics) SetQueueDepth(depth int) {
	if m == nil || m.queue == nil {
		return
	}
	m.queue.Set(float64(depth))
}
