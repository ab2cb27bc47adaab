package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutboxPublished = "published"
	OutboxRetried   = "retried"
	OutboxTerminal  = "terminal"
	OutboxRequeued  = "requeued"
)

// OutboxMetrics counts relay results per event type.
type OutboxMetrics struct {
	rows    *prometheus.CounterVec
	batches prometheus.Counter
}

// NewOutboxMetrics registers the outbox relay metrics.
func NewOutboxMetrics(reg prometheus.Registerer) *OutboxMetrics {
	if reg == nil {
		return &OutboxMetrics{}
	}
	rows := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_rows_total",
		Help: "Outbox rows handled by the relay, by event type and result.",
	}, []string{"event_type", "result"})
	batches := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "outbox_batch_errors_total",
		Help: "Relay batches that failed and were retried with backoff.",
	})
	reg.MustRegister(rows, batches)
	return &OutboxMetrics{rows: rows, batches: batches}
}

// IncRow records the result for one outbox row.
func (m *OutboxMetrics) IncRow(eventType, result string) {
	if m == nil || m.rows == nil {
		return
	}
	m.rows.WithLabelValues(normalizeLabel(eventType), normalizeLabel(result)).Inc()
}

// IncBatchError records a failed batch.
func (m *OutboxMetrics) IncBatchError() {
	if m == nil || m.batches == nil {
		return
	}
	m.batches.Inc()
}
