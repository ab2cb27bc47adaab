package lowstock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/internal/inventory"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
)

type recordingSink struct {
	mu     sync.Mutex
	events []Event
	err    error
	block  chan struct{}
}

func (s *recordingSink) Deliver(ctx context.Context, event Event) error {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return s.err
}

func (s *recordingSink) delivered() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

func testEvent(stock int) Event {
	return Event{
		Unit:        inventory.ProductUnit(uuid.New()),
		Stock:       stock,
		Threshold:   5,
		OrderID:     uuid.New(),
		OrderNumber: "ORD-20260101-ABCDEFGHJK",
		OccurredAt:  time.Now().UTC(),
	}
}

func TestNewDispatcherRequiresSink(t *testing.T) {
	_, err := NewDispatcher(DispatcherParams{})
	require.Error(t, err)
}

func TestDispatcherDeliversAndDrainsOnClose(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewLowStockMetrics(reg)
	sink := &recordingSink{}
	d, err := NewDispatcher(DispatcherParams{
		Config:  config.LowStockConfig{QueueSize: 16, Workers: 3},
		Sink:    sink,
		Metrics: m,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)
	cancel()

	for i := 0; i < 10; i++ {
		d.NotifyLowStock(context.Background(), testEvent(i))
	}
	d.Close()

	assert.Len(t, sink.delivered(), 10)
	assert.Equal(t, 10.0, lowStockCount(t, reg, metrics.LowStockDelivered))
}

func TestDispatcherDropsWhenQueueFull(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewLowStockMetrics(reg)
	sink := &recordingSink{}
	d, err := NewDispatcher(DispatcherParams{
		Config:  config.LowStockConfig{QueueSize: 1, Workers: 1},
		Sink:    sink,
		Metrics: m,
	})
	require.NoError(t, err)

	// not started: the queue fills and the rest are dropped without blocking
	d.NotifyLowStock(context.Background(), testEvent(1))
	d.NotifyLowStock(context.Background(), testEvent(2))
	d.NotifyLowStock(context.Background(), testEvent(3))

	assert.Equal(t, 2.0, lowStockCount(t, reg, metrics.LowStockDropped))

	d.Close()
	assert.Empty(t, sink.delivered())
	assert.Equal(t, 3.0, lowStockCount(t, reg, metrics.LowStockDropped))
}

func TestDispatcherNotifyAfterCloseIsDropped(t *testing.T) {
	sink := &recordingSink{}
	d, err := NewDispatcher(DispatcherParams{Sink: sink})
	require.NoError(t, err)
	d.Start(context.Background())
	d.Close()
	d.Close()

	assert.NotPanics(t, func() {
		d.NotifyLowStock(context.Background(), testEvent(1))
	})
	assert.Empty(t, sink.delivered())
}

func TestDispatcherCountsFailuresAndSuppressions(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewLowStockMetrics(reg)

	calls := 0
	var mu sync.Mutex
	sink := SinkFunc(func(ctx context.Context, event Event) error {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if event.Stock == 0 {
			return ErrSuppressed
		}
		return errors.New("boom")
	})
	d, err := NewDispatcher(DispatcherParams{Sink: sink, Metrics: m, Config: config.LowStockConfig{Workers: 1}})
	require.NoError(t, err)
	d.Start(context.Background())
	d.NotifyLowStock(context.Background(), testEvent(0))
	d.NotifyLowStock(context.Background(), testEvent(1))
	d.Close()

	assert.Equal(t, 2, calls)
	assert.Equal(t, 1.0, lowStockCount(t, reg, metrics.LowStockSuppressed))
	assert.Equal(t, 1.0, lowStockCount(t, reg, metrics.LowStockFailed))
}

func TestDispatcherNotifyNeverBlocksOnSlowSink(t *testing.T) {
	sink := &recordingSink{block: make(chan struct{})}
	d, err := NewDispatcher(DispatcherParams{Sink: sink, Config: config.LowStockConfig{QueueSize: 2, Workers: 1}})
	require.NoError(t, err)
	d.Start(context.Background())

	done := make(chan struct{})
	go func() {
		for i := 0; i < 20; i++ {
			d.NotifyLowStock(context.Background(), testEvent(i))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("NotifyLowStock blocked on a slow sink")
	}
	close(sink.block)
	d.Close()
	assert.NotEmpty(t, sink.delivered())
}

func lowStockCount(t *testing.T, reg *prometheus.Registry, result string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() != "lowstock_notifications_total" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			if labelValue(metric, "result") == result {
				return metric.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func labelValue(metric *dto.Metric, name string) string {
	for _, label := range metric.GetLabel() {
		if label.GetName() == name {
			return label.GetValue()
		}
	}
	return ""
}
