package lowstock

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
)

const (
	defaultQueueSize      = 256
	defaultWorkers        = 2
	defaultDeliverTimeout = 5 * time.Second
)

// DispatcherParams wires a Dispatcher.
type DispatcherParams struct {
	Config  config.LowStockConfig
	Sink    Sink
	Logger  *logger.Logger
	Metrics *metrics.LowStockMetrics
}

// Dispatcher hands low-stock alerts to a Sink on background workers. Enqueueing never
// blocks and never fails the caller.
type Dispatcher struct {
	sink    Sink
	logg    *logger.Logger
	metrics *metrics.LowStockMetrics
	timeout time.Duration
	workers int

	mu      sync.RWMutex
	queue   chan Event
	closed  bool
	started bool
	wg      sync.WaitGroup
}

// NewDispatcher builds a dispatcher; call Start before enqueueing.
func NewDispatcher(params DispatcherParams) (*Dispatcher, error) {
	if params.Sink == nil {
		return nil, errors.New("sink required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	size := params.Config.QueueSize
	if size <= 0 {
		size = defaultQueueSize
	}
	workers := params.Config.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	timeout := params.Config.DeliverTimeout
	if timeout <= 0 {
		timeout = defaultDeliverTimeout
	}
	return &Dispatcher{
		sink:    params.Sink,
		logg:    logg,
		metrics: params.Metrics,
		timeout: timeout,
		workers: workers,
		queue:   make(chan Event, size),
	}, nil
}

// Start launches the workers. Deliveries run detached from ctx cancellation so alerts
// queued before shutdown still drain on Close.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.closed {
		return
	}
	d.started = true
	base := context.WithoutCancel(ctx)
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.work(base)
	}
}

// NotifyLowStock enqueues the alert or drops it when the queue is full or closed.
func (d *Dispatcher) NotifyLowStock(ctx context.Context, event Event) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.drop(ctx, event, "dispatcher closed")
		return
	}
	select {
	case d.queue <- event:
		d.metrics.SetQueueDepth(len(d.queue))
	default:
		d.drop(ctx, event, "queue full")
	}
}

// Close stops accepting alerts and waits for queued ones to be delivered.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	started := d.started
	d.mu.Unlock()

	if !started {
		for event := range d.queue {
			d.drop(context.Background(), event, "dispatcher never started")
		}
		return
	}
	d.wg.Wait()
}

func (d *Dispatcher) work(ctx context.Context) {
	defer d.wg.Done()
	for event := range d.queue {
		d.metrics.SetQueueDepth(len(d.queue))
		d.deliver(ctx, event)
	}
}

func (d *Dispatcher) deliver(ctx context.Context, event Event) {
	deliverCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	logCtx := d.logg.WithFields(ctx, event.fields())
	err := d.sink.Deliver(deliverCtx, event)
	switch {
	case err == nil:
		d.metrics.Inc(metrics.LowStockDelivered)
	case errors.Is(err, ErrSuppressed):
		d.metrics.Inc(metrics.LowStockSuppressed)
		d.logg.Debug(logCtx, "low stock alert suppressed")
	default:
		d.metrics.Inc(metrics.LowStockFailed)
		d.logg.Error(logCtx, "low stock alert delivery failed", err)
	}
}

func (d *Dispatcher) drop(ctx context.Context, event Event, reason string) {
	d.metrics.Inc(metrics.LowStockDropped)
	logCtx := d.logg.WithField(d.logg.WithFields(ctx, event.fields()), "reason", reason)
	d.logg.Warn(logCtx, "low stock alert dropped")
}
