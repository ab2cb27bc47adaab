// Package app assembles the checkout service and its low-stock pipeline from config.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/checkout"
	"github.com/angelmondragon/storefront-backend/internal/customers"
	"github.com/angelmondragon/storefront-backend/internal/inventory"
	"github.com/angelmondragon/storefront-backend/internal/lowstock"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/idempotency"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
)

// CheckoutParams carries the shared infrastructure. Redis is optional; without it
// low-stock alerts are never suppressed.
type CheckoutParams struct {
	Config     *config.Config
	Logger     *logger.Logger
	DB         *db.Client
	Redis      redis.IdempotencyStore
	Registerer prometheus.Registerer
}

// Checkout owns the checkout service and the dispatcher it notifies.
type Checkout struct {
	Service  *checkout.Service
	LowStock *lowstock.Dispatcher
}

// NewCheckout wires repositories, outbox, low-stock sinks and metrics.
func NewCheckout(params CheckoutParams) (*Checkout, error) {
	if params.Config == nil {
		return nil, errors.New("config is required")
	}
	if params.DB == nil {
		return nil, errors.New("database client is required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	reg := params.Registerer
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	settings, err := checkout.SettingsFromConfig(params.Config.Checkout)
	if err != nil {
		return nil, fmt.Errorf("checkout settings: %w", err)
	}

	conn := params.DB.DB()
	emitter := outbox.NewService(outbox.NewRepository(conn), logg)

	sink, err := lowStockSink(params, emitter, logg)
	if err != nil {
		return nil, err
	}
	dispatcher, err := lowstock.NewDispatcher(lowstock.DispatcherParams{
		Config:  params.Config.LowStock,
		Sink:    sink,
		Logger:  logg,
		Metrics: metrics.NewLowStockMetrics(reg),
	})
	if err != nil {
		return nil, fmt.Errorf("low stock dispatcher: %w", err)
	}

	svc, err := checkout.NewService(checkout.ServiceParams{
		TxRunner:  params.DB,
		Carts:     cart.NewRepository(conn),
		Orders:    orders.NewRepository(conn),
		Inventory: inventory.NewRepository(conn),
		Customers: customers.NewRepository(conn),
		Outbox:    emitter,
		Notifier:  dispatcher,
		Settings:  settings,
		Metrics:   metrics.NewCheckoutMetrics(reg),
		Logger:    logg,
	})
	if err != nil {
		return nil, fmt.Errorf("checkout service: %w", err)
	}

	return &Checkout{Service: svc, LowStock: dispatcher}, nil
}

func lowStockSink(params CheckoutParams, emitter *outbox.Service, logg *logger.Logger) (lowstock.Sink, error) {
	outboxSink, err := lowstock.NewOutboxSink(params.DB, emitter)
	if err != nil {
		return nil, fmt.Errorf("low stock outbox sink: %w", err)
	}
	var sink lowstock.Sink = lowstock.MultiSink{outboxSink, lowstock.LogSink{Logger: logg}}
	if params.Redis == nil {
		return sink, nil
	}

	guard, err := idempotency.NewManager(params.Redis, params.Config.LowStock.SuppressTTL)
	if err != nil {
		return nil, fmt.Errorf("low stock suppression: %w", err)
	}
	return lowstock.NewSuppressingSink(guard, sink, logg)
}

// Start launches the low-stock workers.
func (c *Checkout) Start(ctx context.Context) {
	c.LowStock.Start(ctx)
}

// Close drains queued low-stock alerts.
func (c *Checkout) Close() {
	c.LowStock.Close()
}
