package lowstock

import (
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/internal/inventory"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
)

// ErrSuppressed is returned by sinks that deliberately skipped a repeat alert.
var ErrSuppressed = errors.New("low stock alert suppressed")

// Event reports a stock unit whose remaining stock is at or below the threshold after
// an order committed.
type Event struct {
	Unit        inventory.StockUnit
	Stock       int
	Threshold   int
	OrderID     uuid.UUID
	OrderNumber string
	OccurredAt  time.Time
}

// Level is the dedupe identity of the alert: the unit and the stock it reached.
func (e Event) Level() string {
	return e.Unit.Key() + ":" + strconv.Itoa(e.Stock)
}

// Payload converts the event into its outbox representation.
func (e Event) Payload() payloads.LowStockEvent {
	p := payloads.LowStockEvent{
		ProductID:   e.Unit.ProductID,
		VariantID:   e.Unit.VariantID,
		StockUnit:   e.Unit.Key(),
		Stock:       e.Stock,
		Threshold:   e.Threshold,
		OrderNumber: e.OrderNumber,
	}
	if e.OrderID != uuid.Nil {
		id := e.OrderID
		p.OrderID = &id
	}
	return p
}

func (e Event) fields() map[string]any {
	return map[string]any{
		"stock_unit":   e.Unit.Key(),
		"stock":        e.Stock,
		"threshold":    e.Threshold,
		"order_number": e.OrderNumber,
	}
}
