package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderPlacedEvent is emitted in the same transaction that commits an order.
type OrderPlacedEvent struct {
	OrderID      uuid.UUID         `json:"order_id"`
	OrderNumber  string            `json:"order_number"`
	CustomerID   *uuid.UUID        `json:"customer_id,omitempty"`
	ContactEmail string            `json:"contact_email"`
	Subtotal     decimal.Decimal   `json:"subtotal"`
	Tax          decimal.Decimal   `json:"tax"`
	Shipping     decimal.Decimal   `json:"shipping"`
	Total        decimal.Decimal   `json:"total"`
	Items        []OrderPlacedItem `json:"items"`
	PlacedAt     time.Time         `json:"placed_at"`
}

// OrderPlacedItem summarizes one committed line.
type OrderPlacedItem struct {
	ProductID uuid.UUID  `json:"product_id"`
	VariantID *uuid.UUID `json:"variant_id,omitempty"`
	Quantity  int        `json:"quantity"`
}

// LowStockEvent reports a stock unit at or below the alert threshold.
type LowStockEvent struct {
	ProductID   uuid.UUID  `json:"product_id"`
	VariantID   *uuid.UUID `json:"variant_id,omitempty"`
	StockUnit   string     `json:"stock_unit"`
	Stock       int        `json:"stock"`
	Threshold   int        `json:"threshold"`
	OrderID     *uuid.UUID `json:"order_id,omitempty"`
	OrderNumber string     `json:"order_number,omitempty"`
}
