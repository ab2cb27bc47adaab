package cart

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Line is a cart entry resolved against the catalog. Prices are advisory until the
// order is committed.
type Line struct {
	ProductID   uuid.UUID       `json:"product_id" validate:"required"`
	VariantID   *uuid.UUID      `json:"variant_id,omitempty"`
	Quantity    int             `json:"quantity" validate:"gt=0"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	ProductName string          `json:"product_name" validate:"required"`
	VariantName *string         `json:"variant_name,omitempty"`
}

// DisplayName joins the product name with the flattened variant description.
func (l Line) DisplayName() string {
	if l.VariantName == nil || strings.TrimSpace(*l.VariantName) == "" {
		return l.ProductName
	}
	return l.ProductName + " (" + strings.TrimSpace(*l.VariantName) + ")"
}

// Subtotal is the exact unit price times quantity.
func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}
