package checkout

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/internal/inventory"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// Shortage describes one line that could not be fulfilled from current stock.
type Shortage struct {
	ProductID uuid.UUID  `json:"product_id"`
	VariantID *uuid.UUID `json:"variant_id,omitempty"`
	StockUnit string     `json:"stock_unit"`
	Name      string     `json:"name"`
	Requested int        `json:"requested"`
	Available int        `json:"available"`
}

// Shortages extracts the shortage list from an insufficient-stock error.
func Shortages(err error) []Shortage {
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		return nil
	}
	details, ok := typed.Details().(map[string]any)
	if !ok {
		return nil
	}
	shortages, _ := details["shortages"].([]Shortage)
	return shortages
}

func newShortage(unit inventory.StockUnit, name string, requested, available int) Shortage {
	return Shortage{
		ProductID: unit.ProductID,
		VariantID: unit.VariantID,
		StockUnit: unit.Key(),
		Name:      name,
		Requested: requested,
		Available: available,
	}
}

func emptyCartError() error {
	return pkgerrors.New(pkgerrors.CodeEmptyCart, "cart is empty")
}

func insufficientStockError(shortages []Shortage) error {
	return pkgerrors.New(pkgerrors.CodeInsufficientStock, fmt.Sprintf("insufficient stock for %d item(s)", len(shortages))).WithDetails(map[string]any{
		"shortages": shortages,
	})
}

func orderNumberCollisionError(attempts int, cause error) error {
	return pkgerrors.Wrap(pkgerrors.CodeOrderNumberCollision, cause, "could not allocate a unique order number").WithDetails(map[string]any{
		"attempts": attempts,
	})
}

// asPersistence keeps coded errors as they are and wraps anything else from the
// datastore as a persistence failure.
func asPersistence(err error, msg string) error {
	if err == nil {
		return nil
	}
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodePersistence, err, msg)
}
