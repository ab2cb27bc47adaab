package inventory

import (
	"bytes"
	"sort"

	"github.com/google/uuid"
)

// StockUnit identifies the row that carries stock for a cart line: the variant when one
// is set, otherwise the product.
type StockUnit struct {
	ProductID uuid.UUID
	VariantID *uuid.UUID
}

// ProductUnit addresses stock kept on the product row.
func ProductUnit(productID uuid.UUID) StockUnit {
	return StockUnit{ProductID: productID}
}

// VariantUnit addresses stock kept on a variant row.
func VariantUnit(productID, variantID uuid.UUID) StockUnit {
	id := variantID
	return StockUnit{ProductID: productID, VariantID: &id}
}

// IsVariant reports whether stock lives on product_variants.
func (u StockUnit) IsVariant() bool {
	return u.VariantID != nil
}

// Key is a stable identifier used for de-duplication and logging.
func (u StockUnit) Key() string {
	if u.VariantID != nil {
		return "variant:" + u.VariantID.String()
	}
	return "product:" + u.ProductID.String()
}

// Less orders units by product id, then variant id with the bare product first. Every
// writer acquires row locks in this order.
func Less(a, b StockUnit) bool {
	if c := bytes.Compare(a.ProductID[:], b.ProductID[:]); c != 0 {
		return c < 0
	}
	switch {
	case a.VariantID == nil && b.VariantID == nil:
		return false
	case a.VariantID == nil:
		return true
	case b.VariantID == nil:
		return false
	}
	return bytes.Compare(a.VariantID[:], b.VariantID[:]) < 0
}

// Sort orders units in lock order.
func Sort(units []StockUnit) {
	sort.SliceStable(units, func(i, j int) bool {
		return Less(units[i], units[j])
	})
}
