package checkout

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/internal/cart"
)

const moneyPlaces = 2

// Totals are exact, unrounded order amounts.
type Totals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Shipping decimal.Decimal
	Total    decimal.Decimal
}

// ComputeTotals sums line subtotals, applies the tax rate to the subtotal and adds the
// flat shipping fee.
func ComputeTotals(lines []cart.Line, settings Settings) Totals {
	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(line.Subtotal())
	}
	tax := subtotal.Mul(settings.TaxRate)
	shipping := settings.FlatShippingFee
	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Shipping: shipping,
		Total:    subtotal.Add(tax).Add(shipping),
	}
}

// Rounded rounds each component to cents, half away from zero. Total is the sum of the
// rounded components so the persisted row always adds up.
func (t Totals) Rounded() Totals {
	subtotal := t.Subtotal.Round(moneyPlaces)
	tax := t.Tax.Round(moneyPlaces)
	shipping := t.Shipping.Round(moneyPlaces)
	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Shipping: shipping,
		Total:    subtotal.Add(tax).Add(shipping),
	}
}
