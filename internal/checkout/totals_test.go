package checkout

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/angelmondragon/storefront-backend/internal/cart"
)

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func TestComputeTotalsReferenceCart(t *testing.T) {
	lines := []cart.Line{
		{ProductID: uuid.New(), Quantity: 2, UnitPrice: dec("19.99"), ProductName: "Mug"},
		{ProductID: uuid.New(), Quantity: 1, UnitPrice: dec("5.00"), ProductName: "Sticker"},
	}

	totals := ComputeTotals(lines, DefaultSettings())
	assert.True(t, totals.Subtotal.Equal(dec("44.98")), totals.Subtotal.String())
	assert.True(t, totals.Tax.Equal(dec("4.498")), totals.Tax.String())
	assert.True(t, totals.Shipping.Equal(dec("10.00")), totals.Shipping.String())
	assert.True(t, totals.Total.Equal(dec("59.478")), totals.Total.String())

	rounded := totals.Rounded()
	assert.True(t, rounded.Tax.Equal(dec("4.50")), rounded.Tax.String())
	assert.True(t, rounded.Total.Equal(dec("59.48")), rounded.Total.String())
	assert.True(t, rounded.Total.Equal(rounded.Subtotal.Add(rounded.Tax).Add(rounded.Shipping)))
}

func TestComputeTotalsEmptyAndCustomRates(t *testing.T) {
	totals := ComputeTotals(nil, DefaultSettings())
	assert.True(t, totals.Subtotal.IsZero())
	assert.True(t, totals.Total.Equal(dec("10")))

	settings := Settings{TaxRate: dec("0.0825"), FlatShippingFee: dec("0")}
	lines := []cart.Line{{ProductID: uuid.New(), Quantity: 3, UnitPrice: dec("3.33"), ProductName: "Pen"}}
	totals = ComputeTotals(lines, settings)
	assert.True(t, totals.Subtotal.Equal(dec("9.99")))
	assert.True(t, totals.Tax.Equal(dec("0.824175")), totals.Tax.String())
	assert.True(t, totals.Rounded().Total.Equal(dec("10.81")), totals.Rounded().Total.String())
}

func TestRoundedUsesHalfAwayFromZero(t *testing.T) {
	totals := Totals{Subtotal: dec("0.005"), Tax: dec("0.015"), Shipping: dec("0"), Total: dec("0.02")}
	rounded := totals.Rounded()
	assert.True(t, rounded.Subtotal.Equal(dec("0.01")), rounded.Subtotal.String())
	assert.True(t, rounded.Tax.Equal(dec("0.02")), rounded.Tax.String())
	assert.True(t, rounded.Total.Equal(dec("0.03")), rounded.Total.String())
}
