package checkout

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/internal/cart"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

func validAddress() types.Address {
	return types.Address{
		FirstName:  "Ada",
		LastName:   "Lovelace",
		Line1:      "12 Analytical Row",
		City:       "London",
		State:      "LDN",
		PostalCode: "EC1A 1BB",
		Country:    "gb",
	}
}

func validInput(lines ...cart.Line) CommitInput {
	return CommitInput{
		ContactEmail:    "ada@example.com",
		BillingAddress:  validAddress(),
		ShippingAddress: validAddress(),
		Lines:           lines,
	}
}

func TestValidateInputAcceptsCompleteInput(t *testing.T) {
	input := validInput(cart.Line{ProductID: uuid.New(), Quantity: 1, UnitPrice: dec("0"), ProductName: "Freebie"})
	assert.NoError(t, validateInput(input.normalize()))
}

func TestValidateInputReportsFieldPaths(t *testing.T) {
	input := validInput(
		cart.Line{ProductID: uuid.New(), Quantity: 0, UnitPrice: dec("1.00"), ProductName: "Mug"},
		cart.Line{ProductID: uuid.New(), Quantity: 1, UnitPrice: dec("-1.00"), ProductName: "Pen"},
	)
	input.ContactEmail = "not-an-email"
	input.ShippingAddress.City = "   "
	input.BillingAddress.Country = ""

	err := validateInput(input.normalize())
	require.Error(t, err)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	details, ok := pkgerrors.As(err).Details().(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "must be a valid email", details["contact_email"])
	assert.Equal(t, "is required", details["shipping_address.city"])
	assert.Equal(t, "is required", details["billing_address.country"])
	assert.Equal(t, "must be greater than 0", details["lines[0].quantity"])
	assert.Equal(t, "must not be negative", details["lines[1].unit_price"])
	assert.Len(t, details, 5)
}

func TestValidateInputRejectsSubCentPrices(t *testing.T) {
	input := validInput(
		cart.Line{ProductID: uuid.New(), Quantity: 1, UnitPrice: dec("0.005"), ProductName: "Sweet"},
		cart.Line{ProductID: uuid.New(), Quantity: 3, UnitPrice: dec("0.330"), ProductName: "Gum"},
		cart.Line{ProductID: uuid.New(), Quantity: 1, UnitPrice: dec("-0.001"), ProductName: "Refund"},
	)

	err := validateInput(input.normalize())
	require.Error(t, err)
	details := pkgerrors.As(err).Details().(map[string]string)
	assert.Equal(t, "must have at most 2 decimal places", details["lines[0].unit_price"])
	assert.NotContains(t, details, "lines[1].unit_price")
	assert.Equal(t, "must not be negative", details["lines[2].unit_price"])
}

func TestValidateInputRequiresEmail(t *testing.T) {
	input := validInput(cart.Line{ProductID: uuid.New(), Quantity: 1, ProductName: "Mug"})
	input.ContactEmail = " "

	err := validateInput(input.normalize())
	require.Error(t, err)
	details := pkgerrors.As(err).Details().(map[string]string)
	assert.Equal(t, "is required", details["contact_email"])
}

func TestNormalizeTrimsContact(t *testing.T) {
	blank := "  "
	input := validInput()
	input.ContactEmail = "  ada@example.com "
	input.ContactPhone = &blank

	normalized := input.normalize()
	assert.Equal(t, "ada@example.com", normalized.ContactEmail)
	assert.Nil(t, normalized.ContactPhone)
	assert.Equal(t, "GB", normalized.ShippingAddress.Country)
}
