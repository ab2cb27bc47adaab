package orders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

func testAddress() types.Address {
	return types.Address{
		FirstName:  "Ada",
		LastName:   "Lovelace",
		Line1:      "1 Main St",
		City:       "Springfield",
		State:      "IL",
		PostalCode: "62701",
		Country:    "US",
	}
}

func newOrder(number string) *models.Order {
	return &models.Order{
		OrderNumber:     number,
		Status:          enums.OrderStatusPending,
		Subtotal:        decimal.RequireFromString("44.98"),
		Tax:             decimal.RequireFromString("4.50"),
		Shipping:        decimal.RequireFromString("10.00"),
		Total:           decimal.RequireFromString("59.48"),
		ContactEmail:    "ada@example.com",
		BillingAddress:  testAddress(),
		ShippingAddress: testAddress(),
	}
}

func TestCreateAndFindOrder(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	order, err := repo.CreateOrder(ctx, newOrder("ORD-20240101-AAAAAAAAAA"))
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, order.ID)

	variantName := "Size: M"
	variantID := uuid.New()
	items := []models.OrderItem{
		{
			OrderID:      order.ID,
			ProductID:    uuid.New(),
			ProductName:  "Widget",
			Quantity:     2,
			UnitPrice:    decimal.RequireFromString("10.00"),
			LineSubtotal: decimal.RequireFromString("20.00"),
		},
		{
			OrderID:      order.ID,
			ProductID:    uuid.New(),
			VariantID:    &variantID,
			ProductName:  "Gadget",
			VariantName:  &variantName,
			Quantity:     1,
			UnitPrice:    decimal.RequireFromString("24.98"),
			LineSubtotal: decimal.RequireFromString("24.98"),
		},
	}
	require.NoError(t, repo.CreateOrderItems(ctx, items))

	found, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "ORD-20240101-AAAAAAAAAA", found.OrderNumber)
	assert.Equal(t, enums.OrderStatusPending, found.Status)
	assert.True(t, found.Total.Equal(decimal.RequireFromString("59.48")))
	assert.Equal(t, "Springfield", found.ShippingAddress.City)
	require.Len(t, found.Items, 2)

	byNumber, err := repo.FindByNumber(ctx, "ORD-20240101-AAAAAAAAAA")
	require.NoError(t, err)
	assert.Equal(t, order.ID, byNumber.ID)
}

func TestCreateOrderDuplicateNumber(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	_, err := repo.CreateOrder(ctx, newOrder("ORD-20240101-BBBBBBBBBB"))
	require.NoError(t, err)

	_, err = repo.CreateOrder(ctx, newOrder("ORD-20240101-BBBBBBBBBB"))
	require.Error(t, err)
	assert.True(t, db.IsUniqueViolation(err, "orders.order_number"))
}

func TestCreateOrderItemsEmpty(t *testing.T) {
	repo := NewRepository(dbtest.Open(t))
	require.NoError(t, repo.CreateOrderItems(context.Background(), nil))
}

func TestFindMissingOrder(t *testing.T) {
	repo := NewRepository(dbtest.Open(t))

	_, err := repo.FindByID(context.Background(), uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = repo.FindByNumber(context.Background(), "ORD-19700101-0000000000")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
