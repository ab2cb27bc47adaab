package inventory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

func seedProduct(t *testing.T, db *gorm.DB, stock *int) models.Product {
	t.Helper()
	product := models.Product{
		SKU:      "SKU-" + uuid.NewString()[:8],
		Name:     "Widget",
		Price:    decimal.RequireFromString("9.99"),
		Stock:    stock,
		IsActive: true,
	}
	require.NoError(t, db.Create(&product).Error)
	return product
}

func seedVariant(t *testing.T, db *gorm.DB, productID uuid.UUID, stock *int) models.ProductVariant {
	t.Helper()
	variant := models.ProductVariant{
		ProductID: productID,
		SKU:       "VAR-" + uuid.NewString()[:8],
		Name:      "Size: M",
		Stock:     stock,
	}
	require.NoError(t, db.Create(&variant).Error)
	return variant
}

func readProductStock(t *testing.T, db *gorm.DB, id uuid.UUID) *int {
	t.Helper()
	var product models.Product
	require.NoError(t, db.First(&product, "id = ?", id).Error)
	return product.Stock
}

func TestLockAndReadStockProduct(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	product := seedProduct(t, db, dbtest.IntPtr(7))

	stock, err := repo.LockAndReadStock(context.Background(), ProductUnit(product.ID))
	require.NoError(t, err)
	require.NotNil(t, stock)
	assert.Equal(t, 7, *stock)
}

func TestLockAndReadStockVariantAndUntracked(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	product := seedProduct(t, db, dbtest.IntPtr(100))
	variant := seedVariant(t, db, product.ID, nil)

	stock, err := repo.LockAndReadStock(context.Background(), VariantUnit(product.ID, variant.ID))
	require.NoError(t, err)
	assert.Nil(t, stock)
}

func TestLockAndReadStockUnknownUnit(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)

	_, err := repo.LockAndReadStock(context.Background(), ProductUnit(uuid.New()))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestDecrementStockGuarded(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	product := seedProduct(t, db, dbtest.IntPtr(3))
	unit := ProductUnit(product.ID)

	require.NoError(t, repo.DecrementStock(context.Background(), unit, 2))
	assert.Equal(t, 1, *readProductStock(t, db, product.ID))

	err := repo.DecrementStock(context.Background(), unit, 2)
	require.ErrorIs(t, err, ErrStockNotDecremented)
	assert.Equal(t, 1, *readProductStock(t, db, product.ID))
}

func TestDecrementStockSkipsUntracked(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	product := seedProduct(t, db, nil)

	err := repo.DecrementStock(context.Background(), ProductUnit(product.ID), 1)
	require.ErrorIs(t, err, ErrStockNotDecremented)
	assert.Nil(t, readProductStock(t, db, product.ID))
}

func TestDecrementStockVariantLeavesProduct(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	product := seedProduct(t, db, dbtest.IntPtr(50))
	variant := seedVariant(t, db, product.ID, dbtest.IntPtr(4))

	require.NoError(t, repo.DecrementStock(context.Background(), VariantUnit(product.ID, variant.ID), 4))

	var reloaded models.ProductVariant
	require.NoError(t, db.First(&reloaded, "id = ?", variant.ID).Error)
	assert.Equal(t, 0, *reloaded.Stock)
	assert.Equal(t, 50, *readProductStock(t, db, product.ID))
}

func TestVariantOfAnotherProductIsNotFound(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	owner := seedProduct(t, db, dbtest.IntPtr(10))
	other := seedProduct(t, db, dbtest.IntPtr(10))
	variant := seedVariant(t, db, owner.ID, dbtest.IntPtr(1))
	foreign := VariantUnit(other.ID, variant.ID)

	_, err := repo.LockAndReadStock(context.Background(), foreign)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	require.ErrorIs(t, repo.DecrementStock(context.Background(), foreign, 1), ErrStockNotDecremented)

	var reloaded models.ProductVariant
	require.NoError(t, db.First(&reloaded, "id = ?", variant.ID).Error)
	assert.Equal(t, 1, *reloaded.Stock)
}

func TestDecrementStockRejectsNonPositive(t *testing.T) {
	repo := NewRepository(dbtest.Open(t))
	err := repo.DecrementStock(context.Background(), ProductUnit(uuid.New()), 0)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestWithTxRollsBackDecrement(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	product := seedProduct(t, db, dbtest.IntPtr(5))

	_ = db.Transaction(func(tx *gorm.DB) error {
		require.NoError(t, repo.WithTx(tx).DecrementStock(context.Background(), ProductUnit(product.ID), 5))
		return assert.AnError
	})

	assert.Equal(t, 5, *readProductStock(t, db, product.ID))
}
