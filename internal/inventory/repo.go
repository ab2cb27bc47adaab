package inventory

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// ErrStockNotDecremented is returned when the guarded update matched no row.
var ErrStockNotDecremented = errors.New("stock decrement matched no row")

// Repository reads and mutates stock on products and product variants.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	LockAndReadStock(ctx context.Context, unit StockUnit) (*int, error)
	DecrementStock(ctx context.Context, unit StockUnit, amount int) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an inventory repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// LockAndReadStock takes a row lock on the unit and returns its current stock. A nil
// result means the unit does not track stock. A variant that belongs to another product
// is not found.
func (r *repository) LockAndReadStock(ctx context.Context, unit StockUnit) (*int, error) {
	var row struct {
		Stock *int
	}
	err := r.scoped(ctx, unit).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("stock").
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "stock unit not found").
			WithDetails(map[string]any{"stock_unit": unit.Key()})
	}
	if err != nil {
		return nil, err
	}
	return row.Stock, nil
}

// DecrementStock subtracts amount only while the row still holds at least that much.
func (r *repository) DecrementStock(ctx context.Context, unit StockUnit, amount int) error {
	if amount <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "decrement amount must be positive")
	}
	res := r.scoped(ctx, unit).
		Where("stock IS NOT NULL AND stock >= ?", amount).
		Updates(map[string]any{
			"stock":      gorm.Expr("stock - ?", amount),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStockNotDecremented
	}
	return nil
}

func (r *repository) scoped(ctx context.Context, unit StockUnit) *gorm.DB {
	q := r.db.WithContext(ctx)
	if unit.VariantID != nil {
		return q.Model(&models.ProductVariant{}).Where("id = ? AND product_id = ?", *unit.VariantID, unit.ProductID)
	}
	return q.Model(&models.Product{}).Where("id = ?", unit.ProductID)
}
