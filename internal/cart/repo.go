package cart

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// Repository reads and clears a registered customer's persistent cart.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	GetLines(ctx context.Context, customerID uuid.UUID) ([]Line, error)
	Clear(ctx context.Context, customerID uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository constructs a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

type lineRow struct {
	ProductID    uuid.UUID
	VariantID    *uuid.UUID
	Quantity     int
	ProductName  string
	ProductPrice decimal.Decimal
	VariantName  *string
	VariantPrice decimal.NullDecimal
}

// GetLines resolves the customer's cart items against products and variants, oldest
// first. A variant price overrides the product price when present.
func (r *repository) GetLines(ctx context.Context, customerID uuid.UUID) ([]Line, error) {
	var rows []lineRow
	err := r.db.WithContext(ctx).
		Table("cart_items AS ci").
		Select(`ci.product_id AS product_id,
			ci.variant_id AS variant_id,
			ci.quantity AS quantity,
			p.name AS product_name,
			p.price AS product_price,
			v.name AS variant_name,
			v.price AS variant_price`).
		Joins("JOIN products AS p ON p.id = ci.product_id").
		Joins("LEFT JOIN product_variants AS v ON v.id = ci.variant_id").
		Where("ci.customer_id = ?", customerID).
		Order("ci.created_at ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	lines := make([]Line, 0, len(rows))
	for _, row := range rows {
		price := row.ProductPrice
		if row.VariantID != nil && row.VariantPrice.Valid {
			price = row.VariantPrice.Decimal
		}
		lines = append(lines, Line{
			ProductID:   row.ProductID,
			VariantID:   row.VariantID,
			Quantity:    row.Quantity,
			UnitPrice:   price,
			ProductName: row.ProductName,
			VariantName: row.VariantName,
		})
	}
	return lines, nil
}

// Clear removes every cart item owned by the customer.
func (r *repository) Clear(ctx context.Context, customerID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Delete(&models.CartItem{}).Error
}
