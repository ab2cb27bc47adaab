package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CartItem is one line of a registered customer's persistent cart.
type CartItem struct {
	ID         uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	CustomerID uuid.UUID  `gorm:"column:customer_id;type:uuid;not null;index"`
	ProductID  uuid.UUID  `gorm:"column:product_id;type:uuid;not null"`
	VariantID  *uuid.UUID `gorm:"column:variant_id;type:uuid"`
	Quantity   int        `gorm:"column:quantity;not null"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *CartItem) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}
