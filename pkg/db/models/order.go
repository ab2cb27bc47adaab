package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// Order is created once per successful checkout; addresses are snapshots.
type Order struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	CustomerID      *uuid.UUID        `gorm:"column:customer_id;type:uuid;index"`
	OrderNumber     string            `gorm:"column:order_number;not null;uniqueIndex:ux_orders_order_number"`
	Status          enums.OrderStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	Subtotal        decimal.Decimal   `gorm:"column:subtotal;type:numeric(12,2);not null"`
	Tax             decimal.Decimal   `gorm:"column:tax;type:numeric(12,2);not null"`
	Shipping        decimal.Decimal   `gorm:"column:shipping;type:numeric(12,2);not null"`
	Total           decimal.Decimal   `gorm:"column:total;type:numeric(12,2);not null"`
	ContactEmail    string            `gorm:"column:contact_email;not null"`
	ContactPhone    *string           `gorm:"column:contact_phone"`
	BillingAddress  types.Address     `gorm:"column:billing_address;type:jsonb;not null"`
	ShippingAddress types.Address     `gorm:"column:shipping_address;type:jsonb;not null"`
	Items           []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	ensureID(&o.ID)
	return nil
}
