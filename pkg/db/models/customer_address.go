package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// CustomerAddress is a registered customer's default address for one kind.
type CustomerAddress struct {
	ID         uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	CustomerID uuid.UUID         `gorm:"column:customer_id;type:uuid;not null;uniqueIndex:ux_customer_addresses_customer_kind,priority:1"`
	Kind       enums.AddressKind `gorm:"column:kind;type:text;not null;uniqueIndex:ux_customer_addresses_customer_kind,priority:2"`
	Address    types.Address     `gorm:"column:address;type:jsonb;not null"`
	CreatedAt  time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (a *CustomerAddress) BeforeCreate(*gorm.DB) error {
	ensureID(&a.ID)
	return nil
}
