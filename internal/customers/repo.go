package customers

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// Repository persists a registered customer's default addresses.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	UpsertDefaultAddress(ctx context.Context, customerID uuid.UUID, kind enums.AddressKind, address types.Address) error
	FindDefault(ctx context.Context, customerID uuid.UUID, kind enums.AddressKind) (*models.CustomerAddress, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a customers repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// UpsertDefaultAddress replaces the customer's stored address of the given kind.
func (r *repository) UpsertDefaultAddress(ctx context.Context, customerID uuid.UUID, kind enums.AddressKind, address types.Address) error {
	if customerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	if !kind.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid address kind")
	}
	record := models.CustomerAddress{
		CustomerID: customerID,
		Kind:       kind,
		Address:    address,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "customer_id"}, {Name: "kind"}},
			DoUpdates: clause.Assignments(map[string]any{
				"address":    address,
				"updated_at": time.Now().UTC(),
			}),
		}).
		Create(&record).Error
}

func (r *repository) FindDefault(ctx context.Context, customerID uuid.UUID, kind enums.AddressKind) (*models.CustomerAddress, error) {
	var record models.CustomerAddress
	err := r.db.WithContext(ctx).
		Where("customer_id = ? AND kind = ?", customerID, kind).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}
