package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/trading/backend/internal/domain/account"
	"github.com/trading/backend/internal/domain/shared"
)

// GormMerchantRepository implements account.MerchantRepository using GORM
type GormMerchantRepository struct {
	db *gorm.DB
}

// NewGormMerchantRepository creates a new GormMerchantRepository
func NewGormMerchantRepository(db *gorm.DB) *GormMerchantRepository {
	return &GormMerchantRepository{db: db}
}

// FindByID finds a merchant by ID
func (r *GormMerchantRepository) FindByID(ctx context.Context, id uuid.UUID) (*account.Merchant, error) {
	var merchant account.Merchant
	if err := r.db.WithContext(ctx).First(&merchant, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &merchant, nil
}

// FindByUsername finds a merchant by username
func (r *GormMerchantRepository) FindByUsername(ctx context.Context, username string) (*account.Merchant, error) {
	var merchant account.Merchant
	if err := r.db.WithContext(ctx).First(&merchant, "username = ?", username).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &merchant, nil
}

// FindAll returns every merchant; the settlement batch iterates them
func (r *GormMerchantRepository) FindAll(ctx context.Context) ([]account.Merchant, error) {
	var merchants []account.Merchant
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&merchants).Error; err != nil {
		return nil, err
	}
	return merchants, nil
}

// Save creates or updates a merchant
func (r *GormMerchantRepository) Save(ctx context.Context, merchant *account.Merchant) error {
	if err := r.db.WithContext(ctx).Save(merchant).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// SaveWithVersion commits the merchant's balance under the usual
// version check
func (r *GormMerchantRepository) SaveWithVersion(ctx context.Context, merchant *account.Merchant) error {
	result := r.db.WithContext(ctx).
		Model(&account.Merchant{}).
		Where("id = ? AND version = ?", merchant.ID, merchant.Version-1).
		Updates(map[string]interface{}{
			"balance":    merchant.Balance,
			"version":    merchant.Version,
			"updated_at": merchant.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

var _ account.MerchantRepository = (*GormMerchantRepository)(nil)
