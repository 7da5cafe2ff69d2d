package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/trading/backend/internal/domain/shared"
	"github.com/trading/backend/internal/domain/trade"
)

// GormCartItemRepository implements trade.CartItemRepository using GORM
type GormCartItemRepository struct {
	db *gorm.DB
}

// NewGormCartItemRepository creates a new GormCartItemRepository
func NewGormCartItemRepository(db *gorm.DB) *GormCartItemRepository {
	return &GormCartItemRepository{db: db}
}

// FindByUser finds all cart lines of a user
func (r *GormCartItemRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]trade.CartItem, error) {
	var items []trade.CartItem
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// FindByUserAndSKU finds one cart line
func (r *GormCartItemRepository) FindByUserAndSKU(ctx context.Context, userID uuid.UUID, sku string) (*trade.CartItem, error) {
	var item trade.CartItem
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND sku = ?", userID, sku).
		First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

// Save creates or updates a cart line
func (r *GormCartItemRepository) Save(ctx context.Context, item *trade.CartItem) error {
	if err := r.db.WithContext(ctx).Save(item).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// Delete removes one cart line
func (r *GormCartItemRepository) Delete(ctx context.Context, userID uuid.UUID, sku string) error {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND sku = ?", userID, sku).
		Delete(&trade.CartItem{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeleteByUser empties a user's cart. Deleting an already-empty cart is
// not an error.
func (r *GormCartItemRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&trade.CartItem{}).Error
}

var _ trade.CartItemRepository = (*GormCartItemRepository)(nil)
