package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/trading/backend/internal/domain/shared"
	"github.com/trading/backend/internal/domain/trade"
)

// GormOrderRepository implements trade.OrderRepository using GORM.
// Orders load with their line items; the CAS update touches only the
// order row since line items are immutable after creation.
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// FindByID finds an order with its items by ID
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.Order, error) {
	var order trade.Order
	if err := r.db.WithContext(ctx).Preload("Items").First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// FindByOrderNumber finds an order with its items by its public number
func (r *GormOrderRepository) FindByOrderNumber(ctx context.Context, orderNumber string) (*trade.Order, error) {
	var order trade.Order
	if err := r.db.WithContext(ctx).Preload("Items").
		First(&order, "order_number = ?", orderNumber).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// FindByUser finds all orders of a user with the total count
func (r *GormOrderRepository) FindByUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]trade.Order, int64, error) {
	return r.findPage(ctx, filter, "user_id = ?", userID)
}

// FindByMerchant finds all orders settling against a merchant
func (r *GormOrderRepository) FindByMerchant(ctx context.Context, merchantID uuid.UUID, filter shared.Filter) ([]trade.Order, int64, error) {
	return r.findPage(ctx, filter, "merchant_id = ?", merchantID)
}

// FindByMerchantAndStatus finds a merchant's orders in one status
func (r *GormOrderRepository) FindByMerchantAndStatus(ctx context.Context, merchantID uuid.UUID, status trade.OrderStatus, filter shared.Filter) ([]trade.Order, int64, error) {
	return r.findPage(ctx, filter, "merchant_id = ? AND status = ?", merchantID, status)
}

func (r *GormOrderRepository) findPage(ctx context.Context, filter shared.Filter, cond string, args ...interface{}) ([]trade.Order, int64, error) {
	base := r.db.WithContext(ctx).Model(&trade.Order{}).
		Where(cond, args...).
		Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []trade.Order
	if err := applyFilter(base.Preload("Items"), filter, OrderSortFields).
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// FindByMerchantStatusAndRange finds a merchant's orders in one status
// created within [start, end]
func (r *GormOrderRepository) FindByMerchantStatusAndRange(ctx context.Context, merchantID uuid.UUID, status trade.OrderStatus, start, end time.Time) ([]trade.Order, error) {
	var orders []trade.Order
	if err := r.db.WithContext(ctx).
		Where("merchant_id = ? AND status = ? AND created_at BETWEEN ? AND ?",
			merchantID, status, start, end).
		Order("created_at ASC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// Save creates or updates an order together with its items
func (r *GormOrderRepository) Save(ctx context.Context, order *trade.Order) error {
	if err := r.db.WithContext(ctx).Save(order).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// SaveWithVersion commits a status transition only if the order did not
// move since it was read
func (r *GormOrderRepository) SaveWithVersion(ctx context.Context, order *trade.Order) error {
	result := r.db.WithContext(ctx).
		Model(&trade.Order{}).
		Where("id = ? AND version = ?", order.ID, order.Version-1).
		Updates(map[string]interface{}{
			"status":     order.Status,
			"version":    order.Version,
			"updated_at": order.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

var _ trade.OrderRepository = (*GormOrderRepository)(nil)
