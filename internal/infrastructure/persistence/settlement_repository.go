package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/trading/backend/internal/domain/settlement"
	"github.com/trading/backend/internal/domain/shared"
)

// GormSettlementRepository implements settlement.Repository using GORM.
// The unique (merchant_id, settlement_date) index is the idempotency
// guarantee: a second run for the same pair cannot land a second row.
type GormSettlementRepository struct {
	db *gorm.DB
}

// NewGormSettlementRepository creates a new GormSettlementRepository
func NewGormSettlementRepository(db *gorm.DB) *GormSettlementRepository {
	return &GormSettlementRepository{db: db}
}

// FindByMerchantAndDate finds one reconciliation record
func (r *GormSettlementRepository) FindByMerchantAndDate(ctx context.Context, merchantID uuid.UUID, date time.Time) (*settlement.Settlement, error) {
	var record settlement.Settlement
	if err := r.db.WithContext(ctx).
		Where("merchant_id = ? AND settlement_date = ?", merchantID, settlement.DateOf(date)).
		First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// FindByMerchant finds a merchant's reconciliation history with the total count
func (r *GormSettlementRepository) FindByMerchant(ctx context.Context, merchantID uuid.UUID, filter shared.Filter) ([]settlement.Settlement, int64, error) {
	base := r.db.WithContext(ctx).Model(&settlement.Settlement{}).
		Where("merchant_id = ?", merchantID).
		Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var records []settlement.Settlement
	if err := applyFilter(base, filter, SettlementSortFields).Find(&records).Error; err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// ExistsByMerchantAndDate checks whether a pair was already reconciled
func (r *GormSettlementRepository) ExistsByMerchantAndDate(ctx context.Context, merchantID uuid.UUID, date time.Time) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&settlement.Settlement{}).
		Where("merchant_id = ? AND settlement_date = ?", merchantID, settlement.DateOf(date)).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save writes one reconciliation record; a duplicate (merchant, date)
// pair surfaces as shared.ErrAlreadyExists
func (r *GormSettlementRepository) Save(ctx context.Context, record *settlement.Settlement) error {
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

var _ settlement.Repository = (*GormSettlementRepository)(nil)
