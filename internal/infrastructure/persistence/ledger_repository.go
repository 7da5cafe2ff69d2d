package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/trading/backend/internal/domain/ledger"
	"github.com/trading/backend/internal/domain/shared"
)

// GormTransactionRecordRepository implements ledger.TransactionRecordRepository
// using GORM. The table is append-only; no update or delete path exists.
type GormTransactionRecordRepository struct {
	db *gorm.DB
}

// NewGormTransactionRecordRepository creates a new GormTransactionRecordRepository
func NewGormTransactionRecordRepository(db *gorm.DB) *GormTransactionRecordRepository {
	return &GormTransactionRecordRepository{db: db}
}

// Append writes one ledger entry
func (r *GormTransactionRecordRepository) Append(ctx context.Context, record *ledger.TransactionRecord) error {
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// FindByAccount finds an account's entries with the total count
func (r *GormTransactionRecordRepository) FindByAccount(ctx context.Context, accountType ledger.AccountType, accountID uuid.UUID, filter shared.Filter) ([]ledger.TransactionRecord, int64, error) {
	base := r.db.WithContext(ctx).Model(&ledger.TransactionRecord{}).
		Where("account_type = ? AND account_id = ?", accountType, accountID).
		Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var records []ledger.TransactionRecord
	if err := applyFilter(base, filter, LedgerSortFields).Find(&records).Error; err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// FindByOrder finds every entry an order produced, across both accounts
func (r *GormTransactionRecordRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]ledger.TransactionRecord, error) {
	var records []ledger.TransactionRecord
	if err := r.db.WithContext(ctx).
		Where("related_order_id = ?", orderID).
		Order("created_at ASC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// SumByAccountTypeAndRange sums Amount over one account's entries of
// one type within [start, end]. COALESCE keeps an empty day at zero
// instead of NULL.
func (r *GormTransactionRecordRepository) SumByAccountTypeAndRange(ctx context.Context, accountType ledger.AccountType, accountID uuid.UUID, txType ledger.TransactionType, start, end time.Time) (decimal.Decimal, error) {
	var sum decimal.Decimal
	if err := r.db.WithContext(ctx).Model(&ledger.TransactionRecord{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("account_type = ? AND account_id = ? AND type = ? AND created_at BETWEEN ? AND ?",
			accountType, accountID, txType, start, end).
		Scan(&sum).Error; err != nil {
		return decimal.Zero, err
	}
	return sum, nil
}

var _ ledger.TransactionRecordRepository = (*GormTransactionRecordRepository)(nil)
