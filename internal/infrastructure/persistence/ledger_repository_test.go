package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trading/backend/internal/domain/ledger"
	"github.com/trading/backend/internal/domain/shared"
	"github.com/trading/backend/internal/domain/shared/valueobject"
)

func appendEntry(t *testing.T, repo *GormTransactionRecordRepository, accountID uuid.UUID, txType ledger.TransactionType, amount string, orderID *uuid.UUID) *ledger.TransactionRecord {
	t.Helper()
	money, err := valueobject.NewMoneyUSDFromString(amount)
	require.NoError(t, err)
	rec, err := ledger.NewTransactionRecord(
		ledger.AccountTypeMerchant, accountID, txType,
		money, decimal.Zero, money.Amount(), orderID)
	require.NoError(t, err)
	require.NoError(t, repo.Append(context.Background(), rec))
	return rec
}

func TestLedgerRepositoryAppendAndFind(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormTransactionRecordRepository(db)
	ctx := context.Background()
	accountID := uuid.New()

	appendEntry(t, repo, accountID, ledger.TransactionTypeSale, "30.00", nil)
	appendEntry(t, repo, accountID, ledger.TransactionTypeRefundOut, "10.00", nil)
	appendEntry(t, repo, uuid.New(), ledger.TransactionTypeSale, "99.00", nil)

	records, total, err := repo.FindByAccount(ctx, ledger.AccountTypeMerchant, accountID, shared.DefaultFilter())
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, records, 2)
}

func TestLedgerRepositoryFindByOrder(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormTransactionRecordRepository(db)
	ctx := context.Background()
	orderID := uuid.New()

	appendEntry(t, repo, uuid.New(), ledger.TransactionTypeSale, "30.00", &orderID)
	appendEntry(t, repo, uuid.New(), ledger.TransactionTypePurchase, "30.00", &orderID)
	appendEntry(t, repo, uuid.New(), ledger.TransactionTypeSale, "5.00", nil)

	records, err := repo.FindByOrder(ctx, orderID)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestLedgerRepositorySumByAccountTypeAndRange(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormTransactionRecordRepository(db)
	ctx := context.Background()
	accountID := uuid.New()

	day := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	inWindow := appendEntry(t, repo, accountID, ledger.TransactionTypeSale, "30.00", nil)
	require.NoError(t, db.Model(&ledger.TransactionRecord{}).Where("id = ?", inWindow.ID).
		Update("created_at", day.Add(9*time.Hour)).Error)
	alsoIn := appendEntry(t, repo, accountID, ledger.TransactionTypeSale, "12.00", nil)
	require.NoError(t, db.Model(&ledger.TransactionRecord{}).Where("id = ?", alsoIn.ID).
		Update("created_at", day.Add(15*time.Hour)).Error)

	// Wrong type, wrong account and wrong day all stay out of the sum
	appendEntry(t, repo, accountID, ledger.TransactionTypeRefundOut, "7.00", nil)
	dayAfter := appendEntry(t, repo, accountID, ledger.TransactionTypeSale, "50.00", nil)
	require.NoError(t, db.Model(&ledger.TransactionRecord{}).Where("id = ?", dayAfter.ID).
		Update("created_at", day.AddDate(0, 0, 1).Add(time.Hour)).Error)
	appendEntry(t, repo, uuid.New(), ledger.TransactionTypeSale, "100.00", nil)

	start := day
	end := day.Add(24*time.Hour - time.Nanosecond)
	sum, err := repo.SumByAccountTypeAndRange(ctx,
		ledger.AccountTypeMerchant, accountID, ledger.TransactionTypeSale, start, end)
	require.NoError(t, err)
	assert.True(t, sum.Equal(decimal.RequireFromString("42.00")), "sum %s", sum)
}

func TestLedgerRepositorySumEmptyRange(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormTransactionRecordRepository(db)

	sum, err := repo.SumByAccountTypeAndRange(context.Background(),
		ledger.AccountTypeMerchant, uuid.New(), ledger.TransactionTypeSale,
		time.Now().Add(-time.Hour), time.Now())
	require.NoError(t, err)
	assert.True(t, sum.IsZero())
}
