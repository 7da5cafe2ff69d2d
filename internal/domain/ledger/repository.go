package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/trading/backend/internal/domain/shared"
)

// TransactionRecordRepository is append-only: records are written once
// and never updated or deleted.
type TransactionRecordRepository interface {
	Append(ctx context.Context, record *TransactionRecord) error
	FindByAccount(ctx context.Context, accountType AccountType, accountID uuid.UUID, filter shared.Filter) ([]TransactionRecord, int64, error)
	FindByOrder(ctx context.Context, orderID uuid.UUID) ([]TransactionRecord, error)
	// SumByAccountTypeAndRange sums Amount over entries of the given type for
	// one account within [start, end]; settlement derives merchant balance
	// movement from this, independently of the mutable balance column.
	SumByAccountTypeAndRange(ctx context.Context, accountType AccountType, accountID uuid.UUID, txType TransactionType, start, end time.Time) (decimal.Decimal, error)
}
