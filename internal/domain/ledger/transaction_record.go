package ledger

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/trading/backend/internal/domain/shared"
	"github.com/trading/backend/internal/domain/shared/valueobject"
)

// AccountType identifies which side of the platform an entry belongs to
type AccountType string

const (
	AccountTypeUser     AccountType = "USER"
	AccountTypeMerchant AccountType = "MERCHANT"
)

// TransactionType classifies a balance-changing event
type TransactionType string

const (
	TransactionTypeDeposit   TransactionType = "DEPOSIT"
	TransactionTypePurchase  TransactionType = "PURCHASE"
	TransactionTypeSale      TransactionType = "SALE"
	TransactionTypeRefundIn  TransactionType = "REFUND_IN"
	TransactionTypeRefundOut TransactionType = "REFUND_OUT"
)

// IsValid checks if the transaction type is known
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeDeposit, TransactionTypePurchase, TransactionTypeSale,
		TransactionTypeRefundIn, TransactionTypeRefundOut:
		return true
	}
	return false
}

// TransactionRecord is one ledger entry: an append-only record of a single
// balance-changing event on a single account. Entries are never updated or
// deleted; the ledger is the independent source settlement reconciles
// against, so it must not be derived from mutable account state.
type TransactionRecord struct {
	shared.BaseEntity
	TransactionID  string          `gorm:"uniqueIndex;not null"`
	AccountType    AccountType     `gorm:"type:varchar(10);not null;index:idx_ledger_account,priority:1"`
	AccountID      uuid.UUID       `gorm:"type:uuid;not null;index:idx_ledger_account,priority:2"`
	Type           TransactionType `gorm:"type:varchar(15);not null;index"`
	Amount         decimal.Decimal `gorm:"type:decimal(19,2);not null"`
	BalanceBefore  decimal.Decimal `gorm:"type:decimal(19,2);not null"`
	BalanceAfter   decimal.Decimal `gorm:"type:decimal(19,2);not null"`
	RelatedOrderID *uuid.UUID      `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (TransactionRecord) TableName() string {
	return "transaction_records"
}

// NewTransactionRecord creates a ledger entry. Amount is always recorded
// non-negative; the direction is carried by the transaction type and by
// BalanceAfter - BalanceBefore.
func NewTransactionRecord(
	accountType AccountType,
	accountID uuid.UUID,
	txType TransactionType,
	amount valueobject.Money,
	balanceBefore, balanceAfter decimal.Decimal,
	relatedOrderID *uuid.UUID,
) (*TransactionRecord, error) {
	if accountID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ACCOUNT", "Account ID cannot be empty")
	}
	if !txType.IsValid() {
		return nil, shared.NewDomainError("INVALID_TRANSACTION_TYPE", "Unknown transaction type")
	}
	if amount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Transaction amount cannot be negative")
	}

	return &TransactionRecord{
		BaseEntity:     shared.NewBaseEntity(),
		TransactionID:  GenerateTransactionID(),
		AccountType:    accountType,
		AccountID:      accountID,
		Type:           txType,
		Amount:         amount.Amount(),
		BalanceBefore:  balanceBefore,
		BalanceAfter:   balanceAfter,
		RelatedOrderID: relatedOrderID,
	}, nil
}

// GenerateTransactionID produces a unique, human-auditable transaction id,
// e.g. TXN1710499353812AB12CD34.
func GenerateTransactionID() string {
	millis := strconv.FormatInt(time.Now().UnixMilli(), 10)
	random := strings.ToUpper(uuid.NewString()[:8])
	return "TXN" + millis + random
}
