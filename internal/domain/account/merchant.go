package account

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/trading/backend/internal/domain/shared"
	"github.com/trading/backend/internal/domain/shared/valueobject"
)

// Merchant represents a seller account accruing sales revenue.
// Unlike users, merchant balances may go negative: a refund must always
// succeed even when the merchant has already withdrawn accrued sales,
// so refund correctness takes priority over the non-negative invariant.
type Merchant struct {
	shared.BaseAggregateRoot
	BusinessName string          `gorm:"not null"`
	Username     string          `gorm:"uniqueIndex;not null"`
	Balance      decimal.Decimal `gorm:"type:decimal(19,2);not null;default:0"`
}

// TableName returns the table name for GORM
func (Merchant) TableName() string {
	return "merchants"
}

// NewMerchant creates a new merchant account with a zero balance
func NewMerchant(businessName, username string) (*Merchant, error) {
	if businessName == "" {
		return nil, shared.NewDomainError("INVALID_BUSINESS_NAME", "Business name cannot be empty")
	}
	if username == "" {
		return nil, shared.NewDomainError("INVALID_USERNAME", "Username cannot be empty")
	}

	return &Merchant{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		BusinessName:      businessName,
		Username:          username,
		Balance:           decimal.Zero,
	}, nil
}

// Credit adds the amount to the merchant balance
func (m *Merchant) Credit(amount valueobject.Money) error {
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Credit amount must be positive")
	}

	m.Balance = m.Balance.Add(amount.Amount())
	m.UpdatedAt = time.Now()
	m.IncrementVersion()

	return nil
}

// Debit subtracts the amount from the merchant balance.
// No floor check: the balance may go negative (see type comment).
func (m *Merchant) Debit(amount valueobject.Money) error {
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Debit amount must be positive")
	}

	m.Balance = m.Balance.Sub(amount.Amount())
	m.UpdatedAt = time.Now()
	m.IncrementVersion()

	return nil
}

// IsOverdrawn returns true if the balance has gone negative
func (m *Merchant) IsOverdrawn() bool {
	return m.Balance.LessThan(decimal.Zero)
}

// GetBalanceMoney returns the balance as a Money value object
func (m *Merchant) GetBalanceMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(m.Balance)
}
