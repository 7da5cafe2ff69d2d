package account

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/trading/backend/internal/domain/shared"
	"github.com/trading/backend/internal/domain/shared/valueobject"
)

// User represents a consumer account holding a cash balance.
// Balance mutations go through Credit/Debit so the non-negative
// invariant and version bump stay in one place.
type User struct {
	shared.BaseAggregateRoot
	Username string          `gorm:"uniqueIndex;not null"`
	Balance  decimal.Decimal `gorm:"type:decimal(19,2);not null;default:0"`
}

// TableName returns the table name for GORM
func (User) TableName() string {
	return "users"
}

// NewUser creates a new user account with a zero balance
func NewUser(username string) (*User, error) {
	if username == "" {
		return nil, shared.NewDomainError("INVALID_USERNAME", "Username cannot be empty")
	}

	return &User{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Username:          username,
		Balance:           decimal.Zero,
	}, nil
}

// Credit adds the amount to the user balance
func (u *User) Credit(amount valueobject.Money) error {
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Credit amount must be positive")
	}

	u.Balance = u.Balance.Add(amount.Amount())
	u.UpdatedAt = time.Now()
	u.IncrementVersion()

	return nil
}

// Debit subtracts the amount from the user balance.
// User balances are never allowed to go negative.
func (u *User) Debit(amount valueobject.Money) error {
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Debit amount must be positive")
	}
	if u.Balance.LessThan(amount.Amount()) {
		return shared.ErrInsufficientBalance
	}

	u.Balance = u.Balance.Sub(amount.Amount())
	u.UpdatedAt = time.Now()
	u.IncrementVersion()

	return nil
}

// CanAfford returns true if the balance covers the amount
func (u *User) CanAfford(amount decimal.Decimal) bool {
	return u.Balance.GreaterThanOrEqual(amount)
}

// GetBalanceMoney returns the balance as a Money value object
func (u *User) GetBalanceMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(u.Balance)
}
