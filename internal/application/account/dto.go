package account

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/trading/backend/internal/domain/account"
	"github.com/trading/backend/internal/domain/ledger"
)

// UserResponse is the outward shape of a user account
type UserResponse struct {
	ID        uuid.UUID       `json:"id"`
	Username  string          `json:"username"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
}

// ToUserResponse maps a user aggregate to its response shape
func ToUserResponse(user *account.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Balance:   user.Balance,
		CreatedAt: user.CreatedAt,
	}
}

// MerchantResponse is the outward shape of a merchant account
type MerchantResponse struct {
	ID           uuid.UUID       `json:"id"`
	BusinessName string          `json:"business_name"`
	Username     string          `json:"username"`
	Balance      decimal.Decimal `json:"balance"`
	CreatedAt    time.Time       `json:"created_at"`
}

// ToMerchantResponse maps a merchant aggregate to its response shape
func ToMerchantResponse(merchant *account.Merchant) MerchantResponse {
	return MerchantResponse{
		ID:           merchant.ID,
		BusinessName: merchant.BusinessName,
		Username:     merchant.Username,
		Balance:      merchant.Balance,
		CreatedAt:    merchant.CreatedAt,
	}
}

// MerchantStatsResponse summarizes a merchant's current activity
type MerchantStatsResponse struct {
	ProductCount  int64 `json:"product_count"`
	PendingOrders int64 `json:"pending_orders"`
}

// TransactionResponse is the outward shape of one ledger entry
type TransactionResponse struct {
	TransactionID  string                 `json:"transaction_id"`
	AccountType    ledger.AccountType     `json:"account_type"`
	AccountID      uuid.UUID              `json:"account_id"`
	Type           ledger.TransactionType `json:"type"`
	Amount         decimal.Decimal        `json:"amount"`
	BalanceBefore  decimal.Decimal        `json:"balance_before"`
	BalanceAfter   decimal.Decimal        `json:"balance_after"`
	RelatedOrderID *uuid.UUID             `json:"related_order_id,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
}

// ToTransactionResponse maps a ledger entry to its response shape
func ToTransactionResponse(record *ledger.TransactionRecord) TransactionResponse {
	return TransactionResponse{
		TransactionID:  record.TransactionID,
		AccountType:    record.AccountType,
		AccountID:      record.AccountID,
		Type:           record.Type,
		Amount:         record.Amount,
		BalanceBefore:  record.BalanceBefore,
		BalanceAfter:   record.BalanceAfter,
		RelatedOrderID: record.RelatedOrderID,
		CreatedAt:      record.CreatedAt,
	}
}
