package settlement

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/trading/backend/internal/domain/shared"
)

// Status marks whether the two independent revenue derivations agreed
type Status string

const (
	StatusMatched    Status = "MATCHED"
	StatusMismatched Status = "MISMATCHED"
)

// Settlement is the per-merchant, per-day reconciliation record. It
// cross-checks order-derived net revenue (totalSales - totalRefunds)
// against ledger-derived balance movement (SALE sums - REFUND_OUT sums).
// A mismatch is recorded for an operator, never auto-corrected: surfacing
// drift between order status and ledger entries is the whole point.
type Settlement struct {
	shared.BaseEntity
	MerchantID     uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_settlement_merchant_date,priority:1"`
	SettlementDate time.Time       `gorm:"type:date;not null;uniqueIndex:idx_settlement_merchant_date,priority:2"`
	TotalSales     decimal.Decimal `gorm:"type:decimal(19,2);not null"`
	TotalRefunds   decimal.Decimal `gorm:"type:decimal(19,2);not null"`
	NetAmount      decimal.Decimal `gorm:"type:decimal(19,2);not null"`
	BalanceChange  decimal.Decimal `gorm:"type:decimal(19,2);not null"`
	Discrepancy    decimal.Decimal `gorm:"type:decimal(19,2);not null"`
	Status         Status          `gorm:"type:varchar(12);not null"`
}

// TableName returns the table name for GORM
func (Settlement) TableName() string {
	return "settlements"
}

// NewSettlement derives the reconciliation result from the two
// independently computed figures. netAmount and discrepancy are
// computed here so they cannot drift from their inputs.
func NewSettlement(merchantID uuid.UUID, date time.Time, totalSales, totalRefunds, balanceChange decimal.Decimal) (*Settlement, error) {
	if merchantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_MERCHANT", "Merchant ID cannot be empty")
	}

	netAmount := totalSales.Sub(totalRefunds)
	discrepancy := netAmount.Sub(balanceChange)

	status := StatusMatched
	if !discrepancy.IsZero() {
		status = StatusMismatched
	}

	return &Settlement{
		BaseEntity:     shared.NewBaseEntity(),
		MerchantID:     merchantID,
		SettlementDate: DateOf(date),
		TotalSales:     totalSales,
		TotalRefunds:   totalRefunds,
		NetAmount:      netAmount,
		BalanceChange:  balanceChange,
		Discrepancy:    discrepancy,
		Status:         status,
	}, nil
}

// IsMatched returns true when the derivations agreed exactly
func (s *Settlement) IsMatched() bool {
	return s.Status == StatusMatched
}

// DateOf truncates a timestamp to its calendar date in UTC
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DayRange returns the inclusive [00:00:00, 23:59:59.999999999] window
// for the calendar date of t
func DayRange(t time.Time) (start, end time.Time) {
	start = DateOf(t)
	end = start.Add(24*time.Hour - time.Nanosecond)
	return start, end
}
