package settlement

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/trading/backend/internal/domain/settlement"
)

// SettlementResponse is the outward shape of one reconciliation record
type SettlementResponse struct {
	ID             uuid.UUID         `json:"id"`
	MerchantID     uuid.UUID         `json:"merchant_id"`
	SettlementDate time.Time         `json:"settlement_date"`
	TotalSales     decimal.Decimal   `json:"total_sales"`
	TotalRefunds   decimal.Decimal   `json:"total_refunds"`
	NetAmount      decimal.Decimal   `json:"net_amount"`
	BalanceChange  decimal.Decimal   `json:"balance_change"`
	Discrepancy    decimal.Decimal   `json:"discrepancy"`
	Status         settlement.Status `json:"status"`
	CreatedAt      time.Time         `json:"created_at"`
}

// ToSettlementResponse maps a settlement record to its response shape
func ToSettlementResponse(s *settlement.Settlement) SettlementResponse {
	return SettlementResponse{
		ID:             s.ID,
		MerchantID:     s.MerchantID,
		SettlementDate: s.SettlementDate,
		TotalSales:     s.TotalSales,
		TotalRefunds:   s.TotalRefunds,
		NetAmount:      s.NetAmount,
		BalanceChange:  s.BalanceChange,
		Discrepancy:    s.Discrepancy,
		Status:         s.Status,
		CreatedAt:      s.CreatedAt,
	}
}

// RunSummary reports the outcome of one daily batch run
type RunSummary struct {
	Date       time.Time `json:"date"`
	Merchants  int       `json:"merchants"`
	Succeeded  int       `json:"succeeded"`
	Failed     int       `json:"failed"`
	Mismatched int       `json:"mismatched"`
}
