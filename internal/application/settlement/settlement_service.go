package settlement

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/trading/backend/internal/domain/account"
	"github.com/trading/backend/internal/domain/ledger"
	"github.com/trading/backend/internal/domain/settlement"
	"github.com/trading/backend/internal/domain/shared"
	"github.com/trading/backend/internal/domain/trade"
)

// SettlementService reconciles each merchant's day. Two figures are
// derived independently and cross-checked: net revenue from order
// statuses (COMPLETED sales minus REFUNDED refunds) and balance
// movement from the ledger (SALE entries minus REFUND_OUT entries).
// They agree on a clean day; any drift is recorded as MISMATCHED for
// an operator to chase, never papered over.
type SettlementService struct {
	settlementRepo settlement.Repository
	orderRepo      trade.OrderRepository
	ledgerRepo     ledger.TransactionRecordRepository
	merchantRepo   account.MerchantRepository
	logger         *zap.Logger
}

// NewSettlementService creates a new SettlementService
func NewSettlementService(
	settlementRepo settlement.Repository,
	orderRepo trade.OrderRepository,
	ledgerRepo ledger.TransactionRecordRepository,
	merchantRepo account.MerchantRepository,
	logger *zap.Logger,
) *SettlementService {
	return &SettlementService{
		settlementRepo: settlementRepo,
		orderRepo:      orderRepo,
		ledgerRepo:     ledgerRepo,
		merchantRepo:   merchantRepo,
		logger:         logger,
	}
}

// RunForMerchant reconciles one merchant for one calendar date. Running
// it again for the same pair returns the already-stored record without
// recomputing; results are immutable once written.
func (s *SettlementService) RunForMerchant(ctx context.Context, merchantID uuid.UUID, date time.Time) (*SettlementResponse, error) {
	existing, err := s.settlementRepo.FindByMerchantAndDate(ctx, merchantID, date)
	if err == nil {
		resp := ToSettlementResponse(existing)
		return &resp, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	start, end := settlement.DayRange(date)

	totalSales, err := s.sumOrders(ctx, merchantID, trade.OrderStatusCompleted, start, end)
	if err != nil {
		return nil, err
	}
	totalRefunds, err := s.sumOrders(ctx, merchantID, trade.OrderStatusRefunded, start, end)
	if err != nil {
		return nil, err
	}

	sales, err := s.ledgerRepo.SumByAccountTypeAndRange(ctx,
		ledger.AccountTypeMerchant, merchantID, ledger.TransactionTypeSale, start, end)
	if err != nil {
		return nil, err
	}
	refundsOut, err := s.ledgerRepo.SumByAccountTypeAndRange(ctx,
		ledger.AccountTypeMerchant, merchantID, ledger.TransactionTypeRefundOut, start, end)
	if err != nil {
		return nil, err
	}
	balanceChange := sales.Sub(refundsOut)

	record, err := settlement.NewSettlement(merchantID, date, totalSales, totalRefunds, balanceChange)
	if err != nil {
		return nil, err
	}

	if err := s.settlementRepo.Save(ctx, record); err != nil {
		// A concurrent run already stored this pair; its result stands
		if errors.Is(err, shared.ErrAlreadyExists) {
			stored, ferr := s.settlementRepo.FindByMerchantAndDate(ctx, merchantID, date)
			if ferr != nil {
				return nil, ferr
			}
			resp := ToSettlementResponse(stored)
			return &resp, nil
		}
		return nil, err
	}

	if record.IsMatched() {
		s.logger.Info("settlement matched",
			zap.String("merchant_id", merchantID.String()),
			zap.Time("date", record.SettlementDate),
			zap.String("net_amount", record.NetAmount.String()))
	} else {
		s.logger.Warn("settlement mismatched",
			zap.String("merchant_id", merchantID.String()),
			zap.Time("date", record.SettlementDate),
			zap.String("net_amount", record.NetAmount.String()),
			zap.String("balance_change", record.BalanceChange.String()),
			zap.String("discrepancy", record.Discrepancy.String()))
	}

	resp := ToSettlementResponse(record)
	return &resp, nil
}

func (s *SettlementService) sumOrders(ctx context.Context, merchantID uuid.UUID, status trade.OrderStatus, start, end time.Time) (decimal.Decimal, error) {
	orders, err := s.orderRepo.FindByMerchantStatusAndRange(ctx, merchantID, status, start, end)
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for i := range orders {
		total = total.Add(orders[i].TotalAmount)
	}
	return total, nil
}

// RunDaily reconciles every merchant for the given date. One merchant
// failing never aborts the batch; the failure is logged and the run
// moves on. The returned summary counts outcomes.
func (s *SettlementService) RunDaily(ctx context.Context, date time.Time) (*RunSummary, error) {
	merchants, err := s.merchantRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	summary := &RunSummary{
		Date:      settlement.DateOf(date),
		Merchants: len(merchants),
	}

	for i := range merchants {
		merchantID := merchants[i].ID
		resp, err := s.RunForMerchant(ctx, merchantID, date)
		if err != nil {
			summary.Failed++
			s.logger.Error("settlement run failed for merchant",
				zap.String("merchant_id", merchantID.String()),
				zap.Time("date", summary.Date),
				zap.Error(err))
			continue
		}

		summary.Succeeded++
		if resp.Status == settlement.StatusMismatched {
			summary.Mismatched++
		}
	}

	s.logger.Info("daily settlement run finished",
		zap.Time("date", summary.Date),
		zap.Int("merchants", summary.Merchants),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
		zap.Int("mismatched", summary.Mismatched))

	return summary, nil
}

// GetByMerchantAndDate returns one stored reconciliation record
func (s *SettlementService) GetByMerchantAndDate(ctx context.Context, merchantID uuid.UUID, date time.Time) (*SettlementResponse, error) {
	record, err := s.settlementRepo.FindByMerchantAndDate(ctx, merchantID, date)
	if err != nil {
		return nil, err
	}
	resp := ToSettlementResponse(record)
	return &resp, nil
}

// ListByMerchant returns a merchant's reconciliation history
func (s *SettlementService) ListByMerchant(ctx context.Context, merchantID uuid.UUID, filter shared.Filter) (*shared.Paginated[SettlementResponse], error) {
	records, total, err := s.settlementRepo.FindByMerchant(ctx, merchantID, filter)
	if err != nil {
		return nil, err
	}

	responses := make([]SettlementResponse, 0, len(records))
	for i := range records {
		responses = append(responses, ToSettlementResponse(&records[i]))
	}

	page := shared.NewPaginated(responses, total, filter.Page, filter.PageSize)
	return &page, nil
}
