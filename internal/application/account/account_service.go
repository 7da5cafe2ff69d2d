package account

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/trading/backend/internal/domain/account"
	"github.com/trading/backend/internal/domain/inventory"
	"github.com/trading/backend/internal/domain/ledger"
	"github.com/trading/backend/internal/domain/shared"
	"github.com/trading/backend/internal/domain/shared/valueobject"
	"github.com/trading/backend/internal/domain/trade"
)

const defaultMaxDepositRetries = 3

// AccountService registers users and merchants and handles deposits.
// A deposit is the only balance change that does not go through an
// order, and it still writes its own ledger entry so the ledger stays
// the complete record of every balance movement.
type AccountService struct {
	txScope       TransactionScope
	userRepo      account.UserRepository
	merchantRepo  account.MerchantRepository
	ledgerRepo    ledger.TransactionRecordRepository
	inventoryRepo inventory.InventoryItemRepository
	orderRepo     trade.OrderRepository
	logger        *zap.Logger
	maxRetries    int
}

// NewAccountService creates a new AccountService
func NewAccountService(
	txScope TransactionScope,
	userRepo account.UserRepository,
	merchantRepo account.MerchantRepository,
	ledgerRepo ledger.TransactionRecordRepository,
	inventoryRepo inventory.InventoryItemRepository,
	orderRepo trade.OrderRepository,
	logger *zap.Logger,
) *AccountService {
	return &AccountService{
		txScope:       txScope,
		userRepo:      userRepo,
		merchantRepo:  merchantRepo,
		ledgerRepo:    ledgerRepo,
		inventoryRepo: inventoryRepo,
		orderRepo:     orderRepo,
		logger:        logger,
		maxRetries:    defaultMaxDepositRetries,
	}
}

// RegisterUser creates a user account with a zero balance. Usernames
// are unique across users.
func (s *AccountService) RegisterUser(ctx context.Context, username string) (*UserResponse, error) {
	if _, err := s.userRepo.FindByUsername(ctx, username); err == nil {
		return nil, shared.ErrAlreadyExists
	} else if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	user, err := account.NewUser(username)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered",
		zap.String("user_id", user.ID.String()),
		zap.String("username", username))

	resp := ToUserResponse(user)
	return &resp, nil
}

// RegisterMerchant creates a merchant account with a zero balance
func (s *AccountService) RegisterMerchant(ctx context.Context, businessName, username string) (*MerchantResponse, error) {
	if _, err := s.merchantRepo.FindByUsername(ctx, username); err == nil {
		return nil, shared.ErrAlreadyExists
	} else if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	merchant, err := account.NewMerchant(businessName, username)
	if err != nil {
		return nil, err
	}
	if err := s.merchantRepo.Save(ctx, merchant); err != nil {
		return nil, err
	}

	s.logger.Info("merchant registered",
		zap.String("merchant_id", merchant.ID.String()),
		zap.String("business_name", businessName))

	resp := ToMerchantResponse(merchant)
	return &resp, nil
}

// Deposit adds funds to a user account and appends the matching DEPOSIT
// ledger entry in the same transaction. Version conflicts retry from a
// fresh read.
func (s *AccountService) Deposit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (*UserResponse, error) {
	money, err := valueobject.NewMoney(amount, valueobject.USD)
	if err != nil {
		return nil, err
	}
	if !money.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Deposit amount must be positive")
	}

	var (
		updated *account.User
		lastErr error
	)

	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		updated, lastErr = s.depositOnce(ctx, userID, money)
		if lastErr == nil {
			break
		}
		if !errors.Is(lastErr, shared.ErrConcurrencyConflict) {
			return nil, lastErr
		}
		s.logger.Debug("deposit hit version conflict, retrying",
			zap.String("user_id", userID.String()),
			zap.Int("attempt", attempt))
	}
	if lastErr != nil {
		return nil, lastErr
	}

	s.logger.Info("deposit applied",
		zap.String("user_id", userID.String()),
		zap.String("amount", money.String()),
		zap.String("balance", updated.Balance.String()))

	resp := ToUserResponse(updated)
	return &resp, nil
}

func (s *AccountService) depositOnce(ctx context.Context, userID uuid.UUID, amount valueobject.Money) (*account.User, error) {
	var updated *account.User

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		user, err := repos.Users().FindByID(ctx, userID)
		if err != nil {
			return err
		}

		before := user.Balance
		if err := user.Credit(amount); err != nil {
			return err
		}
		if err := repos.Users().SaveWithVersion(ctx, user); err != nil {
			return err
		}

		record, err := ledger.NewTransactionRecord(
			ledger.AccountTypeUser, user.ID, ledger.TransactionTypeDeposit,
			amount, before, user.Balance, nil)
		if err != nil {
			return err
		}
		if err := repos.Ledger().Append(ctx, record); err != nil {
			return err
		}

		updated = user
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// GetUser returns one user account
func (s *AccountService) GetUser(ctx context.Context, userID uuid.UUID) (*UserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := ToUserResponse(user)
	return &resp, nil
}

// GetMerchant returns one merchant account
func (s *AccountService) GetMerchant(ctx context.Context, merchantID uuid.UUID) (*MerchantResponse, error) {
	merchant, err := s.merchantRepo.FindByID(ctx, merchantID)
	if err != nil {
		return nil, err
	}
	resp := ToMerchantResponse(merchant)
	return &resp, nil
}

// GetMerchantStats returns headline numbers for a merchant dashboard:
// how many stock lines the merchant carries and how many PAID orders
// await shipment.
func (s *AccountService) GetMerchantStats(ctx context.Context, merchantID uuid.UUID) (*MerchantStatsResponse, error) {
	if _, err := s.merchantRepo.FindByID(ctx, merchantID); err != nil {
		return nil, err
	}

	countOnly := shared.Filter{Page: 1, PageSize: 1}
	_, productCount, err := s.inventoryRepo.FindByMerchant(ctx, merchantID, countOnly)
	if err != nil {
		return nil, err
	}
	_, pendingOrders, err := s.orderRepo.FindByMerchantAndStatus(ctx, merchantID, trade.OrderStatusPaid, countOnly)
	if err != nil {
		return nil, err
	}

	return &MerchantStatsResponse{
		ProductCount:  productCount,
		PendingOrders: pendingOrders,
	}, nil
}

// GetTransactions returns an account's ledger entries, newest first by
// default
func (s *AccountService) GetTransactions(ctx context.Context, accountType ledger.AccountType, accountID uuid.UUID, filter shared.Filter) (*shared.Paginated[TransactionResponse], error) {
	records, total, err := s.ledgerRepo.FindByAccount(ctx, accountType, accountID, filter)
	if err != nil {
		return nil, err
	}

	responses := make([]TransactionResponse, 0, len(records))
	for i := range records {
		responses = append(responses, ToTransactionResponse(&records[i]))
	}

	page := shared.NewPaginated(responses, total, filter.Page, filter.PageSize)
	return &page, nil
}
