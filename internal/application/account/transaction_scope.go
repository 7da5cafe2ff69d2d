package account

import (
	"context"

	"github.com/trading/backend/internal/domain/account"
	"github.com/trading/backend/internal/domain/ledger"
)

// TransactionScope provides transactional access to the repositories a
// deposit touches: the balance update and its ledger entry commit or
// roll back together.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the account-side
// repositories within one transaction
type TransactionalRepositories interface {
	Users() account.UserRepository
	Merchants() account.MerchantRepository
	Ledger() ledger.TransactionRecordRepository
}

// NoOpTransactionScope runs the function without a real transaction,
// for tests backed by in-memory repositories.
type NoOpTransactionScope struct {
	userRepo     account.UserRepository
	merchantRepo account.MerchantRepository
	ledgerRepo   ledger.TransactionRecordRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope over the given repositories
func NewNoOpTransactionScope(
	userRepo account.UserRepository,
	merchantRepo account.MerchantRepository,
	ledgerRepo ledger.TransactionRecordRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		userRepo:     userRepo,
		merchantRepo: merchantRepo,
		ledgerRepo:   ledgerRepo,
	}
}

// Execute runs the function without transactional guarantees
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// Users returns the user account repository
func (s *NoOpTransactionScope) Users() account.UserRepository { return s.userRepo }

// Merchants returns the merchant account repository
func (s *NoOpTransactionScope) Merchants() account.MerchantRepository { return s.merchantRepo }

// Ledger returns the transaction record repository
func (s *NoOpTransactionScope) Ledger() ledger.TransactionRecordRepository { return s.ledgerRepo }

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
