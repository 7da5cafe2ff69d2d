package persistence

import (
	"context"

	"gorm.io/gorm"

	appaccount "github.com/trading/backend/internal/application/account"
	"github.com/trading/backend/internal/domain/account"
	"github.com/trading/backend/internal/domain/ledger"
)

// GormAccountTransactionScope implements the account TransactionScope
// using GORM transactions, covering a deposit's balance update and its
// ledger entry.
type GormAccountTransactionScope struct {
	db *gorm.DB
}

// NewGormAccountTransactionScope creates a new GormAccountTransactionScope
func NewGormAccountTransactionScope(db *gorm.DB) *GormAccountTransactionScope {
	return &GormAccountTransactionScope{db: db}
}

// Execute runs the given function within a database transaction
func (s *GormAccountTransactionScope) Execute(ctx context.Context, fn func(repos appaccount.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormAccountRepositories{tx: tx})
	})
}

// gormAccountRepositories provides transaction-scoped repositories
type gormAccountRepositories struct {
	tx *gorm.DB
}

// Users returns the user repository scoped to the current transaction
func (r *gormAccountRepositories) Users() account.UserRepository {
	return NewGormUserRepository(r.tx)
}

// Merchants returns the merchant repository scoped to the current transaction
func (r *gormAccountRepositories) Merchants() account.MerchantRepository {
	return NewGormMerchantRepository(r.tx)
}

// Ledger returns the ledger repository scoped to the current transaction
func (r *gormAccountRepositories) Ledger() ledger.TransactionRecordRepository {
	return NewGormTransactionRecordRepository(r.tx)
}

var _ appaccount.TransactionScope = (*GormAccountTransactionScope)(nil)
var _ appaccount.TransactionalRepositories = (*gormAccountRepositories)(nil)
