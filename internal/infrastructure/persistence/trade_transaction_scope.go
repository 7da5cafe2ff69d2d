package persistence

import (
	"context"

	"gorm.io/gorm"

	apptrade "github.com/trading/backend/internal/application/trade"
	"github.com/trading/backend/internal/domain/account"
	"github.com/trading/backend/internal/domain/inventory"
	"github.com/trading/backend/internal/domain/ledger"
	"github.com/trading/backend/internal/domain/trade"
)

// GormTradeTransactionScope implements the trade TransactionScope using
// GORM transactions. Every repository handed to the function shares the
// same underlying transaction, so a payment's mutations commit or roll
// back as one.
type GormTradeTransactionScope struct {
	db *gorm.DB
}

// NewGormTradeTransactionScope creates a new GormTradeTransactionScope
func NewGormTradeTransactionScope(db *gorm.DB) *GormTradeTransactionScope {
	return &GormTradeTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
func (s *GormTradeTransactionScope) Execute(ctx context.Context, fn func(repos apptrade.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTradeRepositories{tx: tx})
	})
}

// gormTradeRepositories provides transaction-scoped repositories
type gormTradeRepositories struct {
	tx *gorm.DB
}

// Orders returns the order repository scoped to the current transaction
func (r *gormTradeRepositories) Orders() trade.OrderRepository {
	return NewGormOrderRepository(r.tx)
}

// Carts returns the cart repository scoped to the current transaction
func (r *gormTradeRepositories) Carts() trade.CartItemRepository {
	return NewGormCartItemRepository(r.tx)
}

// Inventory returns the inventory repository scoped to the current transaction
func (r *gormTradeRepositories) Inventory() inventory.InventoryItemRepository {
	return NewGormInventoryItemRepository(r.tx)
}

// Users returns the user repository scoped to the current transaction
func (r *gormTradeRepositories) Users() account.UserRepository {
	return NewGormUserRepository(r.tx)
}

// Merchants returns the merchant repository scoped to the current transaction
func (r *gormTradeRepositories) Merchants() account.MerchantRepository {
	return NewGormMerchantRepository(r.tx)
}

// Ledger returns the ledger repository scoped to the current transaction
func (r *gormTradeRepositories) Ledger() ledger.TransactionRecordRepository {
	return NewGormTransactionRecordRepository(r.tx)
}

var _ apptrade.TransactionScope = (*GormTradeTransactionScope)(nil)
var _ apptrade.TransactionalRepositories = (*gormTradeRepositories)(nil)
