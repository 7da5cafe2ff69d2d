package trade

import (
	"context"

	"github.com/trading/backend/internal/domain/account"
	"github.com/trading/backend/internal/domain/inventory"
	"github.com/trading/backend/internal/domain/ledger"
	"github.com/trading/backend/internal/domain/trade"
)

// TransactionScope provides transactional access to the repositories a
// payment or refund touches. When a function executes within a scope,
// all repository operations are part of the same database transaction
// and commit or roll back atomically. This is the unit of work: a CAS
// conflict or validation failure anywhere inside aborts every mutation
// performed in that call, so no reader ever observes a half-completed
// payment (partial inventory decrements included).
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to all repositories within a
// transaction. All repositories returned share the same underlying
// database transaction.
type TransactionalRepositories interface {
	Orders() trade.OrderRepository
	Carts() trade.CartItemRepository
	Inventory() inventory.InventoryItemRepository
	Users() account.UserRepository
	Merchants() account.MerchantRepository
	Ledger() ledger.TransactionRecordRepository
}

// NoOpTransactionScope runs the function without a real transaction.
// Useful for tests, where the in-memory repositories provide their own
// consistency.
type NoOpTransactionScope struct {
	orderRepo     trade.OrderRepository
	cartRepo      trade.CartItemRepository
	inventoryRepo inventory.InventoryItemRepository
	userRepo      account.UserRepository
	merchantRepo  account.MerchantRepository
	ledgerRepo    ledger.TransactionRecordRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope over the given repositories
func NewNoOpTransactionScope(
	orderRepo trade.OrderRepository,
	cartRepo trade.CartItemRepository,
	inventoryRepo inventory.InventoryItemRepository,
	userRepo account.UserRepository,
	merchantRepo account.MerchantRepository,
	ledgerRepo ledger.TransactionRecordRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		orderRepo:     orderRepo,
		cartRepo:      cartRepo,
		inventoryRepo: inventoryRepo,
		userRepo:      userRepo,
		merchantRepo:  merchantRepo,
		ledgerRepo:    ledgerRepo,
	}
}

// Execute runs the function without transactional guarantees
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// Orders returns the order repository
func (s *NoOpTransactionScope) Orders() trade.OrderRepository { return s.orderRepo }

// Carts returns the cart item repository
func (s *NoOpTransactionScope) Carts() trade.CartItemRepository { return s.cartRepo }

// Inventory returns the inventory item repository
func (s *NoOpTransactionScope) Inventory() inventory.InventoryItemRepository {
	return s.inventoryRepo
}

// Users returns the user account repository
func (s *NoOpTransactionScope) Users() account.UserRepository { return s.userRepo }

// Merchants returns the merchant account repository
func (s *NoOpTransactionScope) Merchants() account.MerchantRepository { return s.merchantRepo }

// Ledger returns the transaction record repository
func (s *NoOpTransactionScope) Ledger() ledger.TransactionRecordRepository { return s.ledgerRepo }

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
