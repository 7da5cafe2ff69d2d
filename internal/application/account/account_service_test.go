package account

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/trading/backend/internal/domain/account"
	"github.com/trading/backend/internal/domain/inventory"
	"github.com/trading/backend/internal/domain/ledger"
	"github.com/trading/backend/internal/domain/shared"
	"github.com/trading/backend/internal/domain/trade"
)

type memUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*account.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[uuid.UUID]*account.User)}
}

func (r *memUserRepo) FindByID(_ context.Context, id uuid.UUID) (*account.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	dup := *u
	return &dup, nil
}

func (r *memUserRepo) FindByUsername(_ context.Context, username string) (*account.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			dup := *u
			return &dup, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memUserRepo) Save(_ context.Context, user *account.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	dup := *user
	r.users[user.ID] = &dup
	return nil
}

func (r *memUserRepo) SaveWithVersion(_ context.Context, user *account.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.users[user.ID]
	if !ok || stored.Version != user.Version-1 {
		return shared.ErrConcurrencyConflict
	}
	dup := *user
	r.users[user.ID] = &dup
	return nil
}

type memMerchantRepo struct {
	mu        sync.Mutex
	merchants map[uuid.UUID]*account.Merchant
}

func newMemMerchantRepo() *memMerchantRepo {
	return &memMerchantRepo{merchants: make(map[uuid.UUID]*account.Merchant)}
}

func (r *memMerchantRepo) FindByID(_ context.Context, id uuid.UUID) (*account.Merchant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.merchants[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	dup := *m
	return &dup, nil
}

func (r *memMerchantRepo) FindByUsername(_ context.Context, username string) (*account.Merchant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.merchants {
		if m.Username == username {
			dup := *m
			return &dup, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memMerchantRepo) FindAll(_ context.Context) ([]account.Merchant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []account.Merchant
	for _, m := range r.merchants {
		out = append(out, *m)
	}
	return out, nil
}

func (r *memMerchantRepo) Save(_ context.Context, merchant *account.Merchant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	dup := *merchant
	r.merchants[merchant.ID] = &dup
	return nil
}

func (r *memMerchantRepo) SaveWithVersion(_ context.Context, merchant *account.Merchant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.merchants[merchant.ID]
	if !ok || stored.Version != merchant.Version-1 {
		return shared.ErrConcurrencyConflict
	}
	dup := *merchant
	r.merchants[merchant.ID] = &dup
	return nil
}

type memLedgerRepo struct {
	mu      sync.Mutex
	records []ledger.TransactionRecord
}

func (r *memLedgerRepo) Append(_ context.Context, record *ledger.TransactionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, *record)
	return nil
}

func (r *memLedgerRepo) FindByAccount(_ context.Context, accountType ledger.AccountType, accountID uuid.UUID, _ shared.Filter) ([]ledger.TransactionRecord, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []ledger.TransactionRecord
	for _, rec := range r.records {
		if rec.AccountType == accountType && rec.AccountID == accountID {
			out = append(out, rec)
		}
	}
	return out, int64(len(out)), nil
}

func (r *memLedgerRepo) FindByOrder(_ context.Context, orderID uuid.UUID) ([]ledger.TransactionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []ledger.TransactionRecord
	for _, rec := range r.records {
		if rec.RelatedOrderID != nil && *rec.RelatedOrderID == orderID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *memLedgerRepo) SumByAccountTypeAndRange(_ context.Context, accountType ledger.AccountType, accountID uuid.UUID, txType ledger.TransactionType, start, end time.Time) (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sum := decimal.Zero
	for _, rec := range r.records {
		if rec.AccountType == accountType && rec.AccountID == accountID && rec.Type == txType &&
			!rec.CreatedAt.Before(start) && !rec.CreatedAt.After(end) {
			sum = sum.Add(rec.Amount)
		}
	}
	return sum, nil
}

// statsInventoryRepo serves only the per-merchant count behind the
// stats query; everything else is inert.
type statsInventoryRepo struct {
	items []inventory.InventoryItem
}

func (r *statsInventoryRepo) FindByID(context.Context, uuid.UUID) (*inventory.InventoryItem, error) {
	return nil, shared.ErrNotFound
}

func (r *statsInventoryRepo) FindBySKU(context.Context, string) (*inventory.InventoryItem, error) {
	return nil, shared.ErrNotFound
}

func (r *statsInventoryRepo) FindByMerchantAndSKU(context.Context, uuid.UUID, string) (*inventory.InventoryItem, error) {
	return nil, shared.ErrNotFound
}

func (r *statsInventoryRepo) FindByMerchant(_ context.Context, merchantID uuid.UUID, _ shared.Filter) ([]inventory.InventoryItem, int64, error) {
	var n int64
	for _, item := range r.items {
		if item.MerchantID == merchantID {
			n++
		}
	}
	return nil, n, nil
}

func (r *statsInventoryRepo) FindByProduct(context.Context, uuid.UUID) ([]inventory.InventoryItem, error) {
	return nil, nil
}

func (r *statsInventoryRepo) ExistsBySKU(context.Context, string) (bool, error) {
	return false, nil
}

func (r *statsInventoryRepo) Save(context.Context, *inventory.InventoryItem) error {
	return nil
}

func (r *statsInventoryRepo) SaveWithVersion(context.Context, *inventory.InventoryItem) error {
	return nil
}

// statsOrderRepo serves only the per-merchant status count behind the
// stats query.
type statsOrderRepo struct {
	orders []trade.Order
}

func (r *statsOrderRepo) FindByID(context.Context, uuid.UUID) (*trade.Order, error) {
	return nil, shared.ErrNotFound
}

func (r *statsOrderRepo) FindByOrderNumber(context.Context, string) (*trade.Order, error) {
	return nil, shared.ErrNotFound
}

func (r *statsOrderRepo) FindByUser(context.Context, uuid.UUID, shared.Filter) ([]trade.Order, int64, error) {
	return nil, 0, nil
}

func (r *statsOrderRepo) FindByMerchant(context.Context, uuid.UUID, shared.Filter) ([]trade.Order, int64, error) {
	return nil, 0, nil
}

func (r *statsOrderRepo) FindByMerchantAndStatus(_ context.Context, merchantID uuid.UUID, status trade.OrderStatus, _ shared.Filter) ([]trade.Order, int64, error) {
	var n int64
	for _, order := range r.orders {
		if order.MerchantID == merchantID && order.Status == status {
			n++
		}
	}
	return nil, n, nil
}

func (r *statsOrderRepo) FindByMerchantStatusAndRange(context.Context, uuid.UUID, trade.OrderStatus, time.Time, time.Time) ([]trade.Order, error) {
	return nil, nil
}

func (r *statsOrderRepo) Save(context.Context, *trade.Order) error {
	return nil
}

func (r *statsOrderRepo) SaveWithVersion(context.Context, *trade.Order) error {
	return nil
}

type accountFixture struct {
	users     *memUserRepo
	merchants *memMerchantRepo
	ledger    *memLedgerRepo
	inv       *statsInventoryRepo
	orders    *statsOrderRepo
	service   *AccountService
}

func newAccountFixture() *accountFixture {
	fix := &accountFixture{
		users:     newMemUserRepo(),
		merchants: newMemMerchantRepo(),
		ledger:    &memLedgerRepo{},
		inv:       &statsInventoryRepo{},
		orders:    &statsOrderRepo{},
	}
	scope := NewNoOpTransactionScope(fix.users, fix.merchants, fix.ledger)
	fix.service = NewAccountService(scope, fix.users, fix.merchants, fix.ledger, fix.inv, fix.orders, zap.NewNop())
	return fix
}

func TestRegisterUser(t *testing.T) {
	fix := newAccountFixture()
	ctx := context.Background()

	resp, err := fix.service.RegisterUser(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", resp.Username)
	assert.True(t, resp.Balance.IsZero())

	_, err = fix.service.RegisterUser(ctx, "alice")
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)
}

func TestRegisterUserEmptyUsername(t *testing.T) {
	fix := newAccountFixture()

	_, err := fix.service.RegisterUser(context.Background(), "")
	require.Error(t, err)
}

func TestRegisterMerchant(t *testing.T) {
	fix := newAccountFixture()
	ctx := context.Background()

	resp, err := fix.service.RegisterMerchant(ctx, "Acme Trading", "acme")
	require.NoError(t, err)
	assert.Equal(t, "Acme Trading", resp.BusinessName)
	assert.True(t, resp.Balance.IsZero())

	_, err = fix.service.RegisterMerchant(ctx, "Acme Clone", "acme")
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)
}

func TestDeposit(t *testing.T) {
	fix := newAccountFixture()
	ctx := context.Background()
	user, err := fix.service.RegisterUser(ctx, "alice")
	require.NoError(t, err)

	resp, err := fix.service.Deposit(ctx, user.ID, decimal.RequireFromString("50.25"))
	require.NoError(t, err)
	assert.True(t, resp.Balance.Equal(decimal.RequireFromString("50.25")))

	resp, err = fix.service.Deposit(ctx, user.ID, decimal.RequireFromString("10.00"))
	require.NoError(t, err)
	assert.True(t, resp.Balance.Equal(decimal.RequireFromString("60.25")))

	// Each deposit is its own ledger entry, not tied to any order
	records, total, err := fix.ledger.FindByAccount(ctx, ledger.AccountTypeUser, user.ID, shared.DefaultFilter())
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	for _, rec := range records {
		assert.Equal(t, ledger.TransactionTypeDeposit, rec.Type)
		assert.Nil(t, rec.RelatedOrderID)
	}
	assert.True(t, records[0].BalanceBefore.IsZero())
	assert.True(t, records[0].BalanceAfter.Equal(decimal.RequireFromString("50.25")))
}

func TestDepositRejectsNonPositiveAmount(t *testing.T) {
	fix := newAccountFixture()
	ctx := context.Background()
	user, err := fix.service.RegisterUser(ctx, "alice")
	require.NoError(t, err)

	_, err = fix.service.Deposit(ctx, user.ID, decimal.Zero)
	require.Error(t, err)
	_, err = fix.service.Deposit(ctx, user.ID, decimal.RequireFromString("-5.00"))
	require.Error(t, err)

	fresh, err := fix.service.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, fresh.Balance.IsZero())
}

func TestDepositUnknownUser(t *testing.T) {
	fix := newAccountFixture()

	_, err := fix.service.Deposit(context.Background(), uuid.New(), decimal.RequireFromString("5.00"))
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

// conflictingUserRepo fails the first n version-checked saves
type conflictingUserRepo struct {
	*memUserRepo
	fails int
}

func (r *conflictingUserRepo) SaveWithVersion(ctx context.Context, user *account.User) error {
	if r.fails > 0 {
		r.fails--
		return shared.ErrConcurrencyConflict
	}
	return r.memUserRepo.SaveWithVersion(ctx, user)
}

func TestDepositRetriesAfterVersionConflict(t *testing.T) {
	users := newMemUserRepo()
	merchants := newMemMerchantRepo()
	ledgerRepo := &memLedgerRepo{}
	flaky := &conflictingUserRepo{memUserRepo: users, fails: 1}
	scope := NewNoOpTransactionScope(flaky, merchants, ledgerRepo)
	service := NewAccountService(scope, users, merchants, ledgerRepo, &statsInventoryRepo{}, &statsOrderRepo{}, zap.NewNop())

	user, err := service.RegisterUser(context.Background(), "alice")
	require.NoError(t, err)

	resp, err := service.Deposit(context.Background(), user.ID, decimal.RequireFromString("5.00"))
	require.NoError(t, err)
	assert.True(t, resp.Balance.Equal(decimal.RequireFromString("5.00")))
}

func TestDepositGivesUpAfterRepeatedConflicts(t *testing.T) {
	users := newMemUserRepo()
	merchants := newMemMerchantRepo()
	ledgerRepo := &memLedgerRepo{}
	flaky := &conflictingUserRepo{memUserRepo: users, fails: 100}
	scope := NewNoOpTransactionScope(flaky, merchants, ledgerRepo)
	service := NewAccountService(scope, users, merchants, ledgerRepo, &statsInventoryRepo{}, &statsOrderRepo{}, zap.NewNop())

	user, err := service.RegisterUser(context.Background(), "alice")
	require.NoError(t, err)

	_, err = service.Deposit(context.Background(), user.ID, decimal.RequireFromString("5.00"))
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
}

func TestGetTransactionsScopedToAccount(t *testing.T) {
	fix := newAccountFixture()
	ctx := context.Background()
	alice, err := fix.service.RegisterUser(ctx, "alice")
	require.NoError(t, err)
	bob, err := fix.service.RegisterUser(ctx, "bob")
	require.NoError(t, err)

	_, err = fix.service.Deposit(ctx, alice.ID, decimal.RequireFromString("5.00"))
	require.NoError(t, err)
	_, err = fix.service.Deposit(ctx, bob.ID, decimal.RequireFromString("7.00"))
	require.NoError(t, err)

	page, err := fix.service.GetTransactions(ctx, ledger.AccountTypeUser, alice.ID, shared.DefaultFilter())
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
	require.Len(t, page.Items, 1)
	assert.True(t, page.Items[0].Amount.Equal(decimal.RequireFromString("5.00")))
}

func TestGetMerchantStats(t *testing.T) {
	fix := newAccountFixture()
	ctx := context.Background()
	merchant, err := fix.service.RegisterMerchant(ctx, "Acme Trading", "acme")
	require.NoError(t, err)

	fix.inv.items = []inventory.InventoryItem{
		{MerchantID: merchant.ID},
		{MerchantID: merchant.ID},
		{MerchantID: uuid.New()},
	}
	fix.orders.orders = []trade.Order{
		{MerchantID: merchant.ID, Status: trade.OrderStatusPaid},
		{MerchantID: merchant.ID, Status: trade.OrderStatusPending},
		{MerchantID: uuid.New(), Status: trade.OrderStatusPaid},
	}

	stats, err := fix.service.GetMerchantStats(ctx, merchant.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.ProductCount)
	assert.Equal(t, int64(1), stats.PendingOrders)
}

func TestGetMerchantStatsUnknownMerchant(t *testing.T) {
	fix := newAccountFixture()

	_, err := fix.service.GetMerchantStats(context.Background(), uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGetMerchantNotFound(t *testing.T) {
	fix := newAccountFixture()

	_, err := fix.service.GetMerchant(context.Background(), uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
