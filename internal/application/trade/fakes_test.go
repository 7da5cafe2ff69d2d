package trade

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/trading/backend/internal/domain/account"
	"github.com/trading/backend/internal/domain/inventory"
	"github.com/trading/backend/internal/domain/ledger"
	"github.com/trading/backend/internal/domain/shared"
	"github.com/trading/backend/internal/domain/trade"
)

// The fakes below keep the repositories' contracts, most importantly the
// compare-and-swap in SaveWithVersion: the write lands only when the stored
// version equals Version-1, otherwise shared.ErrConcurrencyConflict. Reads
// hand out copies so a caller's mutations never leak into the store without
// an explicit save.

type memOrderRepo struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*trade.Order
}

func newMemOrderRepo() *memOrderRepo {
	return &memOrderRepo{orders: make(map[uuid.UUID]*trade.Order)}
}

func copyOrder(o *trade.Order) *trade.Order {
	dup := *o
	dup.Items = make([]trade.OrderItem, len(o.Items))
	copy(dup.Items, o.Items)
	return &dup
}

func (r *memOrderRepo) FindByID(_ context.Context, id uuid.UUID) (*trade.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return copyOrder(o), nil
}

func (r *memOrderRepo) FindByOrderNumber(_ context.Context, orderNumber string) (*trade.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.OrderNumber == orderNumber {
			return copyOrder(o), nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memOrderRepo) FindByUser(_ context.Context, userID uuid.UUID, _ shared.Filter) ([]trade.Order, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []trade.Order
	for _, o := range r.orders {
		if o.UserID == userID {
			out = append(out, *copyOrder(o))
		}
	}
	return out, int64(len(out)), nil
}

func (r *memOrderRepo) FindByMerchant(_ context.Context, merchantID uuid.UUID, _ shared.Filter) ([]trade.Order, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []trade.Order
	for _, o := range r.orders {
		if o.MerchantID == merchantID {
			out = append(out, *copyOrder(o))
		}
	}
	return out, int64(len(out)), nil
}

func (r *memOrderRepo) FindByMerchantAndStatus(_ context.Context, merchantID uuid.UUID, status trade.OrderStatus, _ shared.Filter) ([]trade.Order, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []trade.Order
	for _, o := range r.orders {
		if o.MerchantID == merchantID && o.Status == status {
			out = append(out, *copyOrder(o))
		}
	}
	return out, int64(len(out)), nil
}

func (r *memOrderRepo) FindByMerchantStatusAndRange(_ context.Context, merchantID uuid.UUID, status trade.OrderStatus, start, end time.Time) ([]trade.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []trade.Order
	for _, o := range r.orders {
		if o.MerchantID == merchantID && o.Status == status &&
			!o.CreatedAt.Before(start) && !o.CreatedAt.After(end) {
			out = append(out, *copyOrder(o))
		}
	}
	return out, nil
}

func (r *memOrderRepo) Save(_ context.Context, order *trade.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[order.ID] = copyOrder(order)
	return nil
}

func (r *memOrderRepo) SaveWithVersion(_ context.Context, order *trade.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.orders[order.ID]
	if !ok || stored.Version != order.Version-1 {
		return shared.ErrConcurrencyConflict
	}
	r.orders[order.ID] = copyOrder(order)
	return nil
}

type cartKey struct {
	userID uuid.UUID
	sku    string
}

type memCartRepo struct {
	mu    sync.Mutex
	lines map[cartKey]*trade.CartItem
}

func newMemCartRepo() *memCartRepo {
	return &memCartRepo{lines: make(map[cartKey]*trade.CartItem)}
}

func (r *memCartRepo) FindByUser(_ context.Context, userID uuid.UUID) ([]trade.CartItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []trade.CartItem
	for key, line := range r.lines {
		if key.userID == userID {
			out = append(out, *line)
		}
	}
	return out, nil
}

func (r *memCartRepo) FindByUserAndSKU(_ context.Context, userID uuid.UUID, sku string) (*trade.CartItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	line, ok := r.lines[cartKey{userID, sku}]
	if !ok {
		return nil, shared.ErrNotFound
	}
	dup := *line
	return &dup, nil
}

func (r *memCartRepo) Save(_ context.Context, item *trade.CartItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	dup := *item
	r.lines[cartKey{item.UserID, item.SKU}] = &dup
	return nil
}

func (r *memCartRepo) Delete(_ context.Context, userID uuid.UUID, sku string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.lines, cartKey{userID, sku})
	return nil
}

func (r *memCartRepo) DeleteByUser(_ context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key := range r.lines {
		if key.userID == userID {
			delete(r.lines, key)
		}
	}
	return nil
}

func (r *memCartRepo) count(userID uuid.UUID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for key := range r.lines {
		if key.userID == userID {
			n++
		}
	}
	return n
}

type memProductRepo struct {
	mu       sync.Mutex
	products map[uuid.UUID]*trade.Product
}

func newMemProductRepo() *memProductRepo {
	return &memProductRepo{products: make(map[uuid.UUID]*trade.Product)}
}

func (r *memProductRepo) FindByID(_ context.Context, id uuid.UUID) (*trade.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	dup := *p
	return &dup, nil
}

func (r *memProductRepo) ExistsByID(_ context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.products[id]
	return ok, nil
}

func (r *memProductRepo) Save(_ context.Context, product *trade.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	dup := *product
	r.products[product.ID] = &dup
	return nil
}

type memInventoryRepo struct {
	mu    sync.Mutex
	items map[string]*inventory.InventoryItem
}

func newMemInventoryRepo() *memInventoryRepo {
	return &memInventoryRepo{items: make(map[string]*inventory.InventoryItem)}
}

func (r *memInventoryRepo) FindByID(_ context.Context, id uuid.UUID) (*inventory.InventoryItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, item := range r.items {
		if item.ID == id {
			dup := *item
			return &dup, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memInventoryRepo) FindBySKU(_ context.Context, sku string) (*inventory.InventoryItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[sku]
	if !ok {
		return nil, shared.ErrNotFound
	}
	dup := *item
	return &dup, nil
}

func (r *memInventoryRepo) FindByMerchantAndSKU(_ context.Context, merchantID uuid.UUID, sku string) (*inventory.InventoryItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[sku]
	if !ok || item.MerchantID != merchantID {
		return nil, shared.ErrNotFound
	}
	dup := *item
	return &dup, nil
}

func (r *memInventoryRepo) FindByMerchant(_ context.Context, merchantID uuid.UUID, _ shared.Filter) ([]inventory.InventoryItem, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []inventory.InventoryItem
	for _, item := range r.items {
		if item.MerchantID == merchantID {
			out = append(out, *item)
		}
	}
	return out, int64(len(out)), nil
}

func (r *memInventoryRepo) FindByProduct(_ context.Context, productID uuid.UUID) ([]inventory.InventoryItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []inventory.InventoryItem
	for _, item := range r.items {
		if item.ProductID == productID {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (r *memInventoryRepo) ExistsBySKU(_ context.Context, sku string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.items[sku]
	return ok, nil
}

func (r *memInventoryRepo) Save(_ context.Context, item *inventory.InventoryItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	dup := *item
	r.items[item.SKU] = &dup
	return nil
}

func (r *memInventoryRepo) SaveWithVersion(_ context.Context, item *inventory.InventoryItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.items[item.SKU]
	if !ok || stored.Version != item.Version-1 {
		return shared.ErrConcurrencyConflict
	}
	dup := *item
	r.items[item.SKU] = &dup
	return nil
}

func (r *memInventoryRepo) quantity(sku string) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if item, ok := r.items[sku]; ok {
		return item.Quantity
	}
	return 0
}

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

func (r *memUserRepo) balance(id uuid.UUID) decimal.Decimal {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		return u.Balance
	}
	return decimal.Zero
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

func (r *memMerchantRepo) balance(id uuid.UUID) decimal.Decimal {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.merchants[id]; ok {
		return m.Balance
	}
	return decimal.Zero
}

type memLedgerRepo struct {
	mu      sync.Mutex
	records []ledger.TransactionRecord
}

func newMemLedgerRepo() *memLedgerRepo {
	return &memLedgerRepo{}
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

func (r *memLedgerRepo) byType(accountID uuid.UUID, txType ledger.TransactionType) []ledger.TransactionRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []ledger.TransactionRecord
	for _, rec := range r.records {
		if rec.AccountID == accountID && rec.Type == txType {
			out = append(out, rec)
		}
	}
	return out
}

func (r *memOrderRepo) snapshot() map[uuid.UUID]*trade.Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap := make(map[uuid.UUID]*trade.Order, len(r.orders))
	for id, o := range r.orders {
		snap[id] = copyOrder(o)
	}
	return snap
}

func (r *memOrderRepo) restore(snap map[uuid.UUID]*trade.Order) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders = snap
}

func (r *memCartRepo) snapshot() map[cartKey]*trade.CartItem {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap := make(map[cartKey]*trade.CartItem, len(r.lines))
	for key, line := range r.lines {
		dup := *line
		snap[key] = &dup
	}
	return snap
}

func (r *memCartRepo) restore(snap map[cartKey]*trade.CartItem) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = snap
}

func (r *memInventoryRepo) snapshot() map[string]*inventory.InventoryItem {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap := make(map[string]*inventory.InventoryItem, len(r.items))
	for sku, item := range r.items {
		dup := *item
		snap[sku] = &dup
	}
	return snap
}

func (r *memInventoryRepo) restore(snap map[string]*inventory.InventoryItem) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = snap
}

func (r *memUserRepo) snapshot() map[uuid.UUID]*account.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap := make(map[uuid.UUID]*account.User, len(r.users))
	for id, u := range r.users {
		dup := *u
		snap[id] = &dup
	}
	return snap
}

func (r *memUserRepo) restore(snap map[uuid.UUID]*account.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users = snap
}

func (r *memMerchantRepo) snapshot() map[uuid.UUID]*account.Merchant {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap := make(map[uuid.UUID]*account.Merchant, len(r.merchants))
	for id, m := range r.merchants {
		dup := *m
		snap[id] = &dup
	}
	return snap
}

func (r *memMerchantRepo) restore(snap map[uuid.UUID]*account.Merchant) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.merchants = snap
}

func (r *memLedgerRepo) snapshot() []ledger.TransactionRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap := make([]ledger.TransactionRecord, len(r.records))
	copy(snap, r.records)
	return snap
}

func (r *memLedgerRepo) restore(snap []ledger.TransactionRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = snap
}

// memTxScope gives the in-memory repositories real transaction semantics:
// units of work serialize behind one mutex, and a failed unit restores the
// snapshot taken at entry so no partial mutations survive.
type memTxScope struct {
	mu        sync.Mutex
	orders    *memOrderRepo
	carts     *memCartRepo
	inv       inventory.InventoryItemRepository
	invStore  *memInventoryRepo
	users     *memUserRepo
	merchants *memMerchantRepo
	ledgerRec *memLedgerRepo
}

func (s *memTxScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	orderSnap := s.orders.snapshot()
	cartSnap := s.carts.snapshot()
	invSnap := s.invStore.snapshot()
	userSnap := s.users.snapshot()
	merchSnap := s.merchants.snapshot()
	ledgerSnap := s.ledgerRec.snapshot()

	if err := fn(s); err != nil {
		s.orders.restore(orderSnap)
		s.carts.restore(cartSnap)
		s.invStore.restore(invSnap)
		s.users.restore(userSnap)
		s.merchants.restore(merchSnap)
		s.ledgerRec.restore(ledgerSnap)
		return err
	}
	return nil
}

func (s *memTxScope) Orders() trade.OrderRepository { return s.orders }

func (s *memTxScope) Carts() trade.CartItemRepository { return s.carts }

func (s *memTxScope) Inventory() inventory.InventoryItemRepository { return s.inv }

func (s *memTxScope) Users() account.UserRepository { return s.users }

func (s *memTxScope) Merchants() account.MerchantRepository { return s.merchants }

func (s *memTxScope) Ledger() ledger.TransactionRecordRepository { return s.ledgerRec }

// memIdempotencyStore mimics the Redis-backed store. forcedErr, when set,
// makes every call fail so degraded-store behavior can be exercised.
type memIdempotencyStore struct {
	mu        sync.Mutex
	processed map[string]bool
	forcedErr error
}

func newMemIdempotencyStore() *memIdempotencyStore {
	return &memIdempotencyStore{processed: make(map[string]bool)}
}

func (s *memIdempotencyStore) MarkProcessed(_ context.Context, key string, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.forcedErr != nil {
		return false, s.forcedErr
	}
	if s.processed[key] {
		return false, nil
	}
	s.processed[key] = true
	return true, nil
}

func (s *memIdempotencyStore) IsProcessed(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.forcedErr != nil {
		return false, s.forcedErr
	}
	return s.processed[key], nil
}

func (s *memIdempotencyStore) Close() error { return nil }
