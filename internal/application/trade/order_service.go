package trade

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/trading/backend/internal/domain/account"
	"github.com/trading/backend/internal/domain/inventory"
	"github.com/trading/backend/internal/domain/ledger"
	"github.com/trading/backend/internal/domain/shared"
	"github.com/trading/backend/internal/domain/trade"
)

// DefaultMaxPaymentRetries bounds how many attempts a payment or refund
// gets after version conflicts before the conflict is surfaced to the
// caller as shared.ErrConcurrencyConflict.
const DefaultMaxPaymentRetries = 3

// idempotencyKeyPrefix namespaces payment keys in the shared store
const idempotencyKeyPrefix = "pay:"

// OrderService drives the order lifecycle. Payments and refunds run as
// a single unit of work through the transaction scope: every inventory
// decrement, balance mutation, ledger append and status change of one
// attempt commits together or not at all. A version conflict retries
// the whole attempt from fresh reads, never resuming mid-way.
type OrderService struct {
	txScope        TransactionScope
	orderRepo      trade.OrderRepository
	cartRepo       trade.CartItemRepository
	productRepo    trade.ProductRepository
	inventoryRepo  inventory.InventoryItemRepository
	userRepo       account.UserRepository
	idempotency    shared.IdempotencyStore
	idempotencyCfg shared.IdempotencyConfig
	logger         *zap.Logger
	maxRetries     int
}

// NewOrderService creates a new OrderService. Idempotent payment
// handling is off until UseIdempotencyStore is called.
func NewOrderService(
	txScope TransactionScope,
	orderRepo trade.OrderRepository,
	cartRepo trade.CartItemRepository,
	productRepo trade.ProductRepository,
	inventoryRepo inventory.InventoryItemRepository,
	userRepo account.UserRepository,
	logger *zap.Logger,
) *OrderService {
	return &OrderService{
		txScope:        txScope,
		orderRepo:      orderRepo,
		cartRepo:       cartRepo,
		productRepo:    productRepo,
		inventoryRepo:  inventoryRepo,
		userRepo:       userRepo,
		idempotencyCfg: shared.DefaultIdempotencyConfig(),
		logger:         logger,
		maxRetries:     DefaultMaxPaymentRetries,
	}
}

// UseIdempotencyStore enables duplicate-payment suppression backed by
// the given store
func (s *OrderService) UseIdempotencyStore(store shared.IdempotencyStore, cfg shared.IdempotencyConfig) {
	s.idempotency = store
	s.idempotencyCfg = cfg
}

// SetMaxRetries overrides the conflict retry budget
func (s *OrderService) SetMaxRetries(n int) {
	if n > 0 {
		s.maxRetries = n
	}
}

// CreateFromCart creates a PENDING order from the user's current cart.
// Product names and unit prices are snapshotted from the catalog and
// inventory at this moment. Stock is checked but not reserved; the cart
// itself is only cleared once the order is actually paid.
func (s *OrderService) CreateFromCart(ctx context.Context, userID uuid.UUID) (*OrderResponse, error) {
	if _, err := s.userRepo.FindByID(ctx, userID); err != nil {
		return nil, err
	}

	lines, err := s.cartRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, shared.NewDomainError("INVALID_OPERATION", "Cart is empty")
	}

	requests := make([]OrderItemRequest, 0, len(lines))
	for _, line := range lines {
		requests = append(requests, OrderItemRequest{SKU: line.SKU, Quantity: line.Quantity})
	}

	return s.create(ctx, userID, requests, true)
}

// CreateDirect creates a PENDING order straight from the given lines,
// bypassing the cart
func (s *OrderService) CreateDirect(ctx context.Context, userID uuid.UUID, items []OrderItemRequest) (*OrderResponse, error) {
	if _, err := s.userRepo.FindByID(ctx, userID); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Order must contain at least one item")
	}

	return s.create(ctx, userID, items, false)
}

func (s *OrderService) create(ctx context.Context, userID uuid.UUID, items []OrderItemRequest, fromCart bool) (*OrderResponse, error) {
	var (
		merchantID uuid.UUID
		order      *trade.Order
	)

	for _, req := range items {
		item, err := s.inventoryRepo.FindBySKU(ctx, req.SKU)
		if err != nil {
			return nil, err
		}

		// One order settles against exactly one merchant
		if merchantID == uuid.Nil {
			merchantID = item.MerchantID
			order, err = trade.NewOrder(userID, merchantID, fromCart)
			if err != nil {
				return nil, err
			}
		} else if item.MerchantID != merchantID {
			return nil, shared.NewDomainError("INVALID_OPERATION",
				"All items in an order must belong to the same merchant")
		}

		if !item.CanFulfill(req.Quantity) {
			return nil, shared.ErrInsufficientStock
		}

		product, err := s.productRepo.FindByID(ctx, item.ProductID)
		if err != nil {
			return nil, err
		}

		if _, err := order.AddItem(item.SKU, product.Name, req.Quantity, item.GetPriceMoney()); err != nil {
			return nil, err
		}
	}

	if err := s.orderRepo.Save(ctx, order); err != nil {
		return nil, err
	}

	s.logger.Info("order created",
		zap.String("order_number", order.OrderNumber),
		zap.String("user_id", userID.String()),
		zap.String("merchant_id", merchantID.String()),
		zap.Int("items", order.ItemCount()),
		zap.String("total", order.TotalAmount.String()))

	resp := ToOrderResponse(order)
	return &resp, nil
}

// Pay settles a PENDING order: stock is decremented, the buyer is
// debited, the merchant is credited, and one ledger entry is appended
// per account, all in one transaction. Version conflicts retry the
// whole attempt from fresh reads up to the retry budget. Insufficient
// stock or balance cancels the order and returns the business error;
// the failed attempt itself leaves no partial mutations behind.
//
// idempotencyKey may be empty. When set and already seen, the payment
// is not re-executed and the order's current state is returned.
func (s *OrderService) Pay(ctx context.Context, orderID uuid.UUID, idempotencyKey string) (*OrderResponse, error) {
	if dup, resp, err := s.checkDuplicatePayment(ctx, orderID, idempotencyKey); dup || err != nil {
		return resp, err
	}

	var (
		paid    *trade.Order
		lastErr error
	)

	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		paid, lastErr = s.payOnce(ctx, orderID)
		if lastErr == nil {
			break
		}

		if errors.Is(lastErr, shared.ErrConcurrencyConflict) {
			s.logger.Debug("payment hit version conflict, retrying",
				zap.String("order_id", orderID.String()),
				zap.Int("attempt", attempt))
			continue
		}

		if errors.Is(lastErr, shared.ErrInsufficientBalance) || errors.Is(lastErr, shared.ErrInsufficientStock) {
			s.cancelAfterFailedPayment(ctx, orderID, lastErr)
		}

		return nil, lastErr
	}

	if lastErr != nil {
		s.logger.Warn("payment gave up after repeated version conflicts",
			zap.String("order_id", orderID.String()),
			zap.Int("attempts", s.maxRetries))
		return nil, lastErr
	}

	s.markPaymentProcessed(ctx, idempotencyKey)

	s.logger.Info("order paid",
		zap.String("order_number", paid.OrderNumber),
		zap.String("order_id", paid.ID.String()),
		zap.String("total", paid.TotalAmount.String()))

	resp := ToOrderResponse(paid)
	return &resp, nil
}

func (s *OrderService) payOnce(ctx context.Context, orderID uuid.UUID) (*trade.Order, error) {
	var paid *trade.Order

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		order, err := repos.Orders().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if order.Status != trade.OrderStatusPending {
			return shared.NewDomainError("INVALID_OPERATION",
				fmt.Sprintf("Cannot pay order in status %s", order.Status))
		}

		user, err := repos.Users().FindByID(ctx, order.UserID)
		if err != nil {
			return err
		}
		merchant, err := repos.Merchants().FindByID(ctx, order.MerchantID)
		if err != nil {
			return err
		}

		total := order.GetTotalAmountMoney()

		// Balance is checked before any stock is touched so a buyer who
		// cannot pay never causes inventory writes, and a doubly-doomed
		// payment reports the balance shortfall. The Debit below remains
		// the authoritative check.
		if !user.CanAfford(total.Amount()) {
			return shared.ErrInsufficientBalance
		}

		for i := range order.Items {
			line := &order.Items[i]
			item, err := repos.Inventory().FindBySKU(ctx, line.SKU)
			if err != nil {
				return err
			}
			if err := item.Decrement(line.Quantity); err != nil {
				return err
			}
			if err := repos.Inventory().SaveWithVersion(ctx, item); err != nil {
				return err
			}
		}

		userBefore := user.Balance
		if err := user.Debit(total); err != nil {
			return err
		}
		if err := repos.Users().SaveWithVersion(ctx, user); err != nil {
			return err
		}

		merchantBefore := merchant.Balance
		if err := merchant.Credit(total); err != nil {
			return err
		}
		if err := repos.Merchants().SaveWithVersion(ctx, merchant); err != nil {
			return err
		}

		purchase, err := ledger.NewTransactionRecord(
			ledger.AccountTypeUser, user.ID, ledger.TransactionTypePurchase,
			total, userBefore, user.Balance, &order.ID)
		if err != nil {
			return err
		}
		if err := repos.Ledger().Append(ctx, purchase); err != nil {
			return err
		}

		sale, err := ledger.NewTransactionRecord(
			ledger.AccountTypeMerchant, merchant.ID, ledger.TransactionTypeSale,
			total, merchantBefore, merchant.Balance, &order.ID)
		if err != nil {
			return err
		}
		if err := repos.Ledger().Append(ctx, sale); err != nil {
			return err
		}

		if err := order.MarkPaid(); err != nil {
			return err
		}
		if err := repos.Orders().SaveWithVersion(ctx, order); err != nil {
			return err
		}

		if order.FromCart {
			if err := repos.Carts().DeleteByUser(ctx, order.UserID); err != nil {
				return err
			}
		}

		paid = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	return paid, nil
}

// cancelAfterFailedPayment consumes an order whose payment failed on a
// business rule. The failed payment already rolled back, so this runs
// as its own small transaction. Losing a race here is harmless: the
// other writer observed some valid state of the order.
func (s *OrderService) cancelAfterFailedPayment(ctx context.Context, orderID uuid.UUID, cause error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		s.logger.Warn("could not load order to cancel after failed payment",
			zap.String("order_id", orderID.String()), zap.Error(err))
		return
	}
	if order.Status != trade.OrderStatusPending {
		return
	}
	if err := order.MarkCancelled(); err != nil {
		return
	}
	if err := s.orderRepo.SaveWithVersion(ctx, order); err != nil {
		s.logger.Warn("could not cancel order after failed payment",
			zap.String("order_id", orderID.String()), zap.Error(err))
		return
	}

	s.logger.Info("order cancelled after failed payment",
		zap.String("order_number", order.OrderNumber),
		zap.String("reason", cause.Error()))
}

func (s *OrderService) checkDuplicatePayment(ctx context.Context, orderID uuid.UUID, key string) (bool, *OrderResponse, error) {
	if s.idempotency == nil || !s.idempotencyCfg.Enabled || key == "" {
		return false, nil, nil
	}

	seen, err := s.idempotency.IsProcessed(ctx, idempotencyKeyPrefix+key)
	if err != nil {
		// The store being down must not block payments
		s.logger.Warn("idempotency check failed, proceeding without it", zap.Error(err))
		return false, nil, nil
	}
	if !seen {
		return false, nil, nil
	}

	s.logger.Info("duplicate payment suppressed",
		zap.String("order_id", orderID.String()),
		zap.String("idempotency_key", key))

	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return true, nil, err
	}
	resp := ToOrderResponse(order)
	return true, &resp, nil
}

func (s *OrderService) markPaymentProcessed(ctx context.Context, key string) {
	if s.idempotency == nil || !s.idempotencyCfg.Enabled || key == "" {
		return
	}
	if _, err := s.idempotency.MarkProcessed(ctx, idempotencyKeyPrefix+key, s.idempotencyCfg.TTL); err != nil {
		s.logger.Warn("could not record idempotency key", zap.Error(err))
	}
}

// Ship transitions a PAID order to SHIPPED. Only the merchant the order
// settles against may ship it.
func (s *OrderService) Ship(ctx context.Context, orderID, merchantID uuid.UUID) (*OrderResponse, error) {
	return s.transition(ctx, orderID, func(order *trade.Order) error {
		if order.MerchantID != merchantID {
			return shared.NewDomainError("INVALID_OPERATION", "Order does not belong to this merchant")
		}
		return order.MarkShipped()
	})
}

// Complete transitions a SHIPPED order to COMPLETED, confirming receipt.
// Only the buyer may complete their order.
func (s *OrderService) Complete(ctx context.Context, orderID, userID uuid.UUID) (*OrderResponse, error) {
	return s.transition(ctx, orderID, func(order *trade.Order) error {
		if order.UserID != userID {
			return shared.NewDomainError("INVALID_OPERATION", "Order does not belong to this user")
		}
		return order.MarkCompleted()
	})
}

// Cancel abandons a PENDING order. Nothing was reserved or charged, so
// no compensation is needed.
func (s *OrderService) Cancel(ctx context.Context, orderID, userID uuid.UUID) (*OrderResponse, error) {
	return s.transition(ctx, orderID, func(order *trade.Order) error {
		if order.UserID != userID {
			return shared.NewDomainError("INVALID_OPERATION", "Order does not belong to this user")
		}
		return order.MarkCancelled()
	})
}

// transition applies a single-aggregate status change with the usual
// bounded retry on version conflicts
func (s *OrderService) transition(ctx context.Context, orderID uuid.UUID, apply func(*trade.Order) error) (*OrderResponse, error) {
	var lastErr error

	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		order, err := s.orderRepo.FindByID(ctx, orderID)
		if err != nil {
			return nil, err
		}

		if err := apply(order); err != nil {
			return nil, err
		}

		lastErr = s.orderRepo.SaveWithVersion(ctx, order)
		if lastErr == nil {
			s.logger.Info("order transitioned",
				zap.String("order_number", order.OrderNumber),
				zap.String("status", order.Status.String()))
			resp := ToOrderResponse(order)
			return &resp, nil
		}
		if !errors.Is(lastErr, shared.ErrConcurrencyConflict) {
			return nil, lastErr
		}
	}

	return nil, lastErr
}

// Refund reverses a PAID or SHIPPED order: the buyer is credited, the
// merchant is debited (below zero if it must), and one REFUND ledger
// entry is appended per account, all in one transaction. Sold stock is
// not restored; returned goods re-enter inventory through an explicit
// restock. Only the buyer may request a refund.
func (s *OrderService) Refund(ctx context.Context, orderID, userID uuid.UUID) (*OrderResponse, error) {
	var (
		refunded *trade.Order
		lastErr  error
	)

	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		refunded, lastErr = s.refundOnce(ctx, orderID, userID)
		if lastErr == nil {
			break
		}
		if !errors.Is(lastErr, shared.ErrConcurrencyConflict) {
			return nil, lastErr
		}
		s.logger.Debug("refund hit version conflict, retrying",
			zap.String("order_id", orderID.String()),
			zap.Int("attempt", attempt))
	}
	if lastErr != nil {
		return nil, lastErr
	}

	s.logger.Info("order refunded",
		zap.String("order_number", refunded.OrderNumber),
		zap.String("total", refunded.TotalAmount.String()))

	resp := ToOrderResponse(refunded)
	return &resp, nil
}

func (s *OrderService) refundOnce(ctx context.Context, orderID, userID uuid.UUID) (*trade.Order, error) {
	var refunded *trade.Order

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		order, err := repos.Orders().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if order.UserID != userID {
			return shared.NewDomainError("INVALID_OPERATION", "Order does not belong to this user")
		}

		user, err := repos.Users().FindByID(ctx, order.UserID)
		if err != nil {
			return err
		}
		merchant, err := repos.Merchants().FindByID(ctx, order.MerchantID)
		if err != nil {
			return err
		}

		total := order.GetTotalAmountMoney()

		merchantBefore := merchant.Balance
		if err := merchant.Debit(total); err != nil {
			return err
		}
		if err := repos.Merchants().SaveWithVersion(ctx, merchant); err != nil {
			return err
		}
		if merchant.IsOverdrawn() {
			s.logger.Warn("refund overdrew merchant balance",
				zap.String("merchant_id", merchant.ID.String()),
				zap.String("balance", merchant.Balance.String()),
				zap.String("order_number", order.OrderNumber))
		}

		userBefore := user.Balance
		if err := user.Credit(total); err != nil {
			return err
		}
		if err := repos.Users().SaveWithVersion(ctx, user); err != nil {
			return err
		}

		refundOut, err := ledger.NewTransactionRecord(
			ledger.AccountTypeMerchant, merchant.ID, ledger.TransactionTypeRefundOut,
			total, merchantBefore, merchant.Balance, &order.ID)
		if err != nil {
			return err
		}
		if err := repos.Ledger().Append(ctx, refundOut); err != nil {
			return err
		}

		refundIn, err := ledger.NewTransactionRecord(
			ledger.AccountTypeUser, user.ID, ledger.TransactionTypeRefundIn,
			total, userBefore, user.Balance, &order.ID)
		if err != nil {
			return err
		}
		if err := repos.Ledger().Append(ctx, refundIn); err != nil {
			return err
		}

		if err := order.MarkRefunded(); err != nil {
			return err
		}
		if err := repos.Orders().SaveWithVersion(ctx, order); err != nil {
			return err
		}

		refunded = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	return refunded, nil
}

// GetByID returns one order with its line items
func (s *OrderService) GetByID(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	resp := ToOrderResponse(order)
	return &resp, nil
}

// GetByOrderNumber returns one order looked up by its public number
func (s *OrderService) GetByOrderNumber(ctx context.Context, orderNumber string) (*OrderResponse, error) {
	order, err := s.orderRepo.FindByOrderNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	resp := ToOrderResponse(order)
	return &resp, nil
}

// ListByUser returns the user's orders, newest first by default
func (s *OrderService) ListByUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) (*shared.Paginated[OrderResponse], error) {
	orders, total, err := s.orderRepo.FindByUser(ctx, userID, filter)
	if err != nil {
		return nil, err
	}
	return s.paginate(orders, total, filter), nil
}

// ListByMerchant returns the merchant's orders, optionally filtered by
// status
func (s *OrderService) ListByMerchant(ctx context.Context, merchantID uuid.UUID, status *trade.OrderStatus, filter shared.Filter) (*shared.Paginated[OrderResponse], error) {
	var (
		orders []trade.Order
		total  int64
		err    error
	)
	if status != nil {
		if !status.IsValid() {
			return nil, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Unknown order status %q", *status))
		}
		orders, total, err = s.orderRepo.FindByMerchantAndStatus(ctx, merchantID, *status, filter)
	} else {
		orders, total, err = s.orderRepo.FindByMerchant(ctx, merchantID, filter)
	}
	if err != nil {
		return nil, err
	}
	return s.paginate(orders, total, filter), nil
}

func (s *OrderService) paginate(orders []trade.Order, total int64, filter shared.Filter) *shared.Paginated[OrderResponse] {
	responses := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		responses = append(responses, ToOrderResponse(&orders[i]))
	}
	page := shared.NewPaginated(responses, total, filter.Page, filter.PageSize)
	return &page
}
