package trade

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/trading/backend/internal/domain/shared"
)

// OrderRepository provides access to orders.
// SaveWithVersion follows the same CAS discipline as the inventory and
// account repositories: RowsAffected == 0 means another writer moved
// the order first and the caller gets shared.ErrConcurrencyConflict.
type OrderRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	FindByOrderNumber(ctx context.Context, orderNumber string) (*Order, error)
	FindByUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]Order, int64, error)
	FindByMerchant(ctx context.Context, merchantID uuid.UUID, filter shared.Filter) ([]Order, int64, error)
	FindByMerchantAndStatus(ctx context.Context, merchantID uuid.UUID, status OrderStatus, filter shared.Filter) ([]Order, int64, error)
	// FindByMerchantStatusAndRange returns orders for a merchant in the given
	// status created within [start, end]; used by settlement.
	FindByMerchantStatusAndRange(ctx context.Context, merchantID uuid.UUID, status OrderStatus, start, end time.Time) ([]Order, error)
	Save(ctx context.Context, order *Order) error
	SaveWithVersion(ctx context.Context, order *Order) error
}

// CartItemRepository provides access to cart lines
type CartItemRepository interface {
	FindByUser(ctx context.Context, userID uuid.UUID) ([]CartItem, error)
	FindByUserAndSKU(ctx context.Context, userID uuid.UUID, sku string) (*CartItem, error)
	Save(ctx context.Context, item *CartItem) error
	Delete(ctx context.Context, userID uuid.UUID, sku string) error
	DeleteByUser(ctx context.Context, userID uuid.UUID) error
}

// ProductRepository provides read access to the catalog
type ProductRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	ExistsByID(ctx context.Context, id uuid.UUID) (bool, error)
	Save(ctx context.Context, product *Product) error
}
