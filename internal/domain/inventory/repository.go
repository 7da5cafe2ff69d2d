package inventory

import (
	"context"

	"github.com/google/uuid"

	"github.com/trading/backend/internal/domain/shared"
)

// InventoryItemRepository provides access to inventory lines.
//
// SaveWithVersion is the optimistic-concurrency commit: the update only
// lands when the stored version still equals the version the aggregate
// was read at (Version-1 after the domain bumped it). A lost race
// returns shared.ErrConcurrencyConflict; the caller re-reads and
// retries the whole operation, bounded, never resuming mid-way.
type InventoryItemRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*InventoryItem, error)
	FindBySKU(ctx context.Context, sku string) (*InventoryItem, error)
	FindByMerchantAndSKU(ctx context.Context, merchantID uuid.UUID, sku string) (*InventoryItem, error)
	FindByMerchant(ctx context.Context, merchantID uuid.UUID, filter shared.Filter) ([]InventoryItem, int64, error)
	FindByProduct(ctx context.Context, productID uuid.UUID) ([]InventoryItem, error)
	ExistsBySKU(ctx context.Context, sku string) (bool, error)
	Save(ctx context.Context, item *InventoryItem) error
	SaveWithVersion(ctx context.Context, item *InventoryItem) error
}
