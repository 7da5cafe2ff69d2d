package inventory

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/trading/backend/internal/domain/inventory"
	"github.com/trading/backend/internal/domain/shared"
	"github.com/trading/backend/internal/domain/shared/valueobject"
	"github.com/trading/backend/internal/domain/trade"
)

const defaultMaxStockRetries = 3

// InventoryService manages the catalog and merchant stock lines.
// Stock additions upsert by SKU; concurrent restocks and sales are
// serialized by the repository's versioned save, retried here from a
// fresh read.
type InventoryService struct {
	inventoryRepo inventory.InventoryItemRepository
	productRepo   trade.ProductRepository
	logger        *zap.Logger
	maxRetries    int
}

// NewInventoryService creates a new InventoryService
func NewInventoryService(
	inventoryRepo inventory.InventoryItemRepository,
	productRepo trade.ProductRepository,
	logger *zap.Logger,
) *InventoryService {
	return &InventoryService{
		inventoryRepo: inventoryRepo,
		productRepo:   productRepo,
		logger:        logger,
		maxRetries:    defaultMaxStockRetries,
	}
}

// CreateProduct adds a catalog entry. Catalog entries carry only
// descriptive data; pricing and stock live on the merchant's inventory
// lines.
func (s *InventoryService) CreateProduct(ctx context.Context, name, description string) (*trade.Product, error) {
	product, err := trade.NewProduct(name, description)
	if err != nil {
		return nil, err
	}
	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}

	s.logger.Info("product created",
		zap.String("product_id", product.ID.String()),
		zap.String("name", name))

	return product, nil
}

// AddInventory adds stock for a merchant-SKU combination. A new SKU
// needs a product reference and a price; an existing SKU is topped up,
// with the price replaced only when one is given. A SKU registered by
// another merchant cannot be taken over.
func (s *InventoryService) AddInventory(ctx context.Context, merchantID uuid.UUID, req AddInventoryRequest) (*InventoryItemResponse, error) {
	if req.Quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}

	var price *valueobject.Money
	if req.Price != nil {
		p := valueobject.NewMoneyUSD(*req.Price)
		price = &p
	}

	var lastErr error
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		existing, err := s.inventoryRepo.FindBySKU(ctx, req.SKU)
		switch {
		case err == nil:
			if existing.MerchantID != merchantID {
				return nil, shared.NewDomainError("INVALID_OPERATION", "SKU is registered to another merchant")
			}
			if err := existing.IncreaseStock(req.Quantity, price); err != nil {
				return nil, err
			}
			lastErr = s.inventoryRepo.SaveWithVersion(ctx, existing)
			if lastErr == nil {
				s.logger.Info("stock increased",
					zap.String("sku", req.SKU),
					zap.Int64("added", req.Quantity),
					zap.Int64("on_hand", existing.Quantity))
				resp := ToInventoryItemResponse(existing)
				return &resp, nil
			}
			if !errors.Is(lastErr, shared.ErrConcurrencyConflict) {
				return nil, lastErr
			}

		case errors.Is(err, shared.ErrNotFound):
			if price == nil {
				return nil, shared.NewDomainError("INVALID_INPUT", "Price is required for a new SKU")
			}
			if req.ProductID == uuid.Nil {
				return nil, shared.NewDomainError("INVALID_INPUT", "Product reference is required for a new SKU")
			}
			exists, err := s.productRepo.ExistsByID(ctx, req.ProductID)
			if err != nil {
				return nil, err
			}
			if !exists {
				return nil, shared.ErrNotFound
			}

			item, err := inventory.NewInventoryItem(merchantID, req.ProductID, req.SKU, req.Quantity, *price)
			if err != nil {
				return nil, err
			}
			lastErr = s.inventoryRepo.Save(ctx, item)
			if lastErr == nil {
				s.logger.Info("inventory line created",
					zap.String("sku", req.SKU),
					zap.String("merchant_id", merchantID.String()),
					zap.Int64("quantity", req.Quantity))
				resp := ToInventoryItemResponse(item)
				return &resp, nil
			}
			// A concurrent insert of the same SKU surfaces as a
			// duplicate; fall through and retry as an increase.
			if !errors.Is(lastErr, shared.ErrAlreadyExists) {
				return nil, lastErr
			}

		default:
			return nil, err
		}
	}

	return nil, lastErr
}

// UpdatePrice sets a new unit price for one of the merchant's SKUs.
// Existing orders keep the price they were created with.
func (s *InventoryService) UpdatePrice(ctx context.Context, merchantID uuid.UUID, sku string, price decimal.Decimal) (*InventoryItemResponse, error) {
	money := valueobject.NewMoneyUSD(price)

	var lastErr error
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		item, err := s.inventoryRepo.FindByMerchantAndSKU(ctx, merchantID, sku)
		if err != nil {
			return nil, err
		}
		if err := item.UpdatePrice(money); err != nil {
			return nil, err
		}

		lastErr = s.inventoryRepo.SaveWithVersion(ctx, item)
		if lastErr == nil {
			s.logger.Info("price updated",
				zap.String("sku", sku),
				zap.String("price", price.String()))
			resp := ToInventoryItemResponse(item)
			return &resp, nil
		}
		if !errors.Is(lastErr, shared.ErrConcurrencyConflict) {
			return nil, lastErr
		}
	}

	return nil, lastErr
}

// GetBySKU returns one stock line with its catalog name
func (s *InventoryService) GetBySKU(ctx context.Context, sku string) (*InventoryItemResponse, error) {
	item, err := s.inventoryRepo.FindBySKU(ctx, sku)
	if err != nil {
		return nil, err
	}

	resp := ToInventoryItemResponse(item)
	if product, err := s.productRepo.FindByID(ctx, item.ProductID); err == nil {
		resp.ProductName = product.Name
	}
	return &resp, nil
}

// ListByMerchant returns a merchant's stock lines
func (s *InventoryService) ListByMerchant(ctx context.Context, merchantID uuid.UUID, filter shared.Filter) (*shared.Paginated[InventoryItemResponse], error) {
	items, total, err := s.inventoryRepo.FindByMerchant(ctx, merchantID, filter)
	if err != nil {
		return nil, err
	}

	responses := make([]InventoryItemResponse, 0, len(items))
	for i := range items {
		responses = append(responses, ToInventoryItemResponse(&items[i]))
	}

	page := shared.NewPaginated(responses, total, filter.Page, filter.PageSize)
	return &page, nil
}
