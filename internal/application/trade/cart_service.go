package trade

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/trading/backend/internal/domain/inventory"
	"github.com/trading/backend/internal/domain/shared"
	"github.com/trading/backend/internal/domain/trade"
)

// CartService manages a user's cart. The cart holds only SKU and
// quantity; pricing and availability are always read fresh from
// inventory when the cart is viewed or converted into an order.
type CartService struct {
	cartRepo      trade.CartItemRepository
	inventoryRepo inventory.InventoryItemRepository
	productRepo   trade.ProductRepository
	logger        *zap.Logger
}

// NewCartService creates a new CartService
func NewCartService(
	cartRepo trade.CartItemRepository,
	inventoryRepo inventory.InventoryItemRepository,
	productRepo trade.ProductRepository,
	logger *zap.Logger,
) *CartService {
	return &CartService{
		cartRepo:      cartRepo,
		inventoryRepo: inventoryRepo,
		productRepo:   productRepo,
		logger:        logger,
	}
}

// AddItem puts quantity units of a SKU into the user's cart, merging
// with an existing line for the same SKU. The SKU must exist in
// inventory, but no stock is reserved.
func (s *CartService) AddItem(ctx context.Context, userID uuid.UUID, sku string, quantity int64) (*CartResponse, error) {
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if _, err := s.inventoryRepo.FindBySKU(ctx, sku); err != nil {
		return nil, err
	}

	existing, err := s.cartRepo.FindByUserAndSKU(ctx, userID, sku)
	switch {
	case err == nil:
		if err := existing.AddQuantity(quantity); err != nil {
			return nil, err
		}
		if err := s.cartRepo.Save(ctx, existing); err != nil {
			return nil, err
		}
	case errors.Is(err, shared.ErrNotFound):
		line, err := trade.NewCartItem(userID, sku, quantity)
		if err != nil {
			return nil, err
		}
		if err := s.cartRepo.Save(ctx, line); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	s.logger.Debug("cart item added",
		zap.String("user_id", userID.String()),
		zap.String("sku", sku),
		zap.Int64("quantity", quantity))

	return s.GetCart(ctx, userID)
}

// UpdateQuantity replaces the quantity of a cart line. Zero removes the
// line.
func (s *CartService) UpdateQuantity(ctx context.Context, userID uuid.UUID, sku string, quantity int64) (*CartResponse, error) {
	if quantity < 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity cannot be negative")
	}
	if quantity == 0 {
		return s.RemoveItem(ctx, userID, sku)
	}

	line, err := s.cartRepo.FindByUserAndSKU(ctx, userID, sku)
	if err != nil {
		return nil, err
	}
	if err := line.SetQuantity(quantity); err != nil {
		return nil, err
	}
	if err := s.cartRepo.Save(ctx, line); err != nil {
		return nil, err
	}

	return s.GetCart(ctx, userID)
}

// RemoveItem deletes one SKU from the user's cart
func (s *CartService) RemoveItem(ctx context.Context, userID uuid.UUID, sku string) (*CartResponse, error) {
	if err := s.cartRepo.Delete(ctx, userID, sku); err != nil {
		return nil, err
	}
	return s.GetCart(ctx, userID)
}

// Clear empties the user's cart
func (s *CartService) Clear(ctx context.Context, userID uuid.UUID) error {
	return s.cartRepo.DeleteByUser(ctx, userID)
}

// GetCart returns the user's cart enriched with current prices and
// availability. A SKU that has vanished from inventory is shown as
// unavailable rather than erroring the whole cart.
func (s *CartService) GetCart(ctx context.Context, userID uuid.UUID) (*CartResponse, error) {
	lines, err := s.cartRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := &CartResponse{
		UserID:      userID,
		Items:       make([]CartItemResponse, 0, len(lines)),
		TotalAmount: decimal.Zero,
	}

	for _, line := range lines {
		entry := CartItemResponse{
			SKU:      line.SKU,
			Quantity: line.Quantity,
		}

		item, err := s.inventoryRepo.FindBySKU(ctx, line.SKU)
		switch {
		case err == nil:
			entry.UnitPrice = item.Price
			entry.Subtotal = item.Price.Mul(decimal.NewFromInt(line.Quantity))
			entry.Available = item.CanFulfill(line.Quantity)
			entry.StockQuantity = item.Quantity
			if product, perr := s.productRepo.FindByID(ctx, item.ProductID); perr == nil {
				entry.ProductName = product.Name
			}
			resp.TotalAmount = resp.TotalAmount.Add(entry.Subtotal)
		case errors.Is(err, shared.ErrNotFound):
			entry.Available = false
		default:
			return nil, err
		}

		resp.Items = append(resp.Items, entry)
	}

	return resp, nil
}
