package trade

import (
	"time"

	"github.com/google/uuid"

	"github.com/trading/backend/internal/domain/shared"
)

// CartItem is one SKU in a user's cart. Carts hold no price: pricing is
// resolved from inventory at checkout and snapshotted onto the order.
type CartItem struct {
	shared.BaseEntity
	UserID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_cart_user_sku,priority:1"`
	SKU      string    `gorm:"not null;uniqueIndex:idx_cart_user_sku,priority:2"`
	Quantity int64     `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CartItem) TableName() string {
	return "cart_items"
}

// NewCartItem creates a cart line for a user-SKU combination
func NewCartItem(userID uuid.UUID, sku string, quantity int64) (*CartItem, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "User ID cannot be empty")
	}
	if sku == "" {
		return nil, shared.NewDomainError("INVALID_SKU", "SKU cannot be empty")
	}
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}

	return &CartItem{
		BaseEntity: shared.NewBaseEntity(),
		UserID:     userID,
		SKU:        sku,
		Quantity:   quantity,
	}, nil
}

// AddQuantity merges an additional quantity into the line
func (c *CartItem) AddQuantity(quantity int64) error {
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	c.Quantity += quantity
	c.UpdatedAt = time.Now()
	return nil
}

// SetQuantity replaces the line quantity
func (c *CartItem) SetQuantity(quantity int64) error {
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	c.Quantity = quantity
	c.UpdatedAt = time.Now()
	return nil
}
