package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/trading/backend/internal/domain/shared"
	"github.com/trading/backend/internal/domain/shared/valueobject"
)

// InventoryItem represents one merchant's sellable stock line, keyed by SKU.
// It is the aggregate root for inventory operations. Quantity never goes
// negative; every successful mutation bumps Version so concurrent writers
// are serialized by the repository's compare-and-swap.
type InventoryItem struct {
	shared.BaseAggregateRoot
	SKU        string          `gorm:"uniqueIndex;not null"`
	ProductID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	MerchantID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Quantity   int64           `gorm:"not null;default:0"`
	Price      decimal.Decimal `gorm:"type:decimal(19,2);not null;default:0"`
}

// TableName returns the table name for GORM
func (InventoryItem) TableName() string {
	return "inventory_items"
}

// NewInventoryItem creates a new inventory line for a merchant-SKU combination
func NewInventoryItem(merchantID, productID uuid.UUID, sku string, quantity int64, price valueobject.Money) (*InventoryItem, error) {
	if merchantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_MERCHANT", "Merchant ID cannot be empty")
	}
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if sku == "" {
		return nil, shared.NewDomainError("INVALID_SKU", "SKU cannot be empty")
	}
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if amt := price.Amount(); amt.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Price cannot be negative")
	}

	return &InventoryItem{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		SKU:               sku,
		ProductID:         productID,
		MerchantID:        merchantID,
		Quantity:          quantity,
		Price:             price.Amount(),
	}, nil
}

// IncreaseStock adds quantity to the line, optionally updating the price
func (i *InventoryItem) IncreaseStock(quantity int64, price *valueobject.Money) error {
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if price != nil && price.Amount().IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Price cannot be negative")
	}

	i.Quantity += quantity
	if price != nil {
		i.Price = price.Amount()
	}
	i.UpdatedAt = time.Now()
	i.IncrementVersion()

	return nil
}

// Decrement removes quantity from the line.
// Fails with ErrInsufficientStock when the request exceeds what is on hand;
// that is a terminal business failure, not a retryable conflict.
func (i *InventoryItem) Decrement(quantity int64) error {
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Decrement quantity must be positive")
	}
	if i.Quantity < quantity {
		return shared.ErrInsufficientStock
	}

	i.Quantity -= quantity
	i.UpdatedAt = time.Now()
	i.IncrementVersion()

	return nil
}

// UpdatePrice sets a new unit price for the SKU.
// Existing order item snapshots are never touched by a price change.
func (i *InventoryItem) UpdatePrice(price valueobject.Money) error {
	if price.Amount().IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Price cannot be negative")
	}

	i.Price = price.Amount()
	i.UpdatedAt = time.Now()
	i.IncrementVersion()

	return nil
}

// CanFulfill returns true if the on-hand quantity covers the request
func (i *InventoryItem) CanFulfill(quantity int64) bool {
	return i.Quantity >= quantity
}

// GetPriceMoney returns the unit price as a Money value object
func (i *InventoryItem) GetPriceMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(i.Price)
}
