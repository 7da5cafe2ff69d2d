package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/trading/backend/internal/domain/inventory"
)

// AddInventoryRequest describes a stock addition. Price is required
// when the SKU is new and optional on restock, where it replaces the
// current price if present.
type AddInventoryRequest struct {
	ProductID uuid.UUID        `json:"product_id"`
	SKU       string           `json:"sku" binding:"required"`
	Quantity  int64            `json:"quantity" binding:"required"`
	Price     *decimal.Decimal `json:"price,omitempty"`
}

// InventoryItemResponse is the outward shape of one stock line
type InventoryItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	SKU         string          `json:"sku"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name,omitempty"`
	MerchantID  uuid.UUID       `json:"merchant_id"`
	Quantity    int64           `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ToInventoryItemResponse maps a stock line to its response shape
func ToInventoryItemResponse(item *inventory.InventoryItem) InventoryItemResponse {
	return InventoryItemResponse{
		ID:         item.ID,
		SKU:        item.SKU,
		ProductID:  item.ProductID,
		MerchantID: item.MerchantID,
		Quantity:   item.Quantity,
		Price:      item.Price,
		UpdatedAt:  item.UpdatedAt,
	}
}
