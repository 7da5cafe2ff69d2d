package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	inventoryapp "github.com/trading/backend/internal/application/inventory"
)

// InventoryHandler handles catalog and stock endpoints
type InventoryHandler struct {
	BaseHandler
	inventoryService *inventoryapp.InventoryService
}

// NewInventoryHandler creates a new InventoryHandler
func NewInventoryHandler(inventoryService *inventoryapp.InventoryService) *InventoryHandler {
	return &InventoryHandler{inventoryService: inventoryService}
}

// CreateProductRequest represents a catalog entry creation request
type CreateProductRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=255"`
	Description string `json:"description" binding:"max=2000"`
}

// UpdatePriceRequest represents a price change for a stocked SKU
type UpdatePriceRequest struct {
	Price float64 `json:"price" binding:"required,gt=0"`
}

// ProductResponse represents a catalog entry in API responses
type ProductResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// CreateProduct registers a catalog entry.
func (h *InventoryHandler) CreateProduct(c *gin.Context) {
	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	product, err := h.inventoryService.CreateProduct(c.Request.Context(), req.Name, req.Description)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, ProductResponse{
		ID:          product.ID.String(),
		Name:        product.Name,
		Description: product.Description,
	})
}

// AddStock creates or restocks a SKU for the acting merchant.
func (h *InventoryHandler) AddStock(c *gin.Context) {
	merchantID, ok := h.requireMerchantID(c)
	if !ok {
		return
	}

	var req inventoryapp.AddInventoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	item, err := h.inventoryService.AddInventory(c.Request.Context(), merchantID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, item)
}

// UpdatePrice changes the price of one of the acting merchant's SKUs.
func (h *InventoryHandler) UpdatePrice(c *gin.Context) {
	merchantID, ok := h.requireMerchantID(c)
	if !ok {
		return
	}

	sku := c.Param("sku")
	if sku == "" {
		h.BadRequest(c, "SKU is required")
		return
	}

	var req UpdatePriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	item, err := h.inventoryService.UpdatePrice(c.Request.Context(), merchantID, sku, decimal.NewFromFloat(req.Price))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, item)
}

// GetBySKU returns one stock line. Public so buyers can browse.
func (h *InventoryHandler) GetBySKU(c *gin.Context) {
	sku := c.Param("sku")
	if sku == "" {
		h.BadRequest(c, "SKU is required")
		return
	}

	item, err := h.inventoryService.GetBySKU(c.Request.Context(), sku)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, item)
}

// ListMine returns the acting merchant's stock.
func (h *InventoryHandler) ListMine(c *gin.Context) {
	merchantID, ok := h.requireMerchantID(c)
	if !ok {
		return
	}
	filter, ok := h.bindFilter(c)
	if !ok {
		return
	}

	page, err := h.inventoryService.ListByMerchant(c.Request.Context(), merchantID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}
