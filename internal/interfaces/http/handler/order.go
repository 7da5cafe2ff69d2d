package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	tradeapp "github.com/trading/backend/internal/application/trade"
	"github.com/trading/backend/internal/domain/trade"
)

// IdempotencyKeyHeader carries the client-chosen payment idempotency key.
const IdempotencyKeyHeader = "Idempotency-Key"

// OrderHandler handles order lifecycle endpoints
type OrderHandler struct {
	BaseHandler
	orderService *tradeapp.OrderService
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orderService *tradeapp.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// CreateOrderRequest represents a direct order creation request.
// Items must all belong to one merchant.
type CreateOrderRequest struct {
	Items []tradeapp.OrderItemRequest `json:"items" binding:"required,min=1,dive"`
}

// CreateFromCart converts the acting user's cart into a pending order.
func (h *OrderHandler) CreateFromCart(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	order, err := h.orderService.CreateFromCart(c.Request.Context(), userID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, order)
}

// Create places a direct order without going through the cart.
func (h *OrderHandler) Create(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	order, err := h.orderService.CreateDirect(c.Request.Context(), userID, req.Items)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, order)
}

// Pay settles a pending order. Repeat requests carrying the same
// Idempotency-Key header return the current order state without
// charging again.
func (h *OrderHandler) Pay(c *gin.Context) {
	if _, ok := h.requireUserID(c); !ok {
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	idempotencyKey := c.GetHeader(IdempotencyKeyHeader)

	order, err := h.orderService.Pay(c.Request.Context(), orderID, idempotencyKey)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, order)
}

// Ship marks a paid order as shipped by its merchant.
func (h *OrderHandler) Ship(c *gin.Context) {
	merchantID, ok := h.requireMerchantID(c)
	if !ok {
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	order, err := h.orderService.Ship(c.Request.Context(), orderID, merchantID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, order)
}

// Complete marks a shipped order as received by its buyer.
func (h *OrderHandler) Complete(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	order, err := h.orderService.Complete(c.Request.Context(), orderID, userID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, order)
}

// Cancel cancels a pending order.
func (h *OrderHandler) Cancel(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	order, err := h.orderService.Cancel(c.Request.Context(), orderID, userID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, order)
}

// Refund reverses a settled order, moving money back from the
// merchant to the buyer.
func (h *OrderHandler) Refund(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	order, err := h.orderService.Refund(c.Request.Context(), orderID, userID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, order)
}

// GetByID returns a single order.
func (h *OrderHandler) GetByID(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	order, err := h.orderService.GetByID(c.Request.Context(), orderID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, order)
}

// GetByOrderNumber returns a single order by its public number.
func (h *OrderHandler) GetByOrderNumber(c *gin.Context) {
	orderNumber := c.Param("order_number")
	if orderNumber == "" {
		h.BadRequest(c, "Order number is required")
		return
	}

	order, err := h.orderService.GetByOrderNumber(c.Request.Context(), orderNumber)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, order)
}

// ListMine returns the acting user's orders.
func (h *OrderHandler) ListMine(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}
	filter, ok := h.bindFilter(c)
	if !ok {
		return
	}

	page, err := h.orderService.ListByUser(c.Request.Context(), userID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// ListForMerchant returns the acting merchant's orders, optionally
// filtered by status.
func (h *OrderHandler) ListForMerchant(c *gin.Context) {
	merchantID, ok := h.requireMerchantID(c)
	if !ok {
		return
	}
	filter, ok := h.bindFilter(c)
	if !ok {
		return
	}

	var status *trade.OrderStatus
	if raw := c.Query("status"); raw != "" {
		s := trade.OrderStatus(raw)
		status = &s
	}

	page, err := h.orderService.ListByMerchant(c.Request.Context(), merchantID, status, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}
