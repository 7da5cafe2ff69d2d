package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	settlementapp "github.com/trading/backend/internal/application/settlement"
)

// settlementDateLayout is the wire format for settlement dates
const settlementDateLayout = "2006-01-02"

// SettlementHandler handles daily settlement endpoints
type SettlementHandler struct {
	BaseHandler
	settlementService *settlementapp.SettlementService
}

// NewSettlementHandler creates a new SettlementHandler
func NewSettlementHandler(settlementService *settlementapp.SettlementService) *SettlementHandler {
	return &SettlementHandler{settlementService: settlementService}
}

// parseDate reads a date path parameter, defaulting to yesterday UTC
// when absent.
func (h *SettlementHandler) parseDate(c *gin.Context, param string) (time.Time, bool) {
	raw := c.Param(param)
	if raw == "" {
		raw = c.Query("date")
	}
	if raw == "" {
		return time.Now().UTC().AddDate(0, 0, -1), true
	}
	date, err := time.Parse(settlementDateLayout, raw)
	if err != nil {
		h.BadRequest(c, "Invalid date format, expected YYYY-MM-DD")
		return time.Time{}, false
	}
	return date, true
}

// Run triggers settlement for the acting merchant and a given date.
// Running twice for the same day returns the existing record.
func (h *SettlementHandler) Run(c *gin.Context) {
	merchantID, ok := h.requireMerchantID(c)
	if !ok {
		return
	}
	date, ok := h.parseDate(c, "date")
	if !ok {
		return
	}

	result, err := h.settlementService.RunForMerchant(c.Request.Context(), merchantID, date)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// GetByDate returns the acting merchant's settlement for one day.
func (h *SettlementHandler) GetByDate(c *gin.Context) {
	merchantID, ok := h.requireMerchantID(c)
	if !ok {
		return
	}
	date, ok := h.parseDate(c, "date")
	if !ok {
		return
	}

	result, err := h.settlementService.GetByMerchantAndDate(c.Request.Context(), merchantID, date)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// List returns the acting merchant's settlement history.
func (h *SettlementHandler) List(c *gin.Context) {
	merchantID, ok := h.requireMerchantID(c)
	if !ok {
		return
	}
	filter, ok := h.bindFilter(c)
	if !ok {
		return
	}

	page, err := h.settlementService.ListByMerchant(c.Request.Context(), merchantID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}
