package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	accountapp "github.com/trading/backend/internal/application/account"
	"github.com/trading/backend/internal/domain/ledger"
)

// AccountHandler handles user and merchant account endpoints
type AccountHandler struct {
	BaseHandler
	accountService *accountapp.AccountService
}

// NewAccountHandler creates a new AccountHandler
func NewAccountHandler(accountService *accountapp.AccountService) *AccountHandler {
	return &AccountHandler{accountService: accountService}
}

// RegisterUserRequest represents a request to register a user account
type RegisterUserRequest struct {
	Username string `json:"username" binding:"required,min=1,max=255"`
}

// RegisterMerchantRequest represents a request to register a merchant account
type RegisterMerchantRequest struct {
	BusinessName string `json:"business_name" binding:"required,min=1,max=255"`
	Username     string `json:"username" binding:"required,min=1,max=255"`
}

// DepositRequest represents a balance top-up request
type DepositRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0"`
}

// RegisterUser creates a new user account.
func (h *AccountHandler) RegisterUser(c *gin.Context) {
	var req RegisterUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	user, err := h.accountService.RegisterUser(c.Request.Context(), req.Username)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, user)
}

// RegisterMerchant creates a new merchant account.
func (h *AccountHandler) RegisterMerchant(c *gin.Context) {
	var req RegisterMerchantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	merchant, err := h.accountService.RegisterMerchant(c.Request.Context(), req.BusinessName, req.Username)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, merchant)
}

// Deposit credits the acting user's balance.
func (h *AccountHandler) Deposit(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	var req DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	user, err := h.accountService.Deposit(c.Request.Context(), userID, decimal.NewFromFloat(req.Amount))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, user)
}

// GetUser returns the acting user's account.
func (h *AccountHandler) GetUser(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	user, err := h.accountService.GetUser(c.Request.Context(), userID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, user)
}

// GetMerchant returns the acting merchant's account.
func (h *AccountHandler) GetMerchant(c *gin.Context) {
	merchantID, ok := h.requireMerchantID(c)
	if !ok {
		return
	}

	merchant, err := h.accountService.GetMerchant(c.Request.Context(), merchantID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, merchant)
}

// GetMerchantStats returns the acting merchant's dashboard counters.
func (h *AccountHandler) GetMerchantStats(c *gin.Context) {
	merchantID, ok := h.requireMerchantID(c)
	if !ok {
		return
	}

	stats, err := h.accountService.GetMerchantStats(c.Request.Context(), merchantID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, stats)
}

// ListUserTransactions returns the acting user's ledger history.
func (h *AccountHandler) ListUserTransactions(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}
	filter, ok := h.bindFilter(c)
	if !ok {
		return
	}

	page, err := h.accountService.GetTransactions(c.Request.Context(), ledger.AccountTypeUser, userID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// ListMerchantTransactions returns the acting merchant's ledger history.
func (h *AccountHandler) ListMerchantTransactions(c *gin.Context) {
	merchantID, ok := h.requireMerchantID(c)
	if !ok {
		return
	}
	filter, ok := h.bindFilter(c)
	if !ok {
		return
	}

	page, err := h.accountService.GetTransactions(c.Request.Context(), ledger.AccountTypeMerchant, merchantID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}
