// Package settings proxies payout setup and the store profile to the merchant
// backend.
package settings

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/merchantdash/internal/backend"
	"github.com/simp-lee/merchantdash/internal/middleware"
	"github.com/simp-lee/merchantdash/internal/pkg"
)

// Backend is the part of the merchant backend client used by settings.
type Backend interface {
	ListBanks(ctx context.Context) ([]backend.Bank, error)
	ResolveAccount(ctx context.Context, accountNumber, bankCode string) (backend.AccountResolution, error)
	CreateSubaccount(ctx context.Context, req backend.SubaccountRequest) (backend.Subaccount, error)
	GetStore(ctx context.Context) (backend.Store, error)
	UpdateStore(ctx context.Context, req backend.StoreUpdate) (backend.Store, error)
}

// ResolveAccountQuery is the query of GET /settings/resolve-account.
type ResolveAccountQuery struct {
	AccountNumber string `form:"account_number" json:"account_number" binding:"required,len=10,numeric"`
	BankCode      string `form:"bank_code" json:"bank_code" binding:"required,numeric"`
}

// Handler serves the settings API and page.
type Handler struct {
	backend Backend
}

// NewHandler creates a settings Handler.
func NewHandler(b Backend) *Handler {
	return &Handler{backend: b}
}

// Page renders the settings screen with the store profile and payout banks.
// A failed load still renders the page with an inline error.
// GET /settings
func (h *Handler) Page(c *gin.Context) {
	ctx := c.Request.Context()
	data := gin.H{"CSRFToken": middleware.GetCSRFToken(c)}

	store, err := h.backend.GetStore(ctx)
	if err != nil {
		slog.WarnContext(ctx, "load store profile", "error", err)
		data["LoadError"] = "Failed to load store profile"
	} else {
		data["Store"] = store
	}
	banks, err := h.backend.ListBanks(ctx)
	if err != nil {
		slog.WarnContext(ctx, "load banks", "error", err)
		data["BanksError"] = "Failed to load banks"
	}
	data["Banks"] = banks
	c.HTML(http.StatusOK, "settings/index.html", data)
}

// Banks handles GET /api/v1/settings/banks.
func (h *Handler) Banks(c *gin.Context) {
	banks, err := h.backend.ListBanks(c.Request.Context())
	if err != nil {
		pkg.Error(c, err)
		return
	}
	if banks == nil {
		banks = []backend.Bank{}
	}
	pkg.Success(c, banks)
}

// ResolveAccount handles GET /api/v1/settings/resolve-account.
func (h *Handler) ResolveAccount(c *gin.Context) {
	var q ResolveAccountQuery
	if !pkg.BindAndValidate(c, &q) {
		return
	}
	res, err := h.backend.ResolveAccount(c.Request.Context(), q.AccountNumber, q.BankCode)
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Success(c, res)
}

// CreateSubaccount handles POST /api/v1/settings/subaccount.
func (h *Handler) CreateSubaccount(c *gin.Context) {
	var req backend.SubaccountRequest
	if !pkg.BindAndValidate(c, &req) {
		return
	}
	sub, err := h.backend.CreateSubaccount(c.Request.Context(), req)
	if err != nil {
		pkg.Error(c, err)
		return
	}
	slog.InfoContext(c.Request.Context(), "payout subaccount created", "code", sub.Code)
	pkg.Created(c, sub)
}

// Store handles GET /api/v1/settings/store.
func (h *Handler) Store(c *gin.Context) {
	store, err := h.backend.GetStore(c.Request.Context())
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Success(c, store)
}

// UpdateStore handles PATCH /api/v1/settings/store.
func (h *Handler) UpdateStore(c *gin.Context) {
	var req backend.StoreUpdate
	if !pkg.BindAndValidate(c, &req) {
		return
	}
	store, err := h.backend.UpdateStore(c.Request.Context(), req)
	if err != nil {
		pkg.Error(c, err)
		return
	}
	slog.InfoContext(c.Request.Context(), "store profile updated")
	pkg.Success(c, store)
}
