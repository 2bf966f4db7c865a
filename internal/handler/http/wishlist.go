package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/modaversa/storefront/internal/auth"
	"github.com/modaversa/storefront/internal/service"
	"github.com/modaversa/storefront/pkg/httputil"
	"github.com/modaversa/storefront/pkg/validator"
)

// WishlistHandler exposes wishlist endpoints.
type WishlistHandler struct {
	wishlists *service.WishlistService
	logger    *slog.Logger
}

// NewWishlistHandler creates a new wishlist handler.
func NewWishlistHandler(wishlists *service.WishlistService, logger *slog.Logger) *WishlistHandler {
	return &WishlistHandler{
		wishlists: wishlists,
		logger:    logger,
	}
}

type addWishlistItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	VariantID string `json:"variant_id" validate:"omitempty,uuid"`
}

type shareResponse struct {
	ShareToken string `json:"share_token"`
}

// Get handles GET /wishlist.
func (h *WishlistHandler) Get(w http.ResponseWriter, r *http.Request) {
	wl, err := h.wishlists.GetOrCreate(r.Context(), auth.IdentityFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: wl})
}

// AddItem handles POST /wishlist/items.
func (h *WishlistHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addWishlistItemRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	wl, err := h.wishlists.AddItem(r.Context(), auth.IdentityFromContext(r.Context()), req.ProductID, req.VariantID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: wl})
}

// RemoveItem handles DELETE /wishlist/items/{itemID}. Removing an item that
// is already gone answers 204; a successful removal returns the remaining
// list.
func (h *WishlistHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	itemID, ok := httputil.ParseUUID(w, chi.URLParam(r, "itemID"))
	if !ok {
		return
	}

	wl, err := h.wishlists.RemoveItem(r.Context(), auth.IdentityFromContext(r.Context()), itemID.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if wl == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: wl})
}

// Share handles POST /wishlist/share.
func (h *WishlistHandler) Share(w http.ResponseWriter, r *http.Request) {
	token, err := h.wishlists.Share(r.Context(), auth.IdentityFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: shareResponse{ShareToken: token}})
}

// GetShared handles GET /shared/wishlists/{shareToken}. It is public and
// requires no identity.
func (h *WishlistHandler) GetShared(w http.ResponseWriter, r *http.Request) {
	token, ok := httputil.ParseUUID(w, chi.URLParam(r, "shareToken"))
	if !ok {
		return
	}

	wl, err := h.wishlists.GetShared(r.Context(), token.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if wl == nil {
		httputil.WriteJSON(w, http.StatusNotFound, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "NOT_FOUND", Message: "shared wishlist not found"},
		})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: wl})
}
