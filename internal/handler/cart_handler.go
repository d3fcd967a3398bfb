package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"order-cart/internal/middleware"
	"order-cart/internal/model"
	"order-cart/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 10

// SetQtyRequest is the body of PUT /api/cart/items/{itemID}.
type SetQtyRequest struct {
	Qty *int `json:"qty"`
}

// CartHandler handles cart-related HTTP requests for the calling user.
type CartHandler struct {
	service service.CartService
	logger  zerolog.Logger
}

// NewCartHandler creates a new cart handler.
func NewCartHandler(service service.CartService, logger zerolog.Logger) *CartHandler {
	return &CartHandler{
		service: service,
		logger:  logger.With().Str("handler", "cart").Logger(),
	}
}

// Get handles GET /api/cart.
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	cart, err := h.service.GetCart(r.Context(), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	writeJSON(w, r, http.StatusOK, cart, h.logger)
}

// AddItem handles POST /api/cart/items/{itemID}.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemID")

	cart, err := h.service.GetCart(r.Context(), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	cart, err = h.service.AddItemToCart(r.Context(), cart, itemID)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	writeJSON(w, r, http.StatusOK, cart, h.logger)
}

// SetQty handles PUT /api/cart/items/{itemID} with a {"qty": n} body.
func (h *CartHandler) SetQty(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemID")

	var req SetQtyRequest
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		message := "invalid request body"
		if errors.Is(err, io.EOF) {
			message = "request body is required"
		}
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidJSON, message)
		return
	}
	if req.Qty == nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeMissingField, "qty is required")
		return
	}

	cart, err := h.service.GetCart(r.Context(), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	cart, err = h.service.SetItemQty(r.Context(), cart, itemID, *req.Qty)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	writeJSON(w, r, http.StatusOK, cart, h.logger)
}
