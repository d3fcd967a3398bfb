package handler

import (
	"net/http"

	"order-cart/internal/middleware"
	"order-cart/internal/model"
	"order-cart/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// OrderHandler handles order-related HTTP requests.
type OrderHandler struct {
	service service.CartService
	logger  zerolog.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(service service.CartService, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		logger:  logger.With().Str("handler", "order").Logger(),
	}
}

// GetByID handles GET /api/orders/{orderID}. Orders of other users are reported as
// not found.
func (h *OrderHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.GetOrder(r.Context(), chi.URLParam(r, "orderID"))
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	if order.User != middleware.UserIDFromContext(r.Context()) {
		writeServiceError(w, r, model.ErrOrderNotFound, h.logger)
		return
	}

	writeJSON(w, r, http.StatusOK, order, h.logger)
}
