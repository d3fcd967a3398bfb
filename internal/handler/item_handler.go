package handler

import (
	"net/http"
	"strconv"

	"order-cart/internal/model"
	"order-cart/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// ItemHandler handles catalogue HTTP requests.
type ItemHandler struct {
	service service.ItemService
	logger  zerolog.Logger
}

// NewItemHandler creates a new item handler.
func NewItemHandler(service service.ItemService, logger zerolog.Logger) *ItemHandler {
	return &ItemHandler{
		service: service,
		logger:  logger.With().Str("handler", "item").Logger(),
	}
}

// GetAll handles GET /api/items?limit=&offset= requests.
func (h *ItemHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(w, r, "limit")
	if !ok {
		return
	}
	offset, ok := queryInt(w, r, "offset")
	if !ok {
		return
	}

	items, err := h.service.GetAll(r.Context(), limit, offset)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	writeJSON(w, r, http.StatusOK, items, h.logger)
}

// GetByID handles GET /api/items/{itemID} requests.
func (h *ItemHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	item, err := h.service.GetByID(r.Context(), chi.URLParam(r, "itemID"))
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	writeJSON(w, r, http.StatusOK, item, h.logger)
}

// queryInt parses an optional integer query parameter, writing a 400 when malformed.
func queryInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid "+name+" parameter")
		return 0, false
	}
	return value, true
}
