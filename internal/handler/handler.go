package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"order-cart/internal/middleware"
	"order-cart/internal/model"

	"github.com/rs/zerolog"
)

// statusByCode maps domain error codes to HTTP status codes.
var statusByCode = map[string]int{
	model.ErrCodeInvalidJSON:        http.StatusBadRequest,
	model.ErrCodeMissingField:       http.StatusBadRequest,
	model.ErrCodeInvalidUserID:      http.StatusUnauthorized,
	model.ErrCodeInvalidOrderID:     http.StatusBadRequest,
	model.ErrCodeItemNotFound:       http.StatusNotFound,
	model.ErrCodeItemNotResolved:    http.StatusConflict,
	model.ErrCodeInvalidLineItem:    http.StatusUnprocessableEntity,
	model.ErrCodeOrderNotFound:      http.StatusNotFound,
	model.ErrCodeCartConflict:       http.StatusConflict,
	model.ErrCodeCatalogUnavailable: http.StatusServiceUnavailable,
}

// writeJSON writes a JSON response with the given status code. The body is encoded
// before any header is written so an encoding failure still yields a clean 500.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}, logger zerolog.Logger) {
	body, err := json.Marshal(data)
	if err != nil {
		writeServiceError(w, r, err, logger)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

// writeError writes an error response with the given status code, code and message.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	body, _ := json.Marshal(model.ErrorResponse{
		Error:     code,
		Message:   message,
		RequestID: middleware.RequestIDFromContext(r.Context()),
	})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

// writeServiceError maps err to a response. Domain errors keep their code and message;
// anything else is logged and reported as an internal error.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, logger zerolog.Logger) {
	var domainErr *model.DomainError
	if errors.As(err, &domainErr) {
		status, ok := statusByCode[domainErr.Code]
		if !ok {
			status = http.StatusInternalServerError
		}

		event := logger.Warn()
		if status >= http.StatusInternalServerError {
			event = logger.Error()
		}
		event.Err(err).
			Str("request_id", middleware.RequestIDFromContext(r.Context())).
			Str("code", domainErr.Code).
			Int("status", status).
			Msg("request failed")

		writeError(w, r, status, domainErr.Code, domainErr.Message)
		return
	}

	logger.Error().
		Err(err).
		Str("request_id", middleware.RequestIDFromContext(r.Context())).
		Msg("internal error")
	writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternalError, "internal server error")
}
