package model

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	RequestID string `json:"requestId,omitempty"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON        = "INVALID_JSON"
	ErrCodeMissingField       = "MISSING_FIELD"
	ErrCodeInvalidUserID      = "INVALID_USER_ID"
	ErrCodeInvalidOrderID     = "INVALID_ORDER_ID"
	ErrCodeItemNotFound       = "ITEM_NOT_FOUND"
	ErrCodeItemNotResolved    = "ITEM_NOT_RESOLVED"
	ErrCodeInvalidLineItem    = "INVALID_LINE_ITEM"
	ErrCodeOrderNotFound      = "ORDER_NOT_FOUND"
	ErrCodeCartConflict       = "CART_CONFLICT"
	ErrCodeCatalogUnavailable = "CATALOG_UNAVAILABLE"
	ErrCodeUnauthorised       = "UNAUTHORIZED"
	ErrCodeInternalError      = "INTERNAL_ERROR"
)

// Domain errors for business logic
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrInvalidUserID      = NewDomainError(ErrCodeInvalidUserID, "User ID is required")
	ErrInvalidOrderID     = NewDomainError(ErrCodeInvalidOrderID, "Order ID is malformed")
	ErrItemNotFound       = NewDomainError(ErrCodeItemNotFound, "Item not found in catalogue")
	ErrItemNotResolved    = NewDomainError(ErrCodeItemNotResolved, "Line item references an item that has not been resolved")
	ErrInvalidLineItem    = NewDomainError(ErrCodeInvalidLineItem, "Line item must reference an item and have a positive quantity")
	ErrOrderNotFound      = NewDomainError(ErrCodeOrderNotFound, "Order not found")
	ErrCartConflict       = NewDomainError(ErrCodeCartConflict, "Concurrent cart creation conflicted")
	ErrCatalogUnavailable = NewDomainError(ErrCodeCatalogUnavailable, "Catalogue is temporarily unavailable")
)
