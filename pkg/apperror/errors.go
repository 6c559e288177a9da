package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies an application error independently of its transport code.
type Kind string

const (
	KindValidation          Kind = "validation"
	KindInsufficientPayment Kind = "insufficient_payment"
	KindItemNotFound        Kind = "item_not_found"
	KindInsufficientStock   Kind = "insufficient_stock"
	KindLockedTicket        Kind = "locked_ticket"
	KindAlreadyPickedUp     Kind = "already_picked_up"
	KindInvalidState        Kind = "invalid_state"
	KindUnpaidPickup        Kind = "unpaid_pickup"
	KindPersistence         Kind = "persistence"
	KindPartialCommit       Kind = "partial_commit"
	KindNotFound            Kind = "not_found"
	KindUnauthorized        Kind = "unauthorized"
	KindForbidden           Kind = "forbidden"
	KindConflict            Kind = "conflict"
	KindBadRequest          Kind = "bad_request"
	KindRateLimited         Kind = "rate_limited"
	KindInternal            Kind = "internal"
)

// AppError represents an application error with HTTP status code
type AppError struct {
	Code    int          `json:"code"`
	Kind    Kind         `json:"kind"`
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors,omitempty"`
	Details interface{}  `json:"details,omitempty"`
	Err     error        `json:"-"`
}

// FieldError represents a validation error for a specific field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// StockShortage describes one line that cannot be served from stock.
type StockShortage struct {
	StockItemID string `json:"stock_item_id"`
	Name        string `json:"name"`
	Requested   int    `json:"requested"`
	Available   int    `json:"available"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Common errors
var (
	ErrNotFound           = &AppError{Code: http.StatusNotFound, Kind: KindNotFound, Message: "Resource not found"}
	ErrUnauthorized       = &AppError{Code: http.StatusUnauthorized, Kind: KindUnauthorized, Message: "Unauthorized"}
	ErrForbidden          = &AppError{Code: http.StatusForbidden, Kind: KindForbidden, Message: "Forbidden"}
	ErrBadRequest         = &AppError{Code: http.StatusBadRequest, Kind: KindBadRequest, Message: "Bad request"}
	ErrInternalServer     = &AppError{Code: http.StatusInternalServerError, Kind: KindInternal, Message: "Internal server error"}
	ErrConflict           = &AppError{Code: http.StatusConflict, Kind: KindConflict, Message: "Resource already exists"}
	ErrInvalidCredentials = &AppError{Code: http.StatusUnauthorized, Kind: KindUnauthorized, Message: "Invalid email or password"}
)

// NewAppError creates a new application error
func NewAppError(code int, kind Kind, message string) *AppError {
	return &AppError{
		Code:    code,
		Kind:    kind,
		Message: message,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(fieldErrors []FieldError) *AppError {
	msgs := make([]string, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		msgs = append(msgs, fe.Field+": "+fe.Message)
	}
	return &AppError{
		Code:    http.StatusUnprocessableEntity,
		Kind:    KindValidation,
		Message: "Validation failed: " + strings.Join(msgs, "; "),
		Errors:  fieldErrors,
	}
}

// NewFieldValidationError is a shorthand for a single offending field.
func NewFieldValidationError(field, message string) *AppError {
	return NewValidationError([]FieldError{{Field: field, Message: message}})
}

// NewInsufficientPaymentError reports a payment below the required amount.
// Amounts are decimal strings as displayed to the operator.
func NewInsufficientPaymentError(required, paid string) *AppError {
	return &AppError{
		Code:    http.StatusUnprocessableEntity,
		Kind:    KindInsufficientPayment,
		Message: fmt.Sprintf("Insufficient payment: %s required, %s paid", required, paid),
		Details: map[string]string{"required": required, "paid": paid},
	}
}

// NewItemNotFoundError reports stock references that resolve to nothing.
func NewItemNotFoundError(names ...string) *AppError {
	return &AppError{
		Code:    http.StatusNotFound,
		Kind:    KindItemNotFound,
		Message: "Stock item not found: " + strings.Join(names, ", "),
		Details: names,
	}
}

// NewInsufficientStockError lists every line that exceeds available stock.
func NewInsufficientStockError(shortages []StockShortage) *AppError {
	parts := make([]string, 0, len(shortages))
	for _, s := range shortages {
		parts = append(parts, fmt.Sprintf("%s (requested %d, available %d)", s.Name, s.Requested, s.Available))
	}
	return &AppError{
		Code:    http.StatusConflict,
		Kind:    KindInsufficientStock,
		Message: "Insufficient stock for: " + strings.Join(parts, ", "),
		Details: shortages,
	}
}

// NewLockedTicketError is returned for any mutation of a picked-up ticket.
func NewLockedTicketError(serviceCode string) *AppError {
	return &AppError{
		Code:    http.StatusConflict,
		Kind:    KindLockedTicket,
		Message: fmt.Sprintf("Service %s has been picked up and can no longer be changed", serviceCode),
	}
}

// NewAlreadyPickedUpError is returned when pickup is confirmed twice.
func NewAlreadyPickedUpError(serviceCode string) *AppError {
	return &AppError{
		Code:    http.StatusConflict,
		Kind:    KindAlreadyPickedUp,
		Message: fmt.Sprintf("Service %s was already picked up", serviceCode),
	}
}

// NewInvalidStateError reports a state machine violation.
func NewInvalidStateError(message string) *AppError {
	return &AppError{
		Code:    http.StatusConflict,
		Kind:    KindInvalidState,
		Message: message,
	}
}

// NewUnpaidPickupError asks the operator to acknowledge an unpaid pickup.
func NewUnpaidPickupError(serviceCode, outstanding string) *AppError {
	return &AppError{
		Code:    http.StatusPreconditionRequired,
		Kind:    KindUnpaidPickup,
		Message: fmt.Sprintf("Service %s is not fully paid (%s outstanding); confirm the pickup to continue", serviceCode, outstanding),
		Details: map[string]string{"outstanding": outstanding},
	}
}

// NewPersistenceError wraps a storage failure.
func NewPersistenceError(op string, err error) *AppError {
	return &AppError{
		Code:    http.StatusInternalServerError,
		Kind:    KindPersistence,
		Message: "Storage failure during " + op,
		Err:     err,
	}
}

// NewPartialCommitError reports a commit whose outcome is unknown.
func NewPartialCommitError(op string, err error) *AppError {
	return &AppError{
		Code:    http.StatusInternalServerError,
		Kind:    KindPartialCommit,
		Message: "Commit outcome unknown during " + op + "; verify stock and records before resubmitting",
		Err:     err,
	}
}

// NewNotFoundError creates a not found error with a custom message
func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Code:    http.StatusNotFound,
		Kind:    KindNotFound,
		Message: resource + " not found",
	}
}

// NewConflictError creates a conflict error with a custom message
func NewConflictError(message string) *AppError {
	return &AppError{
		Code:    http.StatusConflict,
		Kind:    KindConflict,
		Message: message,
	}
}

// NewBadRequestError creates a bad request error with a custom message
func NewBadRequestError(message string) *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Kind:    KindBadRequest,
		Message: message,
	}
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// KindOf returns the kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// GetAppError converts an error to AppError if possible
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return &AppError{
		Code:    http.StatusInternalServerError,
		Kind:    KindInternal,
		Message: err.Error(),
	}
}
