// Package apperror provides structured error handling following RFC 7807 Problem Details.
// Every error that reaches the cashier goes through AppError so the UI can show one
// consistent notification.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes
const (
	// Infrastructure errors (5xx)
	CodeInternal = "INTERNAL_ERROR"
	CodeStorage  = "STORAGE_ERROR"
	CodeTimeout  = "TIMEOUT_ERROR"

	// Validation errors (400)
	CodeValidation    = "VALIDATION_ERROR"
	CodeInvalidInput  = "INVALID_INPUT"
	CodeInvalidAmount = "INVALID_AMOUNT"
	CodeEditorRequest = "INVALID_EDITOR_REQUEST"

	// Business rule violations (422)
	CodeBusinessRule        = "BUSINESS_RULE_VIOLATION"
	CodeEmptyCart           = "EMPTY_CART"
	CodeCustomerRequired    = "CUSTOMER_REQUIRED"
	CodeCreditLimitExceeded = "CREDIT_LIMIT_EXCEEDED"
	CodeInsufficientStock   = "INSUFFICIENT_STOCK"
	CodeLastTab             = "LAST_TAB"

	// Not found (404)
	CodeNotFound = "NOT_FOUND"

	// Conflict (409)
	CodeConflict           = "CONFLICT"
	CodeCheckoutInProgress = "CHECKOUT_IN_PROGRESS"

	// Upstream errors (502)
	CodeBackend     = "BACKEND_ERROR"
	CodePrintFailed = "PRINT_FAILED"
)

// AppError is the standard error type for the daemon.
// It implements error interface and provides structured details for API responses.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Details contains additional context (field errors, quantities, etc.)
	Details map[string]any `json:"details,omitempty"`

	// HTTPStatus is the suggested HTTP status code
	HTTPStatus int `json:"-"`

	// Err is the underlying error (not exposed in JSON)
	Err error `json:"-"`
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// --- Factory functions for common errors ---

// NewValidation creates a validation error (400)
func NewValidation(message string) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewInvalidAmount creates an error for a zero or unparseable amount (400)
func NewInvalidAmount(field string) *AppError {
	return &AppError{
		Code:       CodeInvalidAmount,
		Message:    "amount must be greater than zero",
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]any{"field": field},
	}
}

// NewInvalidEditorRequest rejects an editor request with no usable sale or payment (400)
func NewInvalidEditorRequest(reason string) *AppError {
	return &AppError{
		Code:       CodeEditorRequest,
		Message:    "Nothing to open for editing",
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]any{"reason": reason},
	}
}

// NewNotFound creates a not found error (404)
func NewNotFound(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", entity),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewBusinessRule creates a business rule violation error (422)
func NewBusinessRule(code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

// NewInsufficientStock creates a stock shortage error
func NewInsufficientStock(variantID int64, requested, available int) *AppError {
	return &AppError{
		Code:       CodeInsufficientStock,
		Message:    "Insufficient stock",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details: map[string]any{
			"variant_id": variantID,
			"requested":  requested,
			"available":  available,
		},
	}
}

// NewCustomerRequired is returned when a credit sale has no customer attached.
func NewCustomerRequired() *AppError {
	return NewBusinessRule(CodeCustomerRequired, "Select a customer for a credit sale")
}

// NewCreditLimitExceeded is returned when balance + remaining would pass the limit.
func NewCreditLimitExceeded(customerID int64, balance, remaining, limit string) *AppError {
	return &AppError{
		Code:       CodeCreditLimitExceeded,
		Message:    "Customer credit limit exceeded",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details: map[string]any{
			"customer_id":  customerID,
			"balance":      balance,
			"remaining":    remaining,
			"credit_limit": limit,
		},
	}
}

// NewCheckoutInProgress is returned when a second checkout arrives while one is in flight.
func NewCheckoutInProgress() *AppError {
	return &AppError{
		Code:       CodeCheckoutInProgress,
		Message:    "A checkout is already in progress",
		HTTPStatus: http.StatusConflict,
	}
}

// NewBackend wraps an error message returned by the backend. The message is kept verbatim.
func NewBackend(message string) *AppError {
	return &AppError{
		Code:       CodeBackend,
		Message:    message,
		HTTPStatus: http.StatusBadGateway,
	}
}

// NewPrintFailed reports a print failure after a successful commit.
func NewPrintFailed(err error) *AppError {
	return &AppError{
		Code:       CodePrintFailed,
		Message:    "Saved, but printing failed",
		HTTPStatus: http.StatusBadGateway,
		Err:        err,
	}
}

// NewInternal creates an internal error (hides details from client)
func NewInternal(err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewConflict creates a conflict error (409)
func NewConflict(message string) *AppError {
	return &AppError{
		Code:       CodeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

// --- Helper functions ---

// IsAppError checks if error is AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError extracts AppError from error chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetHTTPStatus returns appropriate HTTP status for any error
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// HasCode reports whether err is an AppError with the given code.
func HasCode(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}

// IsNotFound checks if error is CodeNotFound
func IsNotFound(err error) bool {
	return HasCode(err, CodeNotFound)
}

// UserMessage returns the message to show the cashier for err.
func UserMessage(err error) string {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Message
	}
	return err.Error()
}
