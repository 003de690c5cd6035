package dto

import (
	"net/http"
	"strings"
)

// Transport-level error codes. Domain errors carry their own codes and are
// emitted verbatim.
const (
	ErrCodeInternal        = "INTERNAL_ERROR"
	ErrCodeValidation      = "VALIDATION_ERROR"
	ErrCodeBadRequest      = "BAD_REQUEST"
	ErrCodeUnauthorized    = "UNAUTHORIZED"
	ErrCodeForbidden       = "FORBIDDEN"
	ErrCodeTokenExpired    = "TOKEN_EXPIRED"
	ErrCodeTokenInvalid    = "TOKEN_INVALID"
	ErrCodeNotFound        = "NOT_FOUND"
	ErrCodeRateLimited     = "RATE_LIMITED"
	ErrCodeNotConfigured   = "NOT_CONFIGURED"
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE"
)

// Point of sale error codes.
const (
	ErrCodeAlreadyOpen         = "ALREADY_OPEN"
	ErrCodeAlreadyClosed       = "ALREADY_CLOSED"
	ErrCodeAlreadySettled      = "ALREADY_SETTLED"
	ErrCodeSaleCancelled       = "SALE_CANCELLED"
	ErrCodeRequestInProgress   = "REQUEST_IN_PROGRESS"
	ErrCodeInsufficientStock   = "INSUFFICIENT_STOCK"
	ErrCodeInvalidPromotion    = "INVALID_PROMOTION"
	ErrCodeNoOpenSession       = "NO_OPEN_SESSION"
	ErrCodeInsufficientCredit  = "INSUFFICIENT_CREDIT"
	ErrCodePaymentMismatch     = "PAYMENT_MISMATCH"
	ErrCodeCustomerRequired    = "CUSTOMER_REQUIRED"
	ErrCodeAlreadyExists       = "ALREADY_EXISTS"
	ErrCodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
	ErrCodeInvalidState        = "INVALID_STATE"
	ErrCodeAlreadyInactive     = "ALREADY_INACTIVE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:        http.StatusInternalServerError,
	ErrCodeValidation:      http.StatusBadRequest,
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeUnauthorized:    http.StatusUnauthorized,
	ErrCodeForbidden:       http.StatusForbidden,
	ErrCodeTokenExpired:    http.StatusUnauthorized,
	ErrCodeTokenInvalid:    http.StatusUnauthorized,
	ErrCodeNotFound:        http.StatusNotFound,
	ErrCodeRateLimited:     http.StatusTooManyRequests,
	ErrCodeNotConfigured:   http.StatusNotImplemented,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,

	// State conflicts -> 409 Conflict
	ErrCodeAlreadyOpen:         http.StatusConflict,
	ErrCodeAlreadyClosed:       http.StatusConflict,
	ErrCodeAlreadySettled:      http.StatusConflict,
	ErrCodeSaleCancelled:       http.StatusConflict,
	ErrCodeRequestInProgress:   http.StatusConflict,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,

	// Business rule violations -> 422 Unprocessable Entity
	ErrCodeInsufficientStock:  http.StatusUnprocessableEntity,
	ErrCodeInvalidPromotion:   http.StatusUnprocessableEntity,
	ErrCodeNoOpenSession:      http.StatusUnprocessableEntity,
	ErrCodeInsufficientCredit: http.StatusUnprocessableEntity,
	ErrCodePaymentMismatch:    http.StatusUnprocessableEntity,
	ErrCodeCustomerRequired:   http.StatusUnprocessableEntity,
	ErrCodeInvalidState:       http.StatusUnprocessableEntity,
	ErrCodeAlreadyInactive:    http.StatusUnprocessableEntity,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unlisted INVALID_* codes are input errors (400); any other unlisted code
// is treated as a business rule violation (422).
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	if strings.HasPrefix(code, "INVALID_") || code == "NO_ITEMS" {
		return http.StatusBadRequest
	}
	if code == "" {
		return http.StatusInternalServerError
	}
	return http.StatusUnprocessableEntity
}
