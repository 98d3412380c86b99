package common

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the JSON shape of API errors.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Success bool   `json:"success"`
}

// CustomError carries an error code and the HTTP status it maps to.
type CustomError struct {
	Code    string
	Message string
	Err     error
	Status  int
}

func (e *CustomError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewError creates a new custom error.
func NewError(code string, message string, status int, err error) *CustomError {
	return &CustomError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

// Predefined error codes.
const (
	ErrCodeValidation      = "VALIDATION_ERROR"  // 400
	ErrCodeUnauthenticated = "UNAUTHENTICATED"   // 401
	ErrCodePaymentRequired = "PAYMENT_REQUIRED"  // 402
	ErrCodeForbidden       = "FORBIDDEN"         // 403
	ErrCodeNotFound        = "NOT_FOUND"         // 404
	ErrCodeConflict        = "CONFLICT"          // 409
	ErrCodeTooManyRequests = "TOO_MANY_REQUESTS" // 429
	ErrCodeInternalError   = "INTERNAL_ERROR"    // 500
	ErrCodeUpstreamError   = "UPSTREAM_ERROR"    // 502
)

// Predefined errors.
var (
	ErrUnauthenticated = NewError(ErrCodeUnauthenticated, "authentication required", http.StatusUnauthorized, nil)
	ErrPaymentRequired = NewError(ErrCodePaymentRequired, "premium membership required or expired", http.StatusPaymentRequired, nil)
	ErrForbidden       = NewError(ErrCodeForbidden, "no permission", http.StatusForbidden, nil)
	ErrNotFound        = NewError(ErrCodeNotFound, "resource not found", http.StatusNotFound, nil)
	ErrTooManyRequests = NewError(ErrCodeTooManyRequests, "too many requests", http.StatusTooManyRequests, nil)
	ErrInternalError   = NewError(ErrCodeInternalError, "internal server error", http.StatusInternalServerError, nil)
)

// NewValidationError creates a validation error with a field-level message.
func NewValidationError(message string) *CustomError {
	return NewError(ErrCodeValidation, message, http.StatusBadRequest, nil)
}

// NewNotFoundError creates a not-found error for a named entity.
func NewNotFoundError(entity string) *CustomError {
	return NewError(ErrCodeNotFound, entity+" not found", http.StatusNotFound, nil)
}

// NewUpstreamError wraps a collaborator failure, preserving the
// underlying message.
func NewUpstreamError(message string, err error) *CustomError {
	return NewError(ErrCodeUpstreamError, message, http.StatusBadGateway, err)
}

// IsValidationError reports whether err is a validation error.
func IsValidationError(err error) bool {
	var ce *CustomError
	return errors.As(err, &ce) && ce.Code == ErrCodeValidation
}

// RespondError writes err as a JSON error response. Unknown error types
// map to 500 without leaking internals.
func RespondError(c *gin.Context, err error) {
	var ce *CustomError
	if errors.As(err, &ce) {
		c.JSON(ce.Status, ErrorResponse{Code: ce.Code, Message: ce.Error(), Success: false})
		return
	}
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Code:    ErrCodeInternalError,
		Message: "internal server error",
		Success: false,
	})
}
