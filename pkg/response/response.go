package response

import (
	"net/http"
)

// Response is the standard API response envelope
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
}

// ErrorInfo represents error details in the response
type ErrorInfo struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// Meta represents metadata for paginated responses
type Meta struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total"`
}

// --- Error Code Constants ---

const (
	// Client errors (4xx)
	ErrCodeBadRequest   = "BAD_REQUEST"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeForbidden    = "FORBIDDEN"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeConflict     = "CONFLICT"

	// Server errors (5xx)
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"

	// Business logic errors
	ErrCodeValidationFailed       = "VALIDATION_FAILED"
	ErrCodeInsufficientInventory  = "INSUFFICIENT_INVENTORY"
	ErrCodeDiscountInvalid        = "DISCOUNT_INVALID"
	ErrCodeInvalidStateTransition = "INVALID_STATE_TRANSITION"
	ErrCodeTransactionExpired     = "TRANSACTION_EXPIRED"
)

// ErrorCodeToHTTPStatus maps error codes to HTTP status codes
var ErrorCodeToHTTPStatus = map[string]int{
	ErrCodeBadRequest:             http.StatusBadRequest,
	ErrCodeUnauthorized:           http.StatusUnauthorized,
	ErrCodeForbidden:              http.StatusForbidden,
	ErrCodeNotFound:               http.StatusNotFound,
	ErrCodeConflict:               http.StatusConflict,
	ErrCodeInternalError:          http.StatusInternalServerError,
	ErrCodeServiceUnavailable:     http.StatusServiceUnavailable,
	ErrCodeValidationFailed:       http.StatusBadRequest,
	ErrCodeInsufficientInventory:  http.StatusConflict,
	ErrCodeDiscountInvalid:        http.StatusUnprocessableEntity,
	ErrCodeInvalidStateTransition: http.StatusConflict,
	ErrCodeTransactionExpired:     http.StatusGone,
}

// GetHTTPStatus returns the HTTP status code for an error code
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeToHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// --- Response Builders ---

// Success creates a success response with data
func Success(data interface{}) *Response {
	return &Response{
		Success: true,
		Data:    data,
	}
}

// Error creates an error response
func Error(code string, message string) *Response {
	return &Response{
		Success: false,
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
		},
	}
}

// ErrorWithDetails creates an error response with additional details
func ErrorWithDetails(code string, message string, details map[string]string) *Response {
	return &Response{
		Success: false,
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

// Paginated creates a paginated success response
func Paginated(data interface{}, limit, offset, total int) *Response {
	return &Response{
		Success: true,
		Data:    data,
		Meta: &Meta{
			Limit:  limit,
			Offset: offset,
			Total:  total,
		},
	}
}

// --- Common Error Responses ---

// BadRequest creates a bad request error response
func BadRequest(message string) *Response {
	return Error(ErrCodeBadRequest, message)
}

// Unauthorized creates an unauthorized error response
func Unauthorized(message string) *Response {
	if message == "" {
		message = "Authentication required"
	}
	return Error(ErrCodeUnauthorized, message)
}

// Forbidden creates a forbidden error response
func Forbidden(message string) *Response {
	if message == "" {
		message = "Access denied"
	}
	return Error(ErrCodeForbidden, message)
}

// NotFound creates a not found error response
func NotFound(message string) *Response {
	if message == "" {
		message = "Resource not found"
	}
	return Error(ErrCodeNotFound, message)
}

// InternalError creates an internal server error response
func InternalError(message string) *Response {
	if message == "" {
		message = "An internal error occurred"
	}
	return Error(ErrCodeInternalError, message)
}

// ValidationFailed creates a validation error response
func ValidationFailed(message string) *Response {
	if message == "" {
		message = "Validation failed"
	}
	return Error(ErrCodeValidationFailed, message)
}
