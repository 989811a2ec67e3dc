package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/nicholas-0101/event-management-api/internal/domain"
	"github.com/nicholas-0101/event-management-api/pkg/response"
)

// writeError maps a domain error to the response envelope and HTTP status
func writeError(c *gin.Context, err error) {
	var code string
	switch {
	case errors.Is(err, domain.ErrValidation):
		code = response.ErrCodeValidationFailed
	case errors.Is(err, domain.ErrNotFound):
		code = response.ErrCodeNotFound
	case errors.Is(err, domain.ErrForbidden):
		code = response.ErrCodeForbidden
	case errors.Is(err, domain.ErrInsufficientInventory):
		code = response.ErrCodeInsufficientInventory
	case errors.Is(err, domain.ErrDiscountInstrumentInvalid):
		code = response.ErrCodeDiscountInvalid
	case errors.Is(err, domain.ErrInvalidStateTransition):
		code = response.ErrCodeInvalidStateTransition
	case errors.Is(err, domain.ErrExpired):
		code = response.ErrCodeTransactionExpired
	default:
		c.JSON(response.GetHTTPStatus(response.ErrCodeInternalError), response.InternalError(""))
		return
	}
	c.JSON(response.GetHTTPStatus(code), response.Error(code, err.Error()))
}

// pagination reads limit and offset query parameters with defaults
func pagination(c *gin.Context) (limit, offset int) {
	limit, offset = 20, 0
	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}
	if o := c.Query("offset"); o != "" {
		if parsed, err := strconv.Atoi(o); err == nil && parsed >= 0 {
			offset = parsed
		}
	}
	return limit, offset
}
