package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nicholas-0101/event-management-api/internal/dto"
	"github.com/nicholas-0101/event-management-api/internal/service"
	"github.com/nicholas-0101/event-management-api/pkg/middleware"
	"github.com/nicholas-0101/event-management-api/pkg/response"
)

// DiscountHandler handles voucher, coupon and point HTTP requests
type DiscountHandler struct {
	discounts service.DiscountService
}

// NewDiscountHandler creates a new DiscountHandler
func NewDiscountHandler(discounts service.DiscountService) *DiscountHandler {
	return &DiscountHandler{discounts: discounts}
}

// VouchersByEvent handles GET /voucher/event/:eventId
func (h *DiscountHandler) VouchersByEvent(c *gin.Context) {
	vouchers, err := h.discounts.EligibleVouchers(c.Request.Context(), c.Param("eventId"))
	if err != nil {
		writeError(c, err)
		return
	}

	voucherResponses := make([]*dto.VoucherResponse, len(vouchers))
	for i, v := range vouchers {
		voucherResponses[i] = dto.ToVoucherResponse(v)
	}
	c.JSON(http.StatusOK, response.Success(voucherResponses))
}

// CouponsByUser handles GET /coupon/user/:userId. A user may only read their
// own coupons.
func (h *DiscountHandler) CouponsByUser(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok || userID != c.Param("userId") {
		c.JSON(http.StatusForbidden, response.Forbidden("Coupons belong to another user"))
		return
	}

	coupons, err := h.discounts.EligibleCoupons(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	couponResponses := make([]*dto.CouponResponse, len(coupons))
	for i, cp := range coupons {
		couponResponses[i] = dto.ToCouponResponse(cp)
	}
	c.JSON(http.StatusOK, response.Success(couponResponses))
}

// PointsByUser handles GET /point/user/:userId. A user may only read their
// own balance.
func (h *DiscountHandler) PointsByUser(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok || userID != c.Param("userId") {
		c.JSON(http.StatusForbidden, response.Forbidden("Points belong to another user"))
		return
	}

	balance, err := h.discounts.PointBalance(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(dto.ToPointResponse(balance)))
}
