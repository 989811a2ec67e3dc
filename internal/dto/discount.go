package dto

import (
	"github.com/nicholas-0101/event-management-api/internal/domain"
)

// VoucherResponse is the API shape of an event voucher
type VoucherResponse struct {
	ID       string `json:"id"`
	EventID  string `json:"event_id"`
	Code     string `json:"code"`
	Percent  int    `json:"percent"`
	StartsAt string `json:"starts_at"`
	EndsAt   string `json:"ends_at"`
}

// CouponResponse is the API shape of a user coupon
type CouponResponse struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	Code      string `json:"code"`
	Percent   int    `json:"percent"`
	Status    string `json:"status"`
	ExpiresAt string `json:"expires_at"`
}

// PointResponse is the API shape of a user's point balance
type PointResponse struct {
	UserID  string `json:"user_id"`
	Balance int64  `json:"balance"`
}

// ToVoucherResponse converts a domain voucher to its API shape
func ToVoucherResponse(v *domain.Voucher) *VoucherResponse {
	return &VoucherResponse{
		ID:       v.ID,
		EventID:  v.EventID,
		Code:     v.Code,
		Percent:  v.Percent,
		StartsAt: v.StartsAt.Format(timeLayout),
		EndsAt:   v.EndsAt.Format(timeLayout),
	}
}

// ToCouponResponse converts a domain coupon to its API shape
func ToCouponResponse(c *domain.Coupon) *CouponResponse {
	return &CouponResponse{
		ID:        c.ID,
		UserID:    c.UserID,
		Code:      c.Code,
		Percent:   c.Percent,
		Status:    c.Status,
		ExpiresAt: c.ExpiresAt.Format(timeLayout),
	}
}

// ToPointResponse converts a domain point balance to its API shape
func ToPointResponse(p *domain.PointBalance) *PointResponse {
	return &PointResponse{
		UserID:  p.UserID,
		Balance: p.Balance,
	}
}
