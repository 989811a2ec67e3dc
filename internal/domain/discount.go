package domain

import "time"

// Voucher is an event-scoped percentage discount code, valid inside its window
type Voucher struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event_id"`
	Code      string    `json:"code"`
	Percent   int       `json:"percent"` // 0-100
	StartsAt  time.Time `json:"starts_at"`
	EndsAt    time.Time `json:"ends_at"`
	CreatedAt time.Time `json:"created_at"`
}

// IsActive returns true if now falls inside the validity window
func (v *Voucher) IsActive(now time.Time) bool {
	return !now.Before(v.StartsAt) && !now.After(v.EndsAt)
}

// CouponStatus constants
const (
	CouponStatusAvailable = "AVAILABLE"
	CouponStatusConsumed  = "CONSUMED"
)

// Coupon is a user-scoped percentage discount code. It is consumed by a
// successful transaction creation and returned to available when that
// transaction terminates in any state other than SUCCESS.
type Coupon struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Code      string    `json:"code"`
	Percent   int       `json:"percent"` // 0-100
	Status    string    `json:"status"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// IsUsable returns true if the coupon is unconsumed and unexpired
func (c *Coupon) IsUsable(now time.Time) bool {
	return c.Status == CouponStatusAvailable && now.Before(c.ExpiresAt)
}

// PointBalance is a user's spendable balance, applied as a flat monetary
// deduction rather than a percentage.
type PointBalance struct {
	UserID    string    `json:"user_id"`
	Balance   int64     `json:"balance"` // smallest currency unit, never negative
	UpdatedAt time.Time `json:"updated_at"`
}

// Discount is the typed bundle of instruments applied to a transaction:
// at most one voucher, at most one coupon, and a scalar points amount.
// Validation is centralized in the discount service, not left to callers.
type Discount struct {
	Voucher         *Voucher
	Coupon          *Coupon
	PointsRequested int64
}

// DiscountResult is the outcome of applying a Discount to a subtotal.
// Voucher percentage is applied to the subtotal, coupon percentage to the
// voucher-discounted amount, points last as a flat deduction. Total never
// goes below zero.
type DiscountResult struct {
	Subtotal        int64 `json:"subtotal"`
	VoucherDiscount int64 `json:"voucher_discount"`
	CouponDiscount  int64 `json:"coupon_discount"`
	PointsUsed      int64 `json:"points_used"`
	Total           int64 `json:"total"`
}

// Apply computes the discount result for the given subtotal and available
// point balance. pointsRequested is capped at min(balance, remaining amount).
func (d *Discount) Apply(subtotal, pointBalance int64) DiscountResult {
	res := DiscountResult{Subtotal: subtotal}

	remaining := subtotal
	if d.Voucher != nil {
		res.VoucherDiscount = remaining * int64(d.Voucher.Percent) / 100
		remaining -= res.VoucherDiscount
	}
	if d.Coupon != nil {
		res.CouponDiscount = remaining * int64(d.Coupon.Percent) / 100
		remaining -= res.CouponDiscount
	}

	points := d.PointsRequested
	if points > pointBalance {
		points = pointBalance
	}
	if points > remaining {
		points = remaining
	}
	if points < 0 {
		points = 0
	}
	res.PointsUsed = points
	remaining -= points

	if remaining < 0 {
		remaining = 0
	}
	res.Total = remaining
	return res
}
