package service

import (
	"context"
	"fmt"
	"time"

	"github.com/nicholas-0101/event-management-api/internal/domain"
	"github.com/nicholas-0101/event-management-api/internal/repository"
)

// discountService implements the DiscountService interface
type discountService struct {
	discountRepo repository.DiscountRepository
}

// NewDiscountService creates a new DiscountService
func NewDiscountService(discountRepo repository.DiscountRepository) DiscountService {
	return &discountService{discountRepo: discountRepo}
}

// EligibleVouchers returns the vouchers of an event active right now
func (s *discountService) EligibleVouchers(ctx context.Context, eventID string) ([]*domain.Voucher, error) {
	vouchers, err := s.discountRepo.GetVouchersByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	active := make([]*domain.Voucher, 0, len(vouchers))
	for _, v := range vouchers {
		if v.IsActive(now) {
			active = append(active, v)
		}
	}
	return active, nil
}

// EligibleCoupons returns the user's coupons usable right now
func (s *discountService) EligibleCoupons(ctx context.Context, userID string) ([]*domain.Coupon, error) {
	coupons, err := s.discountRepo.GetCouponsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	usable := make([]*domain.Coupon, 0, len(coupons))
	for _, c := range coupons {
		if c.IsUsable(now) {
			usable = append(usable, c)
		}
	}
	return usable, nil
}

// PointBalance returns the user's spendable balance, zero when absent
func (s *discountService) PointBalance(ctx context.Context, userID string) (*domain.PointBalance, error) {
	return s.discountRepo.GetPointBalance(ctx, userID)
}

// Resolve validates the requested instruments and returns the typed bundle.
// All checks run against the current clock; the repository re-validates
// consumption atomically at creation time.
func (s *discountService) Resolve(ctx context.Context, userID, eventID, voucherID, couponID string, pointsRequested int64) (*domain.Discount, error) {
	if pointsRequested < 0 {
		return nil, fmt.Errorf("%w: points must not be negative", domain.ErrDiscountInstrumentInvalid)
	}

	now := time.Now()
	discount := &domain.Discount{PointsRequested: pointsRequested}

	if voucherID != "" {
		voucher, err := s.discountRepo.GetVoucherByID(ctx, voucherID)
		if err != nil {
			return nil, err
		}
		if voucher == nil {
			return nil, fmt.Errorf("%w: voucher %s not found", domain.ErrDiscountInstrumentInvalid, voucherID)
		}
		if voucher.EventID != eventID {
			return nil, fmt.Errorf("%w: voucher belongs to another event", domain.ErrDiscountInstrumentInvalid)
		}
		if !voucher.IsActive(now) {
			return nil, fmt.Errorf("%w: voucher outside its validity window", domain.ErrDiscountInstrumentInvalid)
		}
		discount.Voucher = voucher
	}

	if couponID != "" {
		coupon, err := s.discountRepo.GetCouponByID(ctx, couponID)
		if err != nil {
			return nil, err
		}
		if coupon == nil {
			return nil, fmt.Errorf("%w: coupon %s not found", domain.ErrDiscountInstrumentInvalid, couponID)
		}
		if coupon.UserID != userID {
			return nil, fmt.Errorf("%w: coupon belongs to another user", domain.ErrDiscountInstrumentInvalid)
		}
		if !coupon.IsUsable(now) {
			return nil, fmt.Errorf("%w: coupon is consumed or expired", domain.ErrDiscountInstrumentInvalid)
		}
		discount.Coupon = coupon
	}

	return discount, nil
}
