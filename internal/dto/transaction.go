package dto

import (
	"github.com/nicholas-0101/event-management-api/internal/domain"
)

// TransactionTicketRequest is one requested line item
type TransactionTicketRequest struct {
	TicketID string `json:"ticket_id" binding:"required"`
	Qty      int    `json:"qty" binding:"required"`
}

// CreateTransactionRequest is the body of POST /transaction
type CreateTransactionRequest struct {
	Tickets         []TransactionTicketRequest `json:"tickets" binding:"required"`
	VoucherID       string                     `json:"voucherId,omitempty"`
	CouponID        string                     `json:"couponId,omitempty"`
	PointsRequested int64                      `json:"pointsUsed,omitempty"`
}

// Validate checks the request shape
func (r *CreateTransactionRequest) Validate() (bool, string) {
	if len(r.Tickets) == 0 {
		return false, "at least one ticket line item is required"
	}
	seen := make(map[string]bool, len(r.Tickets))
	for _, t := range r.Tickets {
		if t.TicketID == "" {
			return false, "ticket_id is required on every line item"
		}
		if t.Qty <= 0 {
			return false, "qty must be positive"
		}
		if seen[t.TicketID] {
			return false, "duplicate ticket_id in line items"
		}
		seen[t.TicketID] = true
	}
	if r.PointsRequested < 0 {
		return false, "pointsUsed must not be negative"
	}
	return true, ""
}

// RejectTransactionRequest is the body of POST /transaction/organizer/reject/:id
type RejectTransactionRequest struct {
	RejectionReason string `json:"rejection_reason"`
}

// Validate checks the request shape
func (r *RejectTransactionRequest) Validate() (bool, string) {
	if r.RejectionReason == "" {
		return false, "rejection_reason is required"
	}
	return true, ""
}

// TransactionItemResponse is one line item in a transaction response
type TransactionItemResponse struct {
	TicketID  string `json:"ticket_id"`
	Qty       int    `json:"qty"`
	UnitPrice int64  `json:"unit_price"`
}

// TransactionResponse is the API shape of a transaction
type TransactionResponse struct {
	ID              string                    `json:"id"`
	UserID          string                    `json:"user_id"`
	EventID         string                    `json:"event_id"`
	Items           []TransactionItemResponse `json:"tickets"`
	VoucherID       string                    `json:"voucher_id,omitempty"`
	CouponID        string                    `json:"coupon_id,omitempty"`
	Subtotal        int64                     `json:"subtotal"`
	DiscountVoucher int64                     `json:"discount_voucher"`
	DiscountCoupon  int64                     `json:"discount_coupon"`
	PointsUsed      int64                     `json:"points_used"`
	TotalPrice      int64                     `json:"total_price"`
	Status          string                    `json:"status"`
	PaymentProofURL string                    `json:"payment_proof_url,omitempty"`
	RejectionReason string                    `json:"rejection_reason,omitempty"`
	CreatedAt       string                    `json:"created_at"`
	ExpiresAt       string                    `json:"expires_at"`
}

const timeLayout = "2006-01-02T15:04:05Z07:00"

// ToTransactionResponse converts a domain transaction to its API shape
func ToTransactionResponse(t *domain.Transaction) *TransactionResponse {
	items := make([]TransactionItemResponse, len(t.Items))
	for i, it := range t.Items {
		items[i] = TransactionItemResponse{
			TicketID:  it.TicketID,
			Qty:       it.Qty,
			UnitPrice: it.UnitPrice,
		}
	}
	return &TransactionResponse{
		ID:              t.ID,
		UserID:          t.UserID,
		EventID:         t.EventID,
		Items:           items,
		VoucherID:       t.VoucherID,
		CouponID:        t.CouponID,
		Subtotal:        t.Subtotal,
		DiscountVoucher: t.VoucherDiscount,
		DiscountCoupon:  t.CouponDiscount,
		PointsUsed:      t.PointsUsed,
		TotalPrice:      t.TotalPrice,
		Status:          string(t.Status),
		PaymentProofURL: t.PaymentProofURL,
		RejectionReason: t.RejectionReason,
		CreatedAt:       t.CreatedAt.Format(timeLayout),
		ExpiresAt:       t.ExpiresAt.Format(timeLayout),
	}
}
