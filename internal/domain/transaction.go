package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TransactionStatus represents the lifecycle status of a transaction
type TransactionStatus string

const (
	StatusWaitingPayment      TransactionStatus = "WAITING_PAYMENT"
	StatusWaitingConfirmation TransactionStatus = "WAITING_CONFIRMATION"
	StatusSuccess             TransactionStatus = "SUCCESS"
	StatusRejected            TransactionStatus = "REJECTED"
	StatusExpired             TransactionStatus = "EXPIRED"
	StatusCancelled           TransactionStatus = "CANCELLED"
)

// validTransitions defines allowed status transitions.
// Key is current status, value is the list of allowed next statuses.
var validTransitions = map[TransactionStatus][]TransactionStatus{
	StatusWaitingPayment:      {StatusWaitingConfirmation, StatusCancelled, StatusExpired},
	StatusWaitingConfirmation: {StatusSuccess, StatusRejected, StatusExpired},
	StatusSuccess:             {}, // Terminal
	StatusRejected:            {}, // Terminal
	StatusExpired:             {}, // Terminal
	StatusCancelled:           {}, // Terminal
}

// IsTerminal returns true if the status is a terminal status
func (s TransactionStatus) IsTerminal() bool {
	allowed, exists := validTransitions[s]
	return exists && len(allowed) == 0
}

// IsValid returns true if the status is a known transaction status
func (s TransactionStatus) IsValid() bool {
	_, exists := validTransitions[s]
	return exists
}

// CanTransitionTo returns true if transition to the target status is allowed
func (s TransactionStatus) CanTransitionTo(target TransactionStatus) bool {
	allowed, exists := validTransitions[s]
	if !exists {
		return false
	}
	for _, a := range allowed {
		if a == target {
			return true
		}
	}
	return false
}

// RestoresInventory returns true if entering this status gives held ticket
// quantities (and any consumed coupon/points) back.
func (s TransactionStatus) RestoresInventory() bool {
	return s == StatusRejected || s == StatusExpired || s == StatusCancelled
}

// TransactionItem is one (ticket, quantity) line of a transaction
type TransactionItem struct {
	TicketID  string `json:"ticket_id"`
	Qty       int    `json:"qty"`
	UnitPrice int64  `json:"unit_price"` // price at creation time
}

// Transaction binds a user, ticket line items, optional discount instruments
// and a lifecycle status. All money fields are in the smallest currency unit.
type Transaction struct {
	ID              string            `json:"id"`
	UserID          string            `json:"user_id"`
	EventID         string            `json:"event_id"`
	Items           []TransactionItem `json:"items"`
	VoucherID       string            `json:"voucher_id,omitempty"`
	CouponID        string            `json:"coupon_id,omitempty"`
	Subtotal        int64             `json:"subtotal"`
	VoucherDiscount int64             `json:"voucher_discount"`
	CouponDiscount  int64             `json:"coupon_discount"`
	PointsUsed      int64             `json:"points_used"`
	TotalPrice      int64             `json:"total_price"`
	Status          TransactionStatus `json:"status"`
	PaymentProofURL string            `json:"payment_proof_url,omitempty"`
	RejectionReason string            `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
	ExpiresAt       time.Time         `json:"expires_at"`
	CompletedAt     *time.Time        `json:"completed_at,omitempty"`
}

// StatusTransition is an audit record of one applied transition
type StatusTransition struct {
	ID            string            `json:"id"`
	TransactionID string            `json:"transaction_id"`
	FromStatus    TransactionStatus `json:"from_status"`
	ToStatus      TransactionStatus `json:"to_status"`
	Reason        string            `json:"reason,omitempty"`
	Timestamp     time.Time         `json:"timestamp"`
}

// NewTransaction creates a transaction in WAITING_PAYMENT with the given
// expiry deadline. Prices must already be resolved by the caller.
func NewTransaction(userID, eventID string, items []TransactionItem, result DiscountResult, voucherID, couponID string, ttl time.Duration) (*Transaction, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user_id is required", ErrValidation)
	}
	if eventID == "" {
		return nil, fmt.Errorf("%w: event_id is required", ErrValidation)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: at least one line item is required", ErrValidation)
	}
	for _, it := range items {
		if it.Qty <= 0 {
			return nil, fmt.Errorf("%w: quantity must be positive", ErrValidation)
		}
	}

	now := time.Now()
	return &Transaction{
		ID:              uuid.New().String(),
		UserID:          userID,
		EventID:         eventID,
		Items:           items,
		VoucherID:       voucherID,
		CouponID:        couponID,
		Subtotal:        result.Subtotal,
		VoucherDiscount: result.VoucherDiscount,
		CouponDiscount:  result.CouponDiscount,
		PointsUsed:      result.PointsUsed,
		TotalPrice:      result.Total,
		Status:          StatusWaitingPayment,
		CreatedAt:       now,
		UpdatedAt:       now,
		ExpiresAt:       now.Add(ttl),
	}, nil
}

// IsOverdue returns true if the expiry deadline has passed while the
// transaction is still in a non-terminal status.
func (t *Transaction) IsOverdue(now time.Time) bool {
	return !t.Status.IsTerminal() && now.After(t.ExpiresAt)
}

// TotalQty returns the total ticket quantity across all line items
func (t *Transaction) TotalQty() int {
	total := 0
	for _, item := range t.Items {
		total += item.Qty
	}
	return total
}

// transitionTo applies a guarded status change
func (t *Transaction) transitionTo(target TransactionStatus) error {
	if !t.Status.CanTransitionTo(target) {
		return fmt.Errorf("%w: cannot transition from %s to %s", ErrInvalidStateTransition, t.Status, target)
	}
	t.Status = target
	t.UpdatedAt = time.Now()
	if target.IsTerminal() {
		now := time.Now()
		t.CompletedAt = &now
	}
	return nil
}

// SubmitProof records the payment proof and moves the transaction to
// WAITING_CONFIRMATION. Legal only from WAITING_PAYMENT before the deadline.
func (t *Transaction) SubmitProof(proofURL string, now time.Time) error {
	if proofURL == "" {
		return fmt.Errorf("%w: payment proof is required", ErrValidation)
	}
	if t.Status != StatusWaitingPayment {
		return fmt.Errorf("%w: cannot submit proof from %s", ErrInvalidStateTransition, t.Status)
	}
	if now.After(t.ExpiresAt) {
		return fmt.Errorf("%w: payment deadline passed", ErrExpired)
	}
	if err := t.transitionTo(StatusWaitingConfirmation); err != nil {
		return err
	}
	t.PaymentProofURL = proofURL
	return nil
}

// Accept moves the transaction to SUCCESS. Accepting an already successful
// transaction is a no-op so organizer retries stay safe.
func (t *Transaction) Accept() error {
	if t.Status == StatusSuccess {
		return nil
	}
	return t.transitionTo(StatusSuccess)
}

// Reject moves the transaction to REJECTED with a mandatory reason
func (t *Transaction) Reject(reason string) error {
	if reason == "" {
		return fmt.Errorf("%w: rejection reason is required", ErrValidation)
	}
	if err := t.transitionTo(StatusRejected); err != nil {
		return err
	}
	t.RejectionReason = reason
	return nil
}

// Cancel moves the transaction to CANCELLED. Legal only while payment has not
// been submitted yet.
func (t *Transaction) Cancel() error {
	if t.Status != StatusWaitingPayment {
		return fmt.Errorf("%w: cannot cancel from %s", ErrInvalidStateTransition, t.Status)
	}
	return t.transitionTo(StatusCancelled)
}

// Expire moves an overdue transaction to EXPIRED
func (t *Transaction) Expire(now time.Time) error {
	if !t.IsOverdue(now) {
		return fmt.Errorf("%w: transaction is not overdue", ErrInvalidStateTransition)
	}
	return t.transitionTo(StatusExpired)
}

// NewStatusTransition creates an audit record for an applied transition
func NewStatusTransition(transactionID string, from, to TransactionStatus, reason string) *StatusTransition {
	return &StatusTransition{
		ID:            uuid.New().String(),
		TransactionID: transactionID,
		FromStatus:    from,
		ToStatus:      to,
		Reason:        reason,
		Timestamp:     time.Now(),
	}
}
