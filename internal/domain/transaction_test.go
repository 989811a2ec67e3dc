package domain

import (
	"errors"
	"testing"
	"time"
)

func newTestTransaction(t *testing.T) *Transaction {
	t.Helper()
	txn, err := NewTransaction(
		"user-123",
		"event-123",
		[]TransactionItem{{TicketID: "ticket-1", Qty: 2, UnitPrice: 100_000}},
		DiscountResult{Subtotal: 200_000, Total: 200_000},
		"", "",
		2*time.Hour,
	)
	if err != nil {
		t.Fatalf("NewTransaction() error = %v", err)
	}
	return txn
}

func TestNewTransaction(t *testing.T) {
	tests := []struct {
		name    string
		userID  string
		eventID string
		items   []TransactionItem
		wantErr bool
	}{
		{
			name:    "valid transaction",
			userID:  "user-123",
			eventID: "event-123",
			items:   []TransactionItem{{TicketID: "ticket-1", Qty: 1, UnitPrice: 50_000}},
			wantErr: false,
		},
		{
			name:    "missing user_id",
			userID:  "",
			eventID: "event-123",
			items:   []TransactionItem{{TicketID: "ticket-1", Qty: 1, UnitPrice: 50_000}},
			wantErr: true,
		},
		{
			name:    "missing event_id",
			userID:  "user-123",
			eventID: "",
			items:   []TransactionItem{{TicketID: "ticket-1", Qty: 1, UnitPrice: 50_000}},
			wantErr: true,
		},
		{
			name:    "no line items",
			userID:  "user-123",
			eventID: "event-123",
			items:   nil,
			wantErr: true,
		},
		{
			name:    "zero quantity",
			userID:  "user-123",
			eventID: "event-123",
			items:   []TransactionItem{{TicketID: "ticket-1", Qty: 0, UnitPrice: 50_000}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txn, err := NewTransaction(tt.userID, tt.eventID, tt.items, DiscountResult{}, "", "", time.Hour)

			if tt.wantErr {
				if err == nil {
					t.Error("Expected error but got nil")
				}
				if !errors.Is(err, ErrValidation) {
					t.Errorf("Expected ErrValidation, got %v", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if txn.ID == "" {
				t.Error("Expected transaction ID to be set")
			}
			if txn.Status != StatusWaitingPayment {
				t.Errorf("Expected status WAITING_PAYMENT, got %s", txn.Status)
			}
			if !txn.ExpiresAt.After(txn.CreatedAt) {
				t.Error("Expected expiry to be after creation time")
			}
		})
	}
}

func TestTransactionStatus_CanTransitionTo(t *testing.T) {
	allStatuses := []TransactionStatus{
		StatusWaitingPayment, StatusWaitingConfirmation,
		StatusSuccess, StatusRejected, StatusExpired, StatusCancelled,
	}

	allowed := map[TransactionStatus]map[TransactionStatus]bool{
		StatusWaitingPayment: {
			StatusWaitingConfirmation: true,
			StatusCancelled:           true,
			StatusExpired:             true,
		},
		StatusWaitingConfirmation: {
			StatusSuccess:  true,
			StatusRejected: true,
			StatusExpired:  true,
		},
	}

	// Closure: only the enumerated transitions are reachable from any status.
	for _, from := range allStatuses {
		for _, to := range allStatuses {
			want := allowed[from][to]
			if got := from.CanTransitionTo(to); got != want {
				t.Errorf("CanTransitionTo(%s -> %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestTransactionStatus_IsTerminal(t *testing.T) {
	terminals := []TransactionStatus{StatusSuccess, StatusRejected, StatusExpired, StatusCancelled}
	for _, s := range terminals {
		if !s.IsTerminal() {
			t.Errorf("Expected %s to be terminal", s)
		}
	}
	for _, s := range []TransactionStatus{StatusWaitingPayment, StatusWaitingConfirmation} {
		if s.IsTerminal() {
			t.Errorf("Expected %s to not be terminal", s)
		}
	}
	if TransactionStatus("UNKNOWN").IsValid() {
		t.Error("Expected unknown status to be invalid")
	}
}

func TestTransaction_SubmitProof(t *testing.T) {
	txn := newTestTransaction(t)

	err := txn.SubmitProof("proofs/abc.png", time.Now())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if txn.Status != StatusWaitingConfirmation {
		t.Errorf("Expected status WAITING_CONFIRMATION, got %s", txn.Status)
	}
	if txn.PaymentProofURL != "proofs/abc.png" {
		t.Errorf("Expected proof URL to be recorded, got %q", txn.PaymentProofURL)
	}

	// Submitting again is illegal
	if err := txn.SubmitProof("proofs/again.png", time.Now()); !errors.Is(err, ErrInvalidStateTransition) {
		t.Errorf("Expected ErrInvalidStateTransition, got %v", err)
	}
}

func TestTransaction_SubmitProof_PastDeadline(t *testing.T) {
	txn := newTestTransaction(t)

	err := txn.SubmitProof("proofs/abc.png", txn.ExpiresAt.Add(time.Minute))
	if !errors.Is(err, ErrExpired) {
		t.Errorf("Expected ErrExpired, got %v", err)
	}
	if txn.Status != StatusWaitingPayment {
		t.Errorf("Status should be unchanged, got %s", txn.Status)
	}
}

func TestTransaction_SubmitProof_EmptyProof(t *testing.T) {
	txn := newTestTransaction(t)

	if err := txn.SubmitProof("", time.Now()); !errors.Is(err, ErrValidation) {
		t.Errorf("Expected ErrValidation, got %v", err)
	}
}

func TestTransaction_Accept(t *testing.T) {
	txn := newTestTransaction(t)

	// Accept before confirmation is requested is illegal
	if err := txn.Accept(); !errors.Is(err, ErrInvalidStateTransition) {
		t.Errorf("Expected ErrInvalidStateTransition, got %v", err)
	}

	if err := txn.SubmitProof("proofs/abc.png", time.Now()); err != nil {
		t.Fatalf("SubmitProof() error = %v", err)
	}
	if err := txn.Accept(); err != nil {
		t.Fatalf("Accept() error = %v", err)
	}
	if txn.Status != StatusSuccess {
		t.Errorf("Expected status SUCCESS, got %s", txn.Status)
	}
	if txn.CompletedAt == nil {
		t.Error("Expected completed_at to be set")
	}

	// Re-accepting a SUCCESS transaction is a no-op, not an error
	if err := txn.Accept(); err != nil {
		t.Errorf("Expected idempotent accept, got %v", err)
	}
}

func TestTransaction_Reject(t *testing.T) {
	txn := newTestTransaction(t)
	if err := txn.SubmitProof("proofs/abc.png", time.Now()); err != nil {
		t.Fatalf("SubmitProof() error = %v", err)
	}

	// Empty reason is rejected
	if err := txn.Reject(""); !errors.Is(err, ErrValidation) {
		t.Errorf("Expected ErrValidation for empty reason, got %v", err)
	}

	if err := txn.Reject("blurry payment proof"); err != nil {
		t.Fatalf("Reject() error = %v", err)
	}
	if txn.Status != StatusRejected {
		t.Errorf("Expected status REJECTED, got %s", txn.Status)
	}
	if txn.RejectionReason != "blurry payment proof" {
		t.Errorf("Expected rejection reason to be recorded, got %q", txn.RejectionReason)
	}
	if !txn.Status.RestoresInventory() {
		t.Error("Expected REJECTED to restore inventory")
	}
}

func TestTransaction_Cancel(t *testing.T) {
	txn := newTestTransaction(t)

	if err := txn.Cancel(); err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if txn.Status != StatusCancelled {
		t.Errorf("Expected status CANCELLED, got %s", txn.Status)
	}

	// Cancel after confirmation has been requested is illegal
	txn2 := newTestTransaction(t)
	if err := txn2.SubmitProof("proofs/abc.png", time.Now()); err != nil {
		t.Fatalf("SubmitProof() error = %v", err)
	}
	if err := txn2.Cancel(); !errors.Is(err, ErrInvalidStateTransition) {
		t.Errorf("Expected ErrInvalidStateTransition, got %v", err)
	}
}

func TestTransaction_Expire(t *testing.T) {
	txn := newTestTransaction(t)

	// Not overdue yet
	if err := txn.Expire(time.Now()); !errors.Is(err, ErrInvalidStateTransition) {
		t.Errorf("Expected ErrInvalidStateTransition for non-overdue expire, got %v", err)
	}

	overdue := txn.ExpiresAt.Add(time.Hour)
	if err := txn.Expire(overdue); err != nil {
		t.Fatalf("Expire() error = %v", err)
	}
	if txn.Status != StatusExpired {
		t.Errorf("Expected status EXPIRED, got %s", txn.Status)
	}

	// Expiring a terminal transaction fails
	if err := txn.Expire(overdue.Add(time.Hour)); !errors.Is(err, ErrInvalidStateTransition) {
		t.Errorf("Expected ErrInvalidStateTransition, got %v", err)
	}
}

func TestTransaction_Expire_FromWaitingConfirmation(t *testing.T) {
	txn := newTestTransaction(t)
	if err := txn.SubmitProof("proofs/abc.png", time.Now()); err != nil {
		t.Fatalf("SubmitProof() error = %v", err)
	}

	if err := txn.Expire(txn.ExpiresAt.Add(time.Minute)); err != nil {
		t.Fatalf("Expire() error = %v", err)
	}
	if txn.Status != StatusExpired {
		t.Errorf("Expected status EXPIRED, got %s", txn.Status)
	}
}
