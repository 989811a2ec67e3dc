package repository

import (
	"context"
	"time"

	"github.com/nicholas-0101/event-management-api/internal/domain"
)

// EventRepository provides access to events and their tickets
type EventRepository interface {
	// Create inserts an event together with its ticket types
	Create(ctx context.Context, event *domain.Event, tickets []*domain.Ticket) error
	// GetByID retrieves an event by ID; returns nil, nil when not found
	GetByID(ctx context.Context, id string) (*domain.Event, error)
	// GetBySlug retrieves an event by slug; returns nil, nil when not found
	GetBySlug(ctx context.Context, slug string) (*domain.Event, error)
	// List retrieves events with pagination
	List(ctx context.Context, limit, offset int) ([]*domain.Event, int, error)
}

// TicketRepository provides read access to tickets with live availability
type TicketRepository interface {
	// GetByID retrieves a ticket by ID; returns nil, nil when not found
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	// GetByEventID retrieves all tickets of an event
	GetByEventID(ctx context.Context, eventID string) ([]*domain.Ticket, error)
}

// DiscountRepository provides access to vouchers, coupons and point balances
type DiscountRepository interface {
	GetVoucherByID(ctx context.Context, id string) (*domain.Voucher, error)
	GetVouchersByEvent(ctx context.Context, eventID string) ([]*domain.Voucher, error)
	GetCouponByID(ctx context.Context, id string) (*domain.Coupon, error)
	GetCouponsByUser(ctx context.Context, userID string) ([]*domain.Coupon, error)
	// GetPointBalance returns the user's balance; a user without a point row
	// has a zero balance, not an error.
	GetPointBalance(ctx context.Context, userID string) (*domain.PointBalance, error)
}

// TransactionRepository persists transactions and applies their transitions
type TransactionRepository interface {
	// CreatePending commits the whole creation unit atomically: re-checks and
	// decrements ticket availability under lock, consumes the coupon, deducts
	// points and inserts the transaction with its items. Partial application
	// must not occur.
	CreatePending(ctx context.Context, txn *domain.Transaction) error
	// GetByID retrieves a transaction with its items; returns nil, nil when not found
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)
	// ListByUser retrieves a user's transactions, newest first
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.Transaction, int, error)
	// ListByOrganizer retrieves transactions on the organizer's events, newest first
	ListByOrganizer(ctx context.Context, organizerID string, limit, offset int) ([]*domain.Transaction, int, error)
	// Transition persists a transition already applied to txn, guarded on the
	// status the transaction had before (from). When the new status restores
	// inventory, the ticket quantities, coupon and points come back in the
	// same atomic unit. Returns domain.ErrInvalidStateTransition when a
	// concurrent transition won the race.
	Transition(ctx context.Context, txn *domain.Transaction, from domain.TransactionStatus, reason string) error
	// FindOverdue retrieves non-terminal transactions whose deadline passed
	FindOverdue(ctx context.Context, now time.Time, limit int) ([]*domain.Transaction, error)
	// GetTransitions retrieves the transition audit trail of a transaction
	GetTransitions(ctx context.Context, transactionID string) ([]domain.StatusTransition, error)
}
