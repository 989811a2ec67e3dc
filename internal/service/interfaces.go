package service

import (
	"context"
	"time"

	"github.com/nicholas-0101/event-management-api/internal/domain"
	"github.com/nicholas-0101/event-management-api/internal/dto"
)

// CatalogService exposes events and their purchasable tickets
type CatalogService interface {
	// CreateEvent creates an event together with its ticket types
	CreateEvent(ctx context.Context, req *dto.CreateEventRequest) (*domain.Event, error)
	// GetEvent retrieves an event by ID
	GetEvent(ctx context.Context, id string) (*domain.Event, error)
	// GetEventBySlug retrieves an event by slug
	GetEventBySlug(ctx context.Context, slug string) (*domain.Event, error)
	// ListEvents retrieves events with pagination
	ListEvents(ctx context.Context, filter *dto.EventListFilter) ([]*domain.Event, int, error)
	// GetTicketsByEvent retrieves the ticket types of an event with live
	// availability, cheapest first
	GetTicketsByEvent(ctx context.Context, eventID string) ([]*domain.Ticket, error)
}

// DiscountService resolves and validates discount instruments
type DiscountService interface {
	// EligibleVouchers returns the vouchers of an event active right now
	EligibleVouchers(ctx context.Context, eventID string) ([]*domain.Voucher, error)
	// EligibleCoupons returns the user's coupons usable right now
	EligibleCoupons(ctx context.Context, userID string) ([]*domain.Coupon, error)
	// PointBalance returns the user's spendable balance, zero when absent
	PointBalance(ctx context.Context, userID string) (*domain.PointBalance, error)
	// Resolve validates the requested instruments against ownership, scope and
	// validity windows, then returns the typed bundle. Any invalid instrument
	// fails the whole resolution with domain.ErrDiscountInstrumentInvalid.
	Resolve(ctx context.Context, userID, eventID, voucherID, couponID string, pointsRequested int64) (*domain.Discount, error)
}

// TransactionService drives the transaction lifecycle
type TransactionService interface {
	// Create builds and persists a pending transaction for the user
	Create(ctx context.Context, userID string, req *dto.CreateTransactionRequest) (*domain.Transaction, error)
	// Get retrieves a transaction visible to the actor: its buyer or the
	// organizer of its event
	Get(ctx context.Context, actorID, role, id string) (*domain.Transaction, error)
	// ListByUser retrieves the user's transactions, newest first
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.Transaction, int, error)
	// ListByOrganizer retrieves transactions on the organizer's events
	ListByOrganizer(ctx context.Context, organizerID string, limit, offset int) ([]*domain.Transaction, int, error)
	// GetTransitions retrieves the status audit trail of a transaction
	GetTransitions(ctx context.Context, actorID, role, id string) ([]domain.StatusTransition, error)
	// SubmitPaymentProof attaches the uploaded proof and moves the transaction
	// to WAITING_CONFIRMATION
	SubmitPaymentProof(ctx context.Context, userID, id, proofURL string) (*domain.Transaction, error)
	// Accept approves a paid transaction. Only the organizer of the event may
	// accept, and re-accepting a successful transaction is a no-op.
	Accept(ctx context.Context, organizerID, id string) (*domain.Transaction, error)
	// Reject declines a paid transaction with a mandatory reason and restores
	// inventory, coupon and points
	Reject(ctx context.Context, organizerID, id, reason string) (*domain.Transaction, error)
	// Cancel voids the user's own unpaid transaction
	Cancel(ctx context.Context, userID, id string) (*domain.Transaction, error)
	// ExpireOverdue expires transactions whose payment deadline passed.
	// Returns how many were expired in this pass.
	ExpireOverdue(ctx context.Context, now time.Time, limit int) (int, error)
}
