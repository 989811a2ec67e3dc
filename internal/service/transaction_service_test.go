package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nicholas-0101/event-management-api/internal/domain"
	"github.com/nicholas-0101/event-management-api/internal/dto"
	"github.com/nicholas-0101/event-management-api/internal/repository"
)

type fixture struct {
	store       *repository.MemoryStore
	catalog     CatalogService
	discounts   DiscountService
	txns        TransactionService
	organizerID string
	eventID     string
	ticketID    string
}

func newFixture(t *testing.T, cfg TransactionConfig) *fixture {
	t.Helper()
	store := repository.NewMemoryStore()
	logger := zap.NewNop()
	ticketRepo := repository.NewMemoryTicketRepository(store)
	txnRepo := repository.NewMemoryTransactionRepository(store)

	catalog := NewCatalogService(store, ticketRepo, nil, logger)
	discounts := NewDiscountService(store)
	txns := NewTransactionService(txnRepo, ticketRepo, store, discounts, nil, nil, cfg, logger)

	f := &fixture{
		store:       store,
		catalog:     catalog,
		discounts:   discounts,
		txns:        txns,
		organizerID: uuid.New().String(),
	}

	event, err := catalog.CreateEvent(context.Background(), &dto.CreateEventRequest{
		Name:        "Summer Music Fest",
		Location:    "Jakarta",
		Category:    "MUSIC",
		StartDate:   time.Now().Add(30 * 24 * time.Hour),
		EndDate:     time.Now().Add(31 * 24 * time.Hour),
		Tickets:     []dto.CreateTicketRequest{{Type: "Regular", Price: 100_000, Quota: 10}},
		OrganizerID: f.organizerID,
	})
	require.NoError(t, err)
	f.eventID = event.ID

	tickets, err := catalog.GetTicketsByEvent(context.Background(), event.ID)
	require.NoError(t, err)
	require.Len(t, tickets, 1)
	f.ticketID = tickets[0].ID
	return f
}

func (f *fixture) create(t *testing.T, req *dto.CreateTransactionRequest) *domain.Transaction {
	t.Helper()
	txn, err := f.txns.Create(context.Background(), "user-1", req)
	require.NoError(t, err)
	return txn
}

func (f *fixture) availableQty(t *testing.T) int {
	t.Helper()
	tickets, err := f.catalog.GetTicketsByEvent(context.Background(), f.eventID)
	require.NoError(t, err)
	return tickets[0].AvailableQty
}

func TestTransactionService_Create(t *testing.T) {
	f := newFixture(t, DefaultTransactionConfig())

	txn := f.create(t, &dto.CreateTransactionRequest{
		Tickets: []dto.TransactionTicketRequest{{TicketID: f.ticketID, Qty: 3}},
	})

	assert.Equal(t, int64(300_000), txn.Subtotal)
	assert.Equal(t, int64(300_000), txn.TotalPrice)
	assert.Equal(t, domain.StatusWaitingPayment, txn.Status)
	assert.Equal(t, 7, f.availableQty(t))
	assert.WithinDuration(t, time.Now().Add(2*time.Hour), txn.ExpiresAt, time.Minute)

	trail, err := f.txns.GetTransitions(context.Background(), "user-1", "USER", txn.ID)
	require.NoError(t, err)
	require.Len(t, trail, 1)
	assert.Equal(t, domain.StatusWaitingPayment, trail[0].ToStatus)
}

func TestTransactionService_Create_WithVoucher(t *testing.T) {
	f := newFixture(t, DefaultTransactionConfig())
	voucherID := uuid.New().String()
	f.store.SeedVoucher(&domain.Voucher{
		ID:       voucherID,
		EventID:  f.eventID,
		Code:     "SUMMER10",
		Percent:  10,
		StartsAt: time.Now().Add(-time.Hour),
		EndsAt:   time.Now().Add(time.Hour),
	})

	txn := f.create(t, &dto.CreateTransactionRequest{
		Tickets:   []dto.TransactionTicketRequest{{TicketID: f.ticketID, Qty: 3}},
		VoucherID: voucherID,
	})

	assert.Equal(t, int64(300_000), txn.Subtotal)
	assert.Equal(t, int64(30_000), txn.VoucherDiscount)
	assert.Equal(t, int64(270_000), txn.TotalPrice)
}

func TestTransactionService_Create_VoucherCouponPointsStack(t *testing.T) {
	f := newFixture(t, DefaultTransactionConfig())
	voucherID := uuid.New().String()
	couponID := uuid.New().String()
	f.store.SeedVoucher(&domain.Voucher{
		ID: voucherID, EventID: f.eventID, Code: "V10", Percent: 10,
		StartsAt: time.Now().Add(-time.Hour), EndsAt: time.Now().Add(time.Hour),
	})
	f.store.SeedCoupon(&domain.Coupon{
		ID: couponID, UserID: "user-1", Code: "C20", Percent: 20,
		Status: domain.CouponStatusAvailable, ExpiresAt: time.Now().Add(time.Hour),
	})
	f.store.SeedPoints("user-1", 50_000)

	txn := f.create(t, &dto.CreateTransactionRequest{
		Tickets:         []dto.TransactionTicketRequest{{TicketID: f.ticketID, Qty: 1}},
		VoucherID:       voucherID,
		CouponID:        couponID,
		PointsRequested: 80_000,
	})

	// 100_000 - 10% = 90_000, - 20% = 72_000, points capped at balance 50_000
	assert.Equal(t, int64(10_000), txn.VoucherDiscount)
	assert.Equal(t, int64(18_000), txn.CouponDiscount)
	assert.Equal(t, int64(50_000), txn.PointsUsed)
	assert.Equal(t, int64(22_000), txn.TotalPrice)

	balance, err := f.discounts.PointBalance(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance.Balance)

	coupon, err := f.store.GetCouponByID(context.Background(), couponID)
	require.NoError(t, err)
	assert.Equal(t, domain.CouponStatusConsumed, coupon.Status)
}

func TestTransactionService_Create_Errors(t *testing.T) {
	f := newFixture(t, DefaultTransactionConfig())

	tests := []struct {
		name    string
		req     *dto.CreateTransactionRequest
		wantErr error
	}{
		{
			"no line items",
			&dto.CreateTransactionRequest{},
			domain.ErrValidation,
		},
		{
			"unknown ticket",
			&dto.CreateTransactionRequest{Tickets: []dto.TransactionTicketRequest{{TicketID: uuid.New().String(), Qty: 1}}},
			domain.ErrNotFound,
		},
		{
			"over available quantity",
			&dto.CreateTransactionRequest{Tickets: []dto.TransactionTicketRequest{{TicketID: f.ticketID, Qty: 11}}},
			domain.ErrInsufficientInventory,
		},
		{
			"unknown voucher",
			&dto.CreateTransactionRequest{
				Tickets:   []dto.TransactionTicketRequest{{TicketID: f.ticketID, Qty: 1}},
				VoucherID: uuid.New().String(),
			},
			domain.ErrDiscountInstrumentInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.txns.Create(context.Background(), "user-1", tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
	assert.Equal(t, 10, f.availableQty(t))
}

func TestTransactionService_Create_MaxLineItems(t *testing.T) {
	f := newFixture(t, TransactionConfig{MaxLineItems: 1})
	extra, err := f.catalog.CreateEvent(context.Background(), &dto.CreateEventRequest{
		Name: "Second", Location: "Bali", Category: "SPORTS",
		StartDate: time.Now().Add(24 * time.Hour), EndDate: time.Now().Add(48 * time.Hour),
		Tickets:     []dto.CreateTicketRequest{{Type: "VIP", Price: 500_000, Quota: 5}},
		OrganizerID: f.organizerID,
	})
	require.NoError(t, err)
	extraTickets, err := f.catalog.GetTicketsByEvent(context.Background(), extra.ID)
	require.NoError(t, err)

	_, err = f.txns.Create(context.Background(), "user-1", &dto.CreateTransactionRequest{
		Tickets: []dto.TransactionTicketRequest{
			{TicketID: f.ticketID, Qty: 1},
			{TicketID: extraTickets[0].ID, Qty: 1},
		},
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestTransactionService_Create_MixedEvents(t *testing.T) {
	f := newFixture(t, DefaultTransactionConfig())
	other, err := f.catalog.CreateEvent(context.Background(), &dto.CreateEventRequest{
		Name: "Other Event", Location: "Bandung", Category: "THEATER",
		StartDate: time.Now().Add(24 * time.Hour), EndDate: time.Now().Add(48 * time.Hour),
		Tickets:     []dto.CreateTicketRequest{{Type: "Regular", Price: 50_000, Quota: 5}},
		OrganizerID: uuid.New().String(),
	})
	require.NoError(t, err)
	otherTickets, err := f.catalog.GetTicketsByEvent(context.Background(), other.ID)
	require.NoError(t, err)

	_, err = f.txns.Create(context.Background(), "user-1", &dto.CreateTransactionRequest{
		Tickets: []dto.TransactionTicketRequest{
			{TicketID: f.ticketID, Qty: 1},
			{TicketID: otherTickets[0].ID, Qty: 1},
		},
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestTransactionService_AcceptFlow(t *testing.T) {
	f := newFixture(t, DefaultTransactionConfig())
	txn := f.create(t, &dto.CreateTransactionRequest{
		Tickets: []dto.TransactionTicketRequest{{TicketID: f.ticketID, Qty: 2}},
	})

	_, err := f.txns.Accept(context.Background(), f.organizerID, txn.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition, "accept before payment proof must fail")

	txn, err = f.txns.SubmitPaymentProof(context.Background(), "user-1", txn.ID, "/uploads/proof.png")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusWaitingConfirmation, txn.Status)

	txn, err = f.txns.Accept(context.Background(), f.organizerID, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSuccess, txn.Status)
	assert.NotNil(t, txn.CompletedAt)

	// Idempotent re-accept
	again, err := f.txns.Accept(context.Background(), f.organizerID, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSuccess, again.Status)

	// Inventory stays held on success
	assert.Equal(t, 8, f.availableQty(t))
}

func TestTransactionService_Accept_WrongOrganizer(t *testing.T) {
	f := newFixture(t, DefaultTransactionConfig())
	txn := f.create(t, &dto.CreateTransactionRequest{
		Tickets: []dto.TransactionTicketRequest{{TicketID: f.ticketID, Qty: 1}},
	})
	_, err := f.txns.SubmitPaymentProof(context.Background(), "user-1", txn.ID, "/uploads/proof.png")
	require.NoError(t, err)

	_, err = f.txns.Accept(context.Background(), uuid.New().String(), txn.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestTransactionService_RejectRestoresEverything(t *testing.T) {
	f := newFixture(t, DefaultTransactionConfig())
	couponID := uuid.New().String()
	f.store.SeedCoupon(&domain.Coupon{
		ID: couponID, UserID: "user-1", Code: "C20", Percent: 20,
		Status: domain.CouponStatusAvailable, ExpiresAt: time.Now().Add(time.Hour),
	})
	f.store.SeedPoints("user-1", 30_000)

	txn := f.create(t, &dto.CreateTransactionRequest{
		Tickets:         []dto.TransactionTicketRequest{{TicketID: f.ticketID, Qty: 3}},
		CouponID:        couponID,
		PointsRequested: 30_000,
	})
	assert.Equal(t, 7, f.availableQty(t))

	_, err := f.txns.SubmitPaymentProof(context.Background(), "user-1", txn.ID, "/uploads/proof.png")
	require.NoError(t, err)

	_, err = f.txns.Reject(context.Background(), f.organizerID, txn.ID, "")
	assert.ErrorIs(t, err, domain.ErrValidation, "rejection requires a reason")

	rejected, err := f.txns.Reject(context.Background(), f.organizerID, txn.ID, "proof unreadable")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, rejected.Status)
	assert.Equal(t, "proof unreadable", rejected.RejectionReason)

	assert.Equal(t, 10, f.availableQty(t))
	balance, err := f.discounts.PointBalance(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(30_000), balance.Balance)
	coupon, err := f.store.GetCouponByID(context.Background(), couponID)
	require.NoError(t, err)
	assert.Equal(t, domain.CouponStatusAvailable, coupon.Status)
}

func TestTransactionService_Cancel(t *testing.T) {
	f := newFixture(t, DefaultTransactionConfig())
	txn := f.create(t, &dto.CreateTransactionRequest{
		Tickets: []dto.TransactionTicketRequest{{TicketID: f.ticketID, Qty: 2}},
	})

	_, err := f.txns.Cancel(context.Background(), "someone-else", txn.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	cancelled, err := f.txns.Cancel(context.Background(), "user-1", txn.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, cancelled.Status)
	assert.Equal(t, 10, f.availableQty(t))

	_, err = f.txns.SubmitPaymentProof(context.Background(), "user-1", txn.ID, "/uploads/proof.png")
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)
}

func TestTransactionService_ProofAfterDeadline(t *testing.T) {
	f := newFixture(t, TransactionConfig{PendingTTL: time.Nanosecond, MaxLineItems: 2})
	txn := f.create(t, &dto.CreateTransactionRequest{
		Tickets: []dto.TransactionTicketRequest{{TicketID: f.ticketID, Qty: 4}},
	})
	time.Sleep(time.Millisecond)

	_, err := f.txns.SubmitPaymentProof(context.Background(), "user-1", txn.ID, "/uploads/proof.png")
	assert.ErrorIs(t, err, domain.ErrExpired)

	got, err := f.txns.Get(context.Background(), "user-1", "USER", txn.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusExpired, got.Status)
	assert.Equal(t, 10, f.availableQty(t), "expiry must release held quantity")
}

func TestTransactionService_ExpireOverdue(t *testing.T) {
	f := newFixture(t, TransactionConfig{PendingTTL: time.Nanosecond, MaxLineItems: 2})
	txn := f.create(t, &dto.CreateTransactionRequest{
		Tickets: []dto.TransactionTicketRequest{{TicketID: f.ticketID, Qty: 3}},
	})
	time.Sleep(time.Millisecond)

	expired, err := f.txns.ExpireOverdue(context.Background(), time.Now(), 100)
	require.NoError(t, err)
	assert.Equal(t, 1, expired)
	assert.Equal(t, 10, f.availableQty(t))

	// A second pass finds nothing left to expire
	expired, err = f.txns.ExpireOverdue(context.Background(), time.Now(), 100)
	require.NoError(t, err)
	assert.Equal(t, 0, expired)

	got, err := f.txns.Get(context.Background(), "user-1", "USER", txn.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusExpired, got.Status)
}

func TestTransactionService_Get_Authorization(t *testing.T) {
	f := newFixture(t, DefaultTransactionConfig())
	txn := f.create(t, &dto.CreateTransactionRequest{
		Tickets: []dto.TransactionTicketRequest{{TicketID: f.ticketID, Qty: 1}},
	})

	_, err := f.txns.Get(context.Background(), "user-1", "USER", txn.ID)
	assert.NoError(t, err)

	_, err = f.txns.Get(context.Background(), f.organizerID, "ORGANIZER", txn.ID)
	assert.NoError(t, err)

	_, err = f.txns.Get(context.Background(), "stranger", "USER", txn.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.txns.Get(context.Background(), "user-1", "USER", uuid.New().String())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTransactionService_ConcurrentCreationNeverOversells(t *testing.T) {
	f := newFixture(t, DefaultTransactionConfig())

	const workers = 50
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := f.txns.Create(context.Background(), uuid.New().String(), &dto.CreateTransactionRequest{
				Tickets: []dto.TransactionTicketRequest{{TicketID: f.ticketID, Qty: 1}},
			})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			if !errors.Is(err, domain.ErrInsufficientInventory) {
				t.Errorf("worker %d: unexpected error: %v", n, err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 10, succeeded, "exactly the quota must be sold")
	assert.Equal(t, 0, f.availableQty(t))
}

func TestTransactionService_ConcurrentAcceptReject(t *testing.T) {
	f := newFixture(t, DefaultTransactionConfig())
	txn := f.create(t, &dto.CreateTransactionRequest{
		Tickets: []dto.TransactionTicketRequest{{TicketID: f.ticketID, Qty: 1}},
	})
	_, err := f.txns.SubmitPaymentProof(context.Background(), "user-1", txn.ID, "/uploads/proof.png")
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, results[0] = f.txns.Accept(context.Background(), f.organizerID, txn.ID)
	}()
	go func() {
		defer wg.Done()
		_, results[1] = f.txns.Reject(context.Background(), f.organizerID, txn.ID, "duplicate payment")
	}()
	wg.Wait()

	got, err := f.txns.Get(context.Background(), "user-1", "USER", txn.ID)
	require.NoError(t, err)
	assert.True(t, got.Status.IsTerminal())
	// Whichever lost must have seen the state race, not silently won too
	if results[0] == nil && results[1] == nil {
		t.Fatal("accept and reject cannot both succeed")
	}
}
