package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/nicholas-0101/event-management-api/internal/domain"
)

// MemoryStore is an in-memory implementation of every repository interface,
// used in tests. A single mutex makes each method atomic, which matches the
// database-transaction semantics the Postgres implementations guarantee.
type MemoryStore struct {
	mu           sync.Mutex
	events       map[string]*domain.Event
	tickets      map[string]*domain.Ticket
	vouchers     map[string]*domain.Voucher
	coupons      map[string]*domain.Coupon
	points       map[string]*domain.PointBalance
	transactions map[string]*domain.Transaction
	transitions  map[string][]domain.StatusTransition
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		events:       make(map[string]*domain.Event),
		tickets:      make(map[string]*domain.Ticket),
		vouchers:     make(map[string]*domain.Voucher),
		coupons:      make(map[string]*domain.Coupon),
		points:       make(map[string]*domain.PointBalance),
		transactions: make(map[string]*domain.Transaction),
		transitions:  make(map[string][]domain.StatusTransition),
	}
}

// SeedVoucher stores a voucher for tests
func (s *MemoryStore) SeedVoucher(v *domain.Voucher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *v
	s.vouchers[v.ID] = &cp
}

// SeedCoupon stores a coupon for tests
func (s *MemoryStore) SeedCoupon(c *domain.Coupon) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	s.coupons[c.ID] = &cp
}

// SeedPoints stores a point balance for tests
func (s *MemoryStore) SeedPoints(userID string, balance int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.points[userID] = &domain.PointBalance{UserID: userID, Balance: balance, UpdatedAt: time.Now()}
}

func copyEvent(e *domain.Event) *domain.Event {
	cp := *e
	return &cp
}

func copyTicket(t *domain.Ticket) *domain.Ticket {
	cp := *t
	return &cp
}

func copyTransaction(t *domain.Transaction) *domain.Transaction {
	cp := *t
	cp.Items = make([]domain.TransactionItem, len(t.Items))
	copy(cp.Items, t.Items)
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		cp.CompletedAt = &at
	}
	return &cp
}

// Create inserts an event together with its ticket types
func (s *MemoryStore) Create(ctx context.Context, event *domain.Event, tickets []*domain.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.events {
		if e.Slug == event.Slug && e.DeletedAt == nil {
			return fmt.Errorf("%w: slug %s already taken", domain.ErrValidation, event.Slug)
		}
	}
	s.events[event.ID] = copyEvent(event)
	for _, t := range tickets {
		s.tickets[t.ID] = copyTicket(t)
	}
	return nil
}

// GetByID retrieves an event by ID
func (s *MemoryStore) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	if !ok || e.DeletedAt != nil {
		return nil, nil
	}
	return copyEvent(e), nil
}

// GetBySlug retrieves an event by slug
func (s *MemoryStore) GetBySlug(ctx context.Context, slug string) (*domain.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.events {
		if e.Slug == slug && e.DeletedAt == nil {
			return copyEvent(e), nil
		}
	}
	return nil, nil
}

// List retrieves events with pagination, ordered by start date
func (s *MemoryStore) List(ctx context.Context, limit, offset int) ([]*domain.Event, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []*domain.Event
	for _, e := range s.events {
		if e.DeletedAt == nil {
			all = append(all, copyEvent(e))
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].StartDate.Before(all[j].StartDate) })
	total := len(all)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

// GetTicketByID retrieves a ticket by ID
func (s *MemoryStore) GetTicketByID(ctx context.Context, id string) (*domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tickets[id]
	if !ok {
		return nil, nil
	}
	return copyTicket(t), nil
}

// GetTicketsByEvent retrieves all tickets of an event, cheapest first
func (s *MemoryStore) GetTicketsByEvent(ctx context.Context, eventID string) ([]*domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var tickets []*domain.Ticket
	for _, t := range s.tickets {
		if t.EventID == eventID {
			tickets = append(tickets, copyTicket(t))
		}
	}
	sort.Slice(tickets, func(i, j int) bool { return tickets[i].Price < tickets[j].Price })
	return tickets, nil
}

// GetVoucherByID retrieves a voucher by ID
func (s *MemoryStore) GetVoucherByID(ctx context.Context, id string) (*domain.Voucher, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.vouchers[id]
	if !ok {
		return nil, nil
	}
	cp := *v
	return &cp, nil
}

// GetVouchersByEvent retrieves all vouchers of an event
func (s *MemoryStore) GetVouchersByEvent(ctx context.Context, eventID string) ([]*domain.Voucher, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var vouchers []*domain.Voucher
	for _, v := range s.vouchers {
		if v.EventID == eventID {
			cp := *v
			vouchers = append(vouchers, &cp)
		}
	}
	sort.Slice(vouchers, func(i, j int) bool { return vouchers[i].EndsAt.Before(vouchers[j].EndsAt) })
	return vouchers, nil
}

// GetCouponByID retrieves a coupon by ID
func (s *MemoryStore) GetCouponByID(ctx context.Context, id string) (*domain.Coupon, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.coupons[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

// GetCouponsByUser retrieves all coupons owned by a user
func (s *MemoryStore) GetCouponsByUser(ctx context.Context, userID string) ([]*domain.Coupon, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var coupons []*domain.Coupon
	for _, c := range s.coupons {
		if c.UserID == userID {
			cp := *c
			coupons = append(coupons, &cp)
		}
	}
	sort.Slice(coupons, func(i, j int) bool { return coupons[i].ExpiresAt.Before(coupons[j].ExpiresAt) })
	return coupons, nil
}

// GetPointBalance retrieves a user's point balance, zero when absent
func (s *MemoryStore) GetPointBalance(ctx context.Context, userID string) (*domain.PointBalance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.points[userID]
	if !ok {
		return &domain.PointBalance{UserID: userID, Balance: 0, UpdatedAt: time.Now()}, nil
	}
	cp := *p
	return &cp, nil
}

// CreatePending applies the whole creation unit under the store lock
func (s *MemoryStore) CreatePending(ctx context.Context, txn *domain.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range txn.Items {
		t, ok := s.tickets[item.TicketID]
		if !ok || t.EventID != txn.EventID {
			return fmt.Errorf("%w: ticket %s", domain.ErrNotFound, item.TicketID)
		}
		if item.Qty > t.AvailableQty {
			return fmt.Errorf("%w: ticket %s has %d left, %d requested",
				domain.ErrInsufficientInventory, item.TicketID, t.AvailableQty, item.Qty)
		}
	}

	if txn.CouponID != "" {
		c, ok := s.coupons[txn.CouponID]
		if !ok || c.Status != domain.CouponStatusAvailable {
			return fmt.Errorf("%w: coupon already consumed", domain.ErrDiscountInstrumentInvalid)
		}
		c.Status = domain.CouponStatusConsumed
	}
	if txn.PointsUsed > 0 {
		p, ok := s.points[txn.UserID]
		if !ok || p.Balance < txn.PointsUsed {
			if txn.CouponID != "" {
				s.coupons[txn.CouponID].Status = domain.CouponStatusAvailable
			}
			return fmt.Errorf("%w: insufficient point balance", domain.ErrDiscountInstrumentInvalid)
		}
		p.Balance -= txn.PointsUsed
	}

	totalQty := 0
	for _, item := range txn.Items {
		s.tickets[item.TicketID].AvailableQty -= item.Qty
		totalQty += item.Qty
	}
	if e, ok := s.events[txn.EventID]; ok {
		e.AvailableSeats -= totalQty
	}

	s.transactions[txn.ID] = copyTransaction(txn)
	audit := domain.NewStatusTransition(txn.ID, "", txn.Status, "transaction created")
	s.transitions[txn.ID] = append(s.transitions[txn.ID], *audit)
	return nil
}

// GetTransactionByID retrieves a transaction by ID
func (s *MemoryStore) GetTransactionByID(ctx context.Context, id string) (*domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transactions[id]
	if !ok {
		return nil, nil
	}
	return copyTransaction(t), nil
}

// ListByUser retrieves a user's transactions, newest first
func (s *MemoryStore) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.Transaction, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []*domain.Transaction
	for _, t := range s.transactions {
		if t.UserID == userID {
			all = append(all, copyTransaction(t))
		}
	}
	return paginateTransactions(all, limit, offset)
}

// ListByOrganizer retrieves transactions on the organizer's events, newest first
func (s *MemoryStore) ListByOrganizer(ctx context.Context, organizerID string, limit, offset int) ([]*domain.Transaction, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []*domain.Transaction
	for _, t := range s.transactions {
		e, ok := s.events[t.EventID]
		if ok && e.OrganizerID == organizerID {
			all = append(all, copyTransaction(t))
		}
	}
	return paginateTransactions(all, limit, offset)
}

func paginateTransactions(all []*domain.Transaction, limit, offset int) ([]*domain.Transaction, int, error) {
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	total := len(all)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

// Transition applies a status-guarded update and restores inventory for
// terminal statuses other than SUCCESS.
func (s *MemoryStore) Transition(ctx context.Context, txn *domain.Transaction, from domain.TransactionStatus, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.transactions[txn.ID]
	if !ok {
		return fmt.Errorf("%w: transaction %s", domain.ErrNotFound, txn.ID)
	}
	if stored.Status != from {
		return fmt.Errorf("%w: transaction %s is no longer %s", domain.ErrInvalidStateTransition, txn.ID, from)
	}

	s.transactions[txn.ID] = copyTransaction(txn)

	if txn.Status.RestoresInventory() {
		totalQty := 0
		for _, item := range txn.Items {
			if t, ok := s.tickets[item.TicketID]; ok {
				t.AvailableQty += item.Qty
			}
			totalQty += item.Qty
		}
		if e, ok := s.events[txn.EventID]; ok {
			e.AvailableSeats += totalQty
		}
		if txn.CouponID != "" {
			if c, ok := s.coupons[txn.CouponID]; ok {
				c.Status = domain.CouponStatusAvailable
			}
		}
		if txn.PointsUsed > 0 {
			p, ok := s.points[txn.UserID]
			if !ok {
				p = &domain.PointBalance{UserID: txn.UserID}
				s.points[txn.UserID] = p
			}
			p.Balance += txn.PointsUsed
		}
	}

	audit := domain.NewStatusTransition(txn.ID, from, txn.Status, reason)
	s.transitions[txn.ID] = append(s.transitions[txn.ID], *audit)
	return nil
}

// FindOverdue retrieves non-terminal transactions whose deadline passed
func (s *MemoryStore) FindOverdue(ctx context.Context, now time.Time, limit int) ([]*domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var overdue []*domain.Transaction
	for _, t := range s.transactions {
		if t.IsOverdue(now) {
			overdue = append(overdue, copyTransaction(t))
		}
	}
	sort.Slice(overdue, func(i, j int) bool { return overdue[i].ExpiresAt.Before(overdue[j].ExpiresAt) })
	if len(overdue) > limit {
		overdue = overdue[:limit]
	}
	return overdue, nil
}

// GetTransitions retrieves the transition audit trail of a transaction
func (s *MemoryStore) GetTransitions(ctx context.Context, transactionID string) ([]domain.StatusTransition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	trail := make([]domain.StatusTransition, len(s.transitions[transactionID]))
	copy(trail, s.transitions[transactionID])
	return trail, nil
}

// memoryTicketRepository adapts MemoryStore method names to TicketRepository
type memoryTicketRepository struct{ store *MemoryStore }

// NewMemoryTicketRepository wraps a MemoryStore as a TicketRepository
func NewMemoryTicketRepository(store *MemoryStore) TicketRepository {
	return &memoryTicketRepository{store: store}
}

func (r *memoryTicketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	return r.store.GetTicketByID(ctx, id)
}

func (r *memoryTicketRepository) GetByEventID(ctx context.Context, eventID string) ([]*domain.Ticket, error) {
	return r.store.GetTicketsByEvent(ctx, eventID)
}

// memoryTransactionRepository adapts MemoryStore method names to TransactionRepository
type memoryTransactionRepository struct{ store *MemoryStore }

// NewMemoryTransactionRepository wraps a MemoryStore as a TransactionRepository
func NewMemoryTransactionRepository(store *MemoryStore) TransactionRepository {
	return &memoryTransactionRepository{store: store}
}

func (r *memoryTransactionRepository) CreatePending(ctx context.Context, txn *domain.Transaction) error {
	return r.store.CreatePending(ctx, txn)
}

func (r *memoryTransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	return r.store.GetTransactionByID(ctx, id)
}

func (r *memoryTransactionRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.Transaction, int, error) {
	return r.store.ListByUser(ctx, userID, limit, offset)
}

func (r *memoryTransactionRepository) ListByOrganizer(ctx context.Context, organizerID string, limit, offset int) ([]*domain.Transaction, int, error) {
	return r.store.ListByOrganizer(ctx, organizerID, limit, offset)
}

func (r *memoryTransactionRepository) Transition(ctx context.Context, txn *domain.Transaction, from domain.TransactionStatus, reason string) error {
	return r.store.Transition(ctx, txn, from, reason)
}

func (r *memoryTransactionRepository) FindOverdue(ctx context.Context, now time.Time, limit int) ([]*domain.Transaction, error) {
	return r.store.FindOverdue(ctx, now, limit)
}

func (r *memoryTransactionRepository) GetTransitions(ctx context.Context, transactionID string) ([]domain.StatusTransition, error) {
	return r.store.GetTransitions(ctx, transactionID)
}
