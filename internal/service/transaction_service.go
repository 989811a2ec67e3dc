package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/nicholas-0101/event-management-api/internal/client"
	"github.com/nicholas-0101/event-management-api/internal/domain"
	"github.com/nicholas-0101/event-management-api/internal/dto"
	"github.com/nicholas-0101/event-management-api/internal/repository"
	"github.com/nicholas-0101/event-management-api/pkg/telemetry"
)

// transactionMetrics holds the business counters of the transaction lifecycle
type transactionMetrics struct {
	created        *telemetry.Counter
	expired        *telemetry.Counter
	released       *telemetry.Counter
	createDuration *telemetry.Histogram
}

func newTransactionMetrics() *transactionMetrics {
	created, _ := telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "transactions_created_total",
		Description: "Total transactions created",
		Unit:        "{transaction}",
	})
	expired, _ := telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "transactions_expired_total",
		Description: "Total transactions expired past their payment deadline",
		Unit:        "{transaction}",
	})
	released, _ := telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "tickets_released_total",
		Description: "Total ticket quantities released back to inventory",
		Unit:        "{ticket}",
	})
	createDuration, _ := telemetry.NewHistogram(telemetry.MetricOpts{
		Name:        "transaction_create_duration_seconds",
		Description: "Latency of transaction creation",
		Unit:        "s",
	})
	return &transactionMetrics{
		created:        created,
		expired:        expired,
		released:       released,
		createDuration: createDuration,
	}
}

// TransactionConfig tunes transaction creation
type TransactionConfig struct {
	// PendingTTL is how long a transaction may sit in WAITING_PAYMENT or
	// WAITING_CONFIRMATION before it expires
	PendingTTL time.Duration
	// MaxLineItems caps the distinct ticket types in one transaction
	MaxLineItems int
}

// DefaultTransactionConfig returns production defaults
func DefaultTransactionConfig() TransactionConfig {
	return TransactionConfig{
		PendingTTL:   2 * time.Hour,
		MaxLineItems: 2,
	}
}

// transactionService implements the TransactionService interface
type transactionService struct {
	txnRepo     repository.TransactionRepository
	ticketRepo  repository.TicketRepository
	eventRepo   repository.EventRepository
	discountSvc DiscountService
	notifier    client.Notifier
	cache       TicketCache
	cfg         TransactionConfig
	logger      *zap.Logger
	metrics     *transactionMetrics
}

// NewTransactionService creates a new TransactionService. cache may be nil.
func NewTransactionService(
	txnRepo repository.TransactionRepository,
	ticketRepo repository.TicketRepository,
	eventRepo repository.EventRepository,
	discountSvc DiscountService,
	notifier client.Notifier,
	cache TicketCache,
	cfg TransactionConfig,
	logger *zap.Logger,
) TransactionService {
	if cfg.PendingTTL <= 0 {
		cfg.PendingTTL = DefaultTransactionConfig().PendingTTL
	}
	if cfg.MaxLineItems <= 0 {
		cfg.MaxLineItems = DefaultTransactionConfig().MaxLineItems
	}
	if notifier == nil {
		notifier = client.NoOpNotifier{}
	}
	return &transactionService{
		txnRepo:     txnRepo,
		ticketRepo:  ticketRepo,
		eventRepo:   eventRepo,
		discountSvc: discountSvc,
		notifier:    notifier,
		cache:       cache,
		cfg:         cfg,
		logger:      logger,
		metrics:     newTransactionMetrics(),
	}
}

// Create builds and persists a pending transaction. Availability is checked
// twice: a fast pre-check here and the authoritative one inside the
// repository's atomic creation.
func (s *transactionService) Create(ctx context.Context, userID string, req *dto.CreateTransactionRequest) (*domain.Transaction, error) {
	start := time.Now()
	if valid, msg := req.Validate(); !valid {
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, msg)
	}
	if len(req.Tickets) > s.cfg.MaxLineItems {
		return nil, fmt.Errorf("%w: at most %d distinct ticket types per transaction", domain.ErrValidation, s.cfg.MaxLineItems)
	}

	var eventID string
	var subtotal int64
	items := make([]domain.TransactionItem, 0, len(req.Tickets))
	for _, line := range req.Tickets {
		ticket, err := s.ticketRepo.GetByID(ctx, line.TicketID)
		if err != nil {
			return nil, err
		}
		if ticket == nil {
			return nil, fmt.Errorf("%w: ticket %s", domain.ErrNotFound, line.TicketID)
		}
		if eventID == "" {
			eventID = ticket.EventID
		} else if ticket.EventID != eventID {
			return nil, fmt.Errorf("%w: all tickets must belong to the same event", domain.ErrValidation)
		}
		if !ticket.CanHold(line.Qty) {
			return nil, fmt.Errorf("%w: ticket %s has %d left, %d requested",
				domain.ErrInsufficientInventory, ticket.ID, ticket.AvailableQty, line.Qty)
		}
		items = append(items, domain.TransactionItem{
			TicketID:  ticket.ID,
			Qty:       line.Qty,
			UnitPrice: ticket.Price,
		})
		subtotal += ticket.Price * int64(line.Qty)
	}

	discount, err := s.discountSvc.Resolve(ctx, userID, eventID, req.VoucherID, req.CouponID, req.PointsRequested)
	if err != nil {
		return nil, err
	}
	balance, err := s.discountSvc.PointBalance(ctx, userID)
	if err != nil {
		return nil, err
	}
	result := discount.Apply(subtotal, balance.Balance)

	txn, err := domain.NewTransaction(userID, eventID, items, result, req.VoucherID, req.CouponID, s.cfg.PendingTTL)
	if err != nil {
		return nil, err
	}

	if err := s.txnRepo.CreatePending(ctx, txn); err != nil {
		return nil, err
	}
	s.invalidateTicketCache(ctx, eventID)
	s.metrics.created.Inc(ctx, telemetry.EventIDAttr(eventID))
	s.metrics.createDuration.Record(ctx, time.Since(start).Seconds())
	s.logger.Info("transaction created",
		zap.String("transaction_id", txn.ID),
		zap.String("user_id", userID),
		zap.String("event_id", eventID),
		zap.Int64("total_price", txn.TotalPrice),
		zap.Time("expires_at", txn.ExpiresAt))
	return txn, nil
}

// load retrieves a transaction and expires it in passing when its payment
// deadline has lapsed, so callers always observe the effective status.
func (s *transactionService) load(ctx context.Context, id string) (*domain.Transaction, error) {
	txn, err := s.txnRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if txn == nil {
		return nil, fmt.Errorf("%w: transaction %s", domain.ErrNotFound, id)
	}
	now := time.Now()
	if txn.IsOverdue(now) {
		if expired, err := s.expire(ctx, txn, now); err == nil {
			return expired, nil
		}
		// Lost the race against another expirer; re-read the winner's state.
		return s.txnRepo.GetByID(ctx, id)
	}
	return txn, nil
}

// expire applies the EXPIRED transition and persists it
func (s *transactionService) expire(ctx context.Context, txn *domain.Transaction, now time.Time) (*domain.Transaction, error) {
	from := txn.Status
	if err := txn.Expire(now); err != nil {
		return nil, err
	}
	if err := s.txnRepo.Transition(ctx, txn, from, "payment deadline passed"); err != nil {
		return nil, err
	}
	s.invalidateTicketCache(ctx, txn.EventID)
	s.metrics.expired.Inc(ctx, telemetry.TransactionStatusAttr(string(from)))
	s.metrics.released.Add(ctx, int64(txn.TotalQty()), telemetry.EventIDAttr(txn.EventID))
	s.notify(ctx, txn, from, "payment deadline passed")
	s.logger.Info("transaction expired",
		zap.String("transaction_id", txn.ID),
		zap.String("from_status", string(from)))
	return txn, nil
}

func (s *transactionService) authorize(ctx context.Context, actorID, role string, txn *domain.Transaction) error {
	if txn.UserID == actorID {
		return nil
	}
	if role == "ORGANIZER" {
		event, err := s.eventRepo.GetByID(ctx, txn.EventID)
		if err != nil {
			return err
		}
		if event != nil && event.OrganizerID == actorID {
			return nil
		}
	}
	return fmt.Errorf("%w: transaction belongs to another user", domain.ErrForbidden)
}

// Get retrieves a transaction visible to the actor
func (s *transactionService) Get(ctx context.Context, actorID, role, id string) (*domain.Transaction, error) {
	txn, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, actorID, role, txn); err != nil {
		return nil, err
	}
	return txn, nil
}

// ListByUser retrieves the user's transactions, newest first
func (s *transactionService) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.Transaction, int, error) {
	return s.txnRepo.ListByUser(ctx, userID, limit, offset)
}

// ListByOrganizer retrieves transactions on the organizer's events
func (s *transactionService) ListByOrganizer(ctx context.Context, organizerID string, limit, offset int) ([]*domain.Transaction, int, error) {
	return s.txnRepo.ListByOrganizer(ctx, organizerID, limit, offset)
}

// GetTransitions retrieves the status audit trail of a transaction
func (s *transactionService) GetTransitions(ctx context.Context, actorID, role, id string) ([]domain.StatusTransition, error) {
	txn, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, actorID, role, txn); err != nil {
		return nil, err
	}
	return s.txnRepo.GetTransitions(ctx, txn.ID)
}

// SubmitPaymentProof attaches the uploaded proof and moves the transaction to
// WAITING_CONFIRMATION. Overdue transactions expire instead.
func (s *transactionService) SubmitPaymentProof(ctx context.Context, userID, id, proofURL string) (*domain.Transaction, error) {
	txn, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if txn.UserID != userID {
		return nil, fmt.Errorf("%w: transaction belongs to another user", domain.ErrForbidden)
	}
	if txn.Status == domain.StatusExpired {
		return nil, fmt.Errorf("%w: payment deadline passed", domain.ErrExpired)
	}

	from := txn.Status
	if err := txn.SubmitProof(proofURL, time.Now()); err != nil {
		return nil, err
	}
	if err := s.txnRepo.Transition(ctx, txn, from, "payment proof submitted"); err != nil {
		return nil, err
	}
	s.notify(ctx, txn, from, "payment proof submitted")
	s.logger.Info("payment proof submitted",
		zap.String("transaction_id", txn.ID),
		zap.String("user_id", userID))
	return txn, nil
}

// ownedByOrganizer loads a transaction and verifies the organizer owns its event
func (s *transactionService) ownedByOrganizer(ctx context.Context, organizerID, id string) (*domain.Transaction, error) {
	txn, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	event, err := s.eventRepo.GetByID(ctx, txn.EventID)
	if err != nil {
		return nil, err
	}
	if event == nil || event.OrganizerID != organizerID {
		return nil, fmt.Errorf("%w: transaction is not on your event", domain.ErrForbidden)
	}
	return txn, nil
}

// Accept approves a paid transaction. Re-accepting a successful transaction is
// a no-op so organizer retries stay safe.
func (s *transactionService) Accept(ctx context.Context, organizerID, id string) (*domain.Transaction, error) {
	txn, err := s.ownedByOrganizer(ctx, organizerID, id)
	if err != nil {
		return nil, err
	}
	if txn.Status == domain.StatusSuccess {
		return txn, nil
	}

	from := txn.Status
	if err := txn.Accept(); err != nil {
		return nil, err
	}
	if err := s.txnRepo.Transition(ctx, txn, from, "payment approved"); err != nil {
		return nil, err
	}
	s.notify(ctx, txn, from, "payment approved")
	s.logger.Info("transaction accepted",
		zap.String("transaction_id", txn.ID),
		zap.String("organizer_id", organizerID))
	return txn, nil
}

// Reject declines a paid transaction and restores inventory, coupon and points
func (s *transactionService) Reject(ctx context.Context, organizerID, id, reason string) (*domain.Transaction, error) {
	txn, err := s.ownedByOrganizer(ctx, organizerID, id)
	if err != nil {
		return nil, err
	}

	from := txn.Status
	if err := txn.Reject(reason); err != nil {
		return nil, err
	}
	if err := s.txnRepo.Transition(ctx, txn, from, reason); err != nil {
		return nil, err
	}
	s.invalidateTicketCache(ctx, txn.EventID)
	s.notify(ctx, txn, from, reason)
	s.logger.Info("transaction rejected",
		zap.String("transaction_id", txn.ID),
		zap.String("organizer_id", organizerID),
		zap.String("reason", reason))
	return txn, nil
}

// Cancel voids the user's own unpaid transaction
func (s *transactionService) Cancel(ctx context.Context, userID, id string) (*domain.Transaction, error) {
	txn, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if txn.UserID != userID {
		return nil, fmt.Errorf("%w: transaction belongs to another user", domain.ErrForbidden)
	}

	from := txn.Status
	if err := txn.Cancel(); err != nil {
		return nil, err
	}
	if err := s.txnRepo.Transition(ctx, txn, from, "cancelled by user"); err != nil {
		return nil, err
	}
	s.invalidateTicketCache(ctx, txn.EventID)
	s.notify(ctx, txn, from, "cancelled by user")
	s.logger.Info("transaction cancelled",
		zap.String("transaction_id", txn.ID),
		zap.String("user_id", userID))
	return txn, nil
}

// ExpireOverdue expires transactions whose payment deadline passed. A
// transaction already expired by a concurrent pass is skipped, not an error.
func (s *transactionService) ExpireOverdue(ctx context.Context, now time.Time, limit int) (int, error) {
	overdue, err := s.txnRepo.FindOverdue(ctx, now, limit)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, txn := range overdue {
		if _, err := s.expire(ctx, txn, now); err != nil {
			s.logger.Debug("skipping transaction already transitioned",
				zap.String("transaction_id", txn.ID),
				zap.Error(err))
			continue
		}
		expired++
	}
	return expired, nil
}

// notify delivers a best-effort status notification
func (s *transactionService) notify(ctx context.Context, txn *domain.Transaction, from domain.TransactionStatus, reason string) {
	if err := s.notifier.NotifyStatusChange(ctx, txn, from, reason); err != nil {
		s.logger.Warn("status notification failed",
			zap.String("transaction_id", txn.ID),
			zap.String("to_status", string(txn.Status)),
			zap.Error(err))
	}
}

func (s *transactionService) invalidateTicketCache(ctx context.Context, eventID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, ticketCacheKey(eventID)); err != nil {
		s.logger.Warn("ticket cache invalidation failed",
			zap.String("event_id", eventID),
			zap.Error(err))
	}
}
