package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nicholas-0101/event-management-api/internal/domain"
)

const transactionColumns = `id, user_id, event_id, voucher_id, coupon_id,
	subtotal, voucher_discount, coupon_discount, points_used, total_price,
	status, payment_proof_url, rejection_reason,
	created_at, updated_at, expires_at, completed_at`

// PostgresTransactionRepository implements TransactionRepository using PostgreSQL
type PostgresTransactionRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresTransactionRepository creates a new PostgresTransactionRepository
func NewPostgresTransactionRepository(pool *pgxpool.Pool) *PostgresTransactionRepository {
	return &PostgresTransactionRepository{pool: pool}
}

// CreatePending commits the whole creation unit in one database transaction.
// Tickets are locked in ID order so concurrent creations cannot deadlock; the
// availability check and decrement happen under that lock.
func (r *PostgresTransactionRepository) CreatePending(ctx context.Context, txn *domain.Transaction) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", domain.ErrTransientFailure, err)
	}
	defer tx.Rollback(ctx)

	items := make([]domain.TransactionItem, len(txn.Items))
	copy(items, txn.Items)
	sort.Slice(items, func(i, j int) bool { return items[i].TicketID < items[j].TicketID })

	totalQty := 0
	for _, item := range items {
		var available int
		err := tx.QueryRow(ctx,
			`SELECT available_qty FROM tickets WHERE id = $1 AND event_id = $2 FOR UPDATE`,
			item.TicketID, txn.EventID,
		).Scan(&available)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("%w: ticket %s", domain.ErrNotFound, item.TicketID)
			}
			return err
		}
		if item.Qty > available {
			return fmt.Errorf("%w: ticket %s has %d left, %d requested",
				domain.ErrInsufficientInventory, item.TicketID, available, item.Qty)
		}
		_, err = tx.Exec(ctx,
			`UPDATE tickets SET available_qty = available_qty - $2, updated_at = $3 WHERE id = $1`,
			item.TicketID, item.Qty, time.Now(),
		)
		if err != nil {
			return err
		}
		totalQty += item.Qty
	}

	_, err = tx.Exec(ctx,
		`UPDATE events SET available_seats = available_seats - $2, updated_at = $3 WHERE id = $1`,
		txn.EventID, totalQty, time.Now(),
	)
	if err != nil {
		return err
	}

	if txn.CouponID != "" {
		result, err := tx.Exec(ctx,
			`UPDATE coupons SET status = $2 WHERE id = $1 AND status = $3`,
			txn.CouponID, domain.CouponStatusConsumed, domain.CouponStatusAvailable,
		)
		if err != nil {
			return err
		}
		if result.RowsAffected() == 0 {
			return fmt.Errorf("%w: coupon already consumed", domain.ErrDiscountInstrumentInvalid)
		}
	}

	if txn.PointsUsed > 0 {
		result, err := tx.Exec(ctx,
			`UPDATE points SET balance = balance - $2, updated_at = $3 WHERE user_id = $1 AND balance >= $2`,
			txn.UserID, txn.PointsUsed, time.Now(),
		)
		if err != nil {
			return err
		}
		if result.RowsAffected() == 0 {
			return fmt.Errorf("%w: insufficient point balance", domain.ErrDiscountInstrumentInvalid)
		}
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO transactions (id, user_id, event_id, voucher_id, coupon_id,
			subtotal, voucher_discount, coupon_discount, points_used, total_price,
			status, payment_proof_url, rejection_reason, created_at, updated_at, expires_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`,
		txn.ID, txn.UserID, txn.EventID, nullable(txn.VoucherID), nullable(txn.CouponID),
		txn.Subtotal, txn.VoucherDiscount, txn.CouponDiscount, txn.PointsUsed, txn.TotalPrice,
		string(txn.Status), nullable(txn.PaymentProofURL), nullable(txn.RejectionReason),
		txn.CreatedAt, txn.UpdatedAt, txn.ExpiresAt, txn.CompletedAt,
	)
	if err != nil {
		return err
	}

	for _, item := range txn.Items {
		_, err = tx.Exec(ctx,
			`INSERT INTO transaction_items (transaction_id, ticket_id, qty, unit_price) VALUES ($1, $2, $3, $4)`,
			txn.ID, item.TicketID, item.Qty, item.UnitPrice,
		)
		if err != nil {
			return err
		}
	}

	if err := insertTransition(ctx, tx, domain.NewStatusTransition(txn.ID, "", txn.Status, "transaction created")); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// GetByID retrieves a transaction with its items
func (r *PostgresTransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`
	txn, err := r.scanTransaction(r.pool.QueryRow(ctx, query, id))
	if err != nil || txn == nil {
		return txn, err
	}
	if err := r.loadItems(ctx, txn); err != nil {
		return nil, err
	}
	return txn, nil
}

// ListByUser retrieves a user's transactions, newest first
func (r *PostgresTransactionRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.Transaction, int, error) {
	return r.list(ctx,
		`SELECT COUNT(*) FROM transactions WHERE user_id = $1`,
		`SELECT `+transactionColumns+` FROM transactions
			WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		userID, limit, offset)
}

// ListByOrganizer retrieves transactions on the organizer's events, newest first
func (r *PostgresTransactionRepository) ListByOrganizer(ctx context.Context, organizerID string, limit, offset int) ([]*domain.Transaction, int, error) {
	return r.list(ctx,
		`SELECT COUNT(*) FROM transactions t
			JOIN events e ON e.id = t.event_id WHERE e.organizer_id = $1`,
		`SELECT `+qualifiedTransactionColumns("t")+` FROM transactions t
			JOIN events e ON e.id = t.event_id
			WHERE e.organizer_id = $1 ORDER BY t.created_at DESC LIMIT $2 OFFSET $3`,
		organizerID, limit, offset)
}

func (r *PostgresTransactionRepository) list(ctx context.Context, countQuery, query, key string, limit, offset int) ([]*domain.Transaction, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, key).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, query, key, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var txns []*domain.Transaction
	for rows.Next() {
		txn, err := r.scanTransaction(rows)
		if err != nil {
			return nil, 0, err
		}
		txns = append(txns, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	for _, txn := range txns {
		if err := r.loadItems(ctx, txn); err != nil {
			return nil, 0, err
		}
	}
	return txns, total, nil
}

// Transition persists an applied transition, guarded on the previous status.
// The conditional UPDATE is the mutual-exclusion gate: when a concurrent
// transition already moved the row, zero rows match and the caller loses.
func (r *PostgresTransactionRepository) Transition(ctx context.Context, txn *domain.Transaction, from domain.TransactionStatus, reason string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", domain.ErrTransientFailure, err)
	}
	defer tx.Rollback(ctx)

	result, err := tx.Exec(ctx, `
		UPDATE transactions
		SET status = $2, payment_proof_url = $3, rejection_reason = $4,
			updated_at = $5, completed_at = $6
		WHERE id = $1 AND status = $7
	`,
		txn.ID, string(txn.Status), nullable(txn.PaymentProofURL), nullable(txn.RejectionReason),
		txn.UpdatedAt, txn.CompletedAt, string(from),
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: transaction %s is no longer %s", domain.ErrInvalidStateTransition, txn.ID, from)
	}

	if txn.Status.RestoresInventory() {
		if err := r.restore(ctx, tx, txn); err != nil {
			return err
		}
	}

	if err := insertTransition(ctx, tx, domain.NewStatusTransition(txn.ID, from, txn.Status, reason)); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// restore gives held ticket quantities, the consumed coupon and deducted
// points back. Runs at most once per transaction because the status guard in
// Transition admits a single restoring transition.
func (r *PostgresTransactionRepository) restore(ctx context.Context, tx pgx.Tx, txn *domain.Transaction) error {
	totalQty := 0
	for _, item := range txn.Items {
		_, err := tx.Exec(ctx,
			`UPDATE tickets SET available_qty = available_qty + $2, updated_at = $3 WHERE id = $1`,
			item.TicketID, item.Qty, time.Now(),
		)
		if err != nil {
			return err
		}
		totalQty += item.Qty
	}
	_, err := tx.Exec(ctx,
		`UPDATE events SET available_seats = available_seats + $2, updated_at = $3 WHERE id = $1`,
		txn.EventID, totalQty, time.Now(),
	)
	if err != nil {
		return err
	}
	if txn.CouponID != "" {
		_, err = tx.Exec(ctx,
			`UPDATE coupons SET status = $2 WHERE id = $1`,
			txn.CouponID, domain.CouponStatusAvailable,
		)
		if err != nil {
			return err
		}
	}
	if txn.PointsUsed > 0 {
		_, err = tx.Exec(ctx,
			`UPDATE points SET balance = balance + $2, updated_at = $3 WHERE user_id = $1`,
			txn.UserID, txn.PointsUsed, time.Now(),
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// FindOverdue retrieves non-terminal transactions whose deadline passed
func (r *PostgresTransactionRepository) FindOverdue(ctx context.Context, now time.Time, limit int) ([]*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions
		WHERE status IN ($1, $2) AND expires_at < $3
		ORDER BY expires_at ASC
		LIMIT $4`
	rows, err := r.pool.Query(ctx, query,
		string(domain.StatusWaitingPayment), string(domain.StatusWaitingConfirmation), now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txns []*domain.Transaction
	for rows.Next() {
		txn, err := r.scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, txn := range txns {
		if err := r.loadItems(ctx, txn); err != nil {
			return nil, err
		}
	}
	return txns, nil
}

// GetTransitions retrieves the transition audit trail of a transaction
func (r *PostgresTransactionRepository) GetTransitions(ctx context.Context, transactionID string) ([]domain.StatusTransition, error) {
	query := `SELECT id, transaction_id, from_status, to_status, reason, timestamp
		FROM transaction_transitions
		WHERE transaction_id = $1
		ORDER BY timestamp ASC`
	rows, err := r.pool.Query(ctx, query, transactionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transitions []domain.StatusTransition
	for rows.Next() {
		var t domain.StatusTransition
		var fromStatus, toStatus string
		var reason *string
		if err := rows.Scan(&t.ID, &t.TransactionID, &fromStatus, &toStatus, &reason, &t.Timestamp); err != nil {
			return nil, err
		}
		t.FromStatus = domain.TransactionStatus(fromStatus)
		t.ToStatus = domain.TransactionStatus(toStatus)
		if reason != nil {
			t.Reason = *reason
		}
		transitions = append(transitions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return transitions, nil
}

func (r *PostgresTransactionRepository) scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	txn := &domain.Transaction{}
	var status string
	var voucherID, couponID, proofURL, rejectionReason *string
	err := row.Scan(
		&txn.ID,
		&txn.UserID,
		&txn.EventID,
		&voucherID,
		&couponID,
		&txn.Subtotal,
		&txn.VoucherDiscount,
		&txn.CouponDiscount,
		&txn.PointsUsed,
		&txn.TotalPrice,
		&status,
		&proofURL,
		&rejectionReason,
		&txn.CreatedAt,
		&txn.UpdatedAt,
		&txn.ExpiresAt,
		&txn.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	txn.Status = domain.TransactionStatus(status)
	if voucherID != nil {
		txn.VoucherID = *voucherID
	}
	if couponID != nil {
		txn.CouponID = *couponID
	}
	if proofURL != nil {
		txn.PaymentProofURL = *proofURL
	}
	if rejectionReason != nil {
		txn.RejectionReason = *rejectionReason
	}
	return txn, nil
}

func (r *PostgresTransactionRepository) loadItems(ctx context.Context, txn *domain.Transaction) error {
	rows, err := r.pool.Query(ctx,
		`SELECT ticket_id, qty, unit_price FROM transaction_items WHERE transaction_id = $1`,
		txn.ID,
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	txn.Items = nil
	for rows.Next() {
		var item domain.TransactionItem
		if err := rows.Scan(&item.TicketID, &item.Qty, &item.UnitPrice); err != nil {
			return err
		}
		txn.Items = append(txn.Items, item)
	}
	return rows.Err()
}

func insertTransition(ctx context.Context, tx pgx.Tx, t *domain.StatusTransition) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO transaction_transitions (id, transaction_id, from_status, to_status, reason, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, t.ID, t.TransactionID, string(t.FromStatus), string(t.ToStatus), nullable(t.Reason), t.Timestamp)
	return err
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func qualifiedTransactionColumns(alias string) string {
	return alias + `.id, ` + alias + `.user_id, ` + alias + `.event_id, ` + alias + `.voucher_id, ` + alias + `.coupon_id,
	` + alias + `.subtotal, ` + alias + `.voucher_discount, ` + alias + `.coupon_discount, ` + alias + `.points_used, ` + alias + `.total_price,
	` + alias + `.status, ` + alias + `.payment_proof_url, ` + alias + `.rejection_reason,
	` + alias + `.created_at, ` + alias + `.updated_at, ` + alias + `.expires_at, ` + alias + `.completed_at`
}
