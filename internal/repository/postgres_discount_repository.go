package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nicholas-0101/event-management-api/internal/domain"
)

const voucherColumns = `id, event_id, code, percent, starts_at, ends_at, created_at`
const couponColumns = `id, user_id, code, percent, status, expires_at, created_at`

// PostgresDiscountRepository implements DiscountRepository using PostgreSQL
type PostgresDiscountRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresDiscountRepository creates a new PostgresDiscountRepository
func NewPostgresDiscountRepository(pool *pgxpool.Pool) *PostgresDiscountRepository {
	return &PostgresDiscountRepository{pool: pool}
}

func (r *PostgresDiscountRepository) scanVoucher(row pgx.Row) (*domain.Voucher, error) {
	v := &domain.Voucher{}
	err := row.Scan(&v.ID, &v.EventID, &v.Code, &v.Percent, &v.StartsAt, &v.EndsAt, &v.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return v, nil
}

func (r *PostgresDiscountRepository) scanCoupon(row pgx.Row) (*domain.Coupon, error) {
	c := &domain.Coupon{}
	err := row.Scan(&c.ID, &c.UserID, &c.Code, &c.Percent, &c.Status, &c.ExpiresAt, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return c, nil
}

// GetVoucherByID retrieves a voucher by ID
func (r *PostgresDiscountRepository) GetVoucherByID(ctx context.Context, id string) (*domain.Voucher, error) {
	query := `SELECT ` + voucherColumns + ` FROM vouchers WHERE id = $1`
	return r.scanVoucher(r.pool.QueryRow(ctx, query, id))
}

// GetVouchersByEvent retrieves all vouchers of an event
func (r *PostgresDiscountRepository) GetVouchersByEvent(ctx context.Context, eventID string) ([]*domain.Voucher, error) {
	query := `SELECT ` + voucherColumns + ` FROM vouchers WHERE event_id = $1 ORDER BY ends_at ASC`
	rows, err := r.pool.Query(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vouchers []*domain.Voucher
	for rows.Next() {
		v := &domain.Voucher{}
		if err := rows.Scan(&v.ID, &v.EventID, &v.Code, &v.Percent, &v.StartsAt, &v.EndsAt, &v.CreatedAt); err != nil {
			return nil, err
		}
		vouchers = append(vouchers, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return vouchers, nil
}

// GetCouponByID retrieves a coupon by ID
func (r *PostgresDiscountRepository) GetCouponByID(ctx context.Context, id string) (*domain.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE id = $1`
	return r.scanCoupon(r.pool.QueryRow(ctx, query, id))
}

// GetCouponsByUser retrieves all coupons owned by a user
func (r *PostgresDiscountRepository) GetCouponsByUser(ctx context.Context, userID string) ([]*domain.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE user_id = $1 ORDER BY expires_at ASC`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var coupons []*domain.Coupon
	for rows.Next() {
		c := &domain.Coupon{}
		if err := rows.Scan(&c.ID, &c.UserID, &c.Code, &c.Percent, &c.Status, &c.ExpiresAt, &c.CreatedAt); err != nil {
			return nil, err
		}
		coupons = append(coupons, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return coupons, nil
}

// GetPointBalance retrieves a user's point balance. A user without a point
// row has a zero balance.
func (r *PostgresDiscountRepository) GetPointBalance(ctx context.Context, userID string) (*domain.PointBalance, error) {
	query := `SELECT user_id, balance, updated_at FROM points WHERE user_id = $1`
	p := &domain.PointBalance{}
	err := r.pool.QueryRow(ctx, query, userID).Scan(&p.UserID, &p.Balance, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &domain.PointBalance{UserID: userID, Balance: 0, UpdatedAt: time.Now()}, nil
		}
		return nil, err
	}
	return p, nil
}
