package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nicholas-0101/event-management-api/internal/domain"
)

const ticketColumns = `id, event_id, type, price, quota, available_qty, created_at, updated_at`

// PostgresTicketRepository implements TicketRepository using PostgreSQL
type PostgresTicketRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresTicketRepository creates a new PostgresTicketRepository
func NewPostgresTicketRepository(pool *pgxpool.Pool) *PostgresTicketRepository {
	return &PostgresTicketRepository{pool: pool}
}

func (r *PostgresTicketRepository) scanTicket(row pgx.Row) (*domain.Ticket, error) {
	ticket := &domain.Ticket{}
	err := row.Scan(
		&ticket.ID,
		&ticket.EventID,
		&ticket.Type,
		&ticket.Price,
		&ticket.Quota,
		&ticket.AvailableQty,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return ticket, nil
}

// GetByID retrieves a ticket by ID
func (r *PostgresTicketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id = $1`
	return r.scanTicket(r.pool.QueryRow(ctx, query, id))
}

// GetByEventID retrieves all tickets of an event
func (r *PostgresTicketRepository) GetByEventID(ctx context.Context, eventID string) ([]*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE event_id = $1 ORDER BY price ASC`
	rows, err := r.pool.Query(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tickets []*domain.Ticket
	for rows.Next() {
		ticket := &domain.Ticket{}
		err := rows.Scan(
			&ticket.ID,
			&ticket.EventID,
			&ticket.Type,
			&ticket.Price,
			&ticket.Quota,
			&ticket.AvailableQty,
			&ticket.CreatedAt,
			&ticket.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, ticket)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tickets, nil
}
