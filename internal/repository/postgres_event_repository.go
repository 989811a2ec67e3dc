package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nicholas-0101/event-management-api/internal/domain"
)

const eventColumns = `id, organizer_id, name, slug, description, location, category,
	start_date, end_date, thumbnail_url, total_seats, available_seats,
	created_at, updated_at, deleted_at`

// PostgresEventRepository implements EventRepository using PostgreSQL
type PostgresEventRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresEventRepository creates a new PostgresEventRepository
func NewPostgresEventRepository(pool *pgxpool.Pool) *PostgresEventRepository {
	return &PostgresEventRepository{pool: pool}
}

// scanEvent scans a row into an Event struct
func (r *PostgresEventRepository) scanEvent(row pgx.Row) (*domain.Event, error) {
	event := &domain.Event{}
	var category string
	err := row.Scan(
		&event.ID,
		&event.OrganizerID,
		&event.Name,
		&event.Slug,
		&event.Description,
		&event.Location,
		&category,
		&event.StartDate,
		&event.EndDate,
		&event.ThumbnailURL,
		&event.TotalSeats,
		&event.AvailableSeats,
		&event.CreatedAt,
		&event.UpdatedAt,
		&event.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	event.Category = domain.EventCategory(category)
	return event, nil
}

// Create inserts an event together with its ticket types in one transaction
func (r *PostgresEventRepository) Create(ctx context.Context, event *domain.Event, tickets []*domain.Ticket) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", domain.ErrTransientFailure, err)
	}
	defer tx.Rollback(ctx)

	eventQuery := `
		INSERT INTO events (id, organizer_id, name, slug, description, location, category,
			start_date, end_date, thumbnail_url, total_seats, available_seats, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err = tx.Exec(ctx, eventQuery,
		event.ID,
		event.OrganizerID,
		event.Name,
		event.Slug,
		event.Description,
		event.Location,
		string(event.Category),
		event.StartDate,
		event.EndDate,
		event.ThumbnailURL,
		event.TotalSeats,
		event.AvailableSeats,
		event.CreatedAt,
		event.UpdatedAt,
	)
	if err != nil {
		return err
	}

	ticketQuery := `
		INSERT INTO tickets (id, event_id, type, price, quota, available_qty, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	for _, t := range tickets {
		_, err = tx.Exec(ctx, ticketQuery,
			t.ID,
			t.EventID,
			t.Type,
			t.Price,
			t.Quota,
			t.AvailableQty,
			t.CreatedAt,
			t.UpdatedAt,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// GetByID retrieves an event by ID
func (r *PostgresEventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1 AND deleted_at IS NULL`
	return r.scanEvent(r.pool.QueryRow(ctx, query, id))
}

// GetBySlug retrieves an event by slug
func (r *PostgresEventRepository) GetBySlug(ctx context.Context, slug string) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE slug = $1 AND deleted_at IS NULL`
	return r.scanEvent(r.pool.QueryRow(ctx, query, slug))
}

// List retrieves events with pagination
func (r *PostgresEventRepository) List(ctx context.Context, limit, offset int) ([]*domain.Event, int, error) {
	countQuery := `SELECT COUNT(*) FROM events WHERE deleted_at IS NULL`
	var total int
	if err := r.pool.QueryRow(ctx, countQuery).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + eventColumns + ` FROM events
		WHERE deleted_at IS NULL
		ORDER BY start_date ASC
		LIMIT $1 OFFSET $2`
	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var events []*domain.Event
	for rows.Next() {
		event := &domain.Event{}
		var category string
		err := rows.Scan(
			&event.ID,
			&event.OrganizerID,
			&event.Name,
			&event.Slug,
			&event.Description,
			&event.Location,
			&category,
			&event.StartDate,
			&event.EndDate,
			&event.ThumbnailURL,
			&event.TotalSeats,
			&event.AvailableSeats,
			&event.CreatedAt,
			&event.UpdatedAt,
			&event.DeletedAt,
		)
		if err != nil {
			return nil, 0, err
		}
		event.Category = domain.EventCategory(category)
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return events, total, nil
}
