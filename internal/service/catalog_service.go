package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nicholas-0101/event-management-api/internal/domain"
	"github.com/nicholas-0101/event-management-api/internal/dto"
	"github.com/nicholas-0101/event-management-api/internal/repository"
)

// TicketCache caches serialized ticket availability per event. Implementations
// must be safe for concurrent use; a nil cache disables caching.
type TicketCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

const ticketCacheTTL = 3 * time.Second

func ticketCacheKey(eventID string) string {
	return "tickets:event:" + eventID
}

// catalogService implements the CatalogService interface
type catalogService struct {
	eventRepo  repository.EventRepository
	ticketRepo repository.TicketRepository
	cache      TicketCache
	logger     *zap.Logger
}

// NewCatalogService creates a new CatalogService. cache may be nil.
func NewCatalogService(eventRepo repository.EventRepository, ticketRepo repository.TicketRepository, cache TicketCache, logger *zap.Logger) CatalogService {
	return &catalogService{
		eventRepo:  eventRepo,
		ticketRepo: ticketRepo,
		cache:      cache,
		logger:     logger,
	}
}

// slugify turns an event name into a URL slug. A short random suffix keeps
// slugs unique across events with the same name.
func slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	var b strings.Builder
	lastDash := true
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	slug := strings.TrimSuffix(b.String(), "-")
	return slug + "-" + uuid.New().String()[:8]
}

// CreateEvent creates an event together with its ticket types
func (s *catalogService) CreateEvent(ctx context.Context, req *dto.CreateEventRequest) (*domain.Event, error) {
	if valid, msg := req.Validate(); !valid {
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, msg)
	}
	if req.OrganizerID == "" {
		return nil, fmt.Errorf("%w: organizer is required", domain.ErrValidation)
	}

	now := time.Now()
	totalSeats := 0
	for _, t := range req.Tickets {
		totalSeats += t.Quota
	}

	event := &domain.Event{
		ID:             uuid.New().String(),
		OrganizerID:    req.OrganizerID,
		Name:           req.Name,
		Slug:           slugify(req.Name),
		Description:    req.Description,
		Location:       req.Location,
		Category:       domain.EventCategory(req.Category),
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		ThumbnailURL:   req.ThumbnailURL,
		TotalSeats:     totalSeats,
		AvailableSeats: totalSeats,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	tickets := make([]*domain.Ticket, len(req.Tickets))
	for i, t := range req.Tickets {
		tickets[i] = &domain.Ticket{
			ID:           uuid.New().String(),
			EventID:      event.ID,
			Type:         t.Type,
			Price:        t.Price,
			Quota:        t.Quota,
			AvailableQty: t.Quota,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
	}

	if err := s.eventRepo.Create(ctx, event, tickets); err != nil {
		return nil, err
	}
	s.logger.Info("event created",
		zap.String("event_id", event.ID),
		zap.String("organizer_id", event.OrganizerID),
		zap.Int("ticket_types", len(tickets)))
	return event, nil
}

// GetEvent retrieves an event by ID
func (s *catalogService) GetEvent(ctx context.Context, id string) (*domain.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, fmt.Errorf("%w: event %s", domain.ErrNotFound, id)
	}
	return event, nil
}

// GetEventBySlug retrieves an event by slug
func (s *catalogService) GetEventBySlug(ctx context.Context, slug string) (*domain.Event, error) {
	event, err := s.eventRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, fmt.Errorf("%w: event %s", domain.ErrNotFound, slug)
	}
	return event, nil
}

// ListEvents retrieves events with pagination
func (s *catalogService) ListEvents(ctx context.Context, filter *dto.EventListFilter) ([]*domain.Event, int, error) {
	filter.SetDefaults()
	return s.eventRepo.List(ctx, filter.Limit, filter.Offset)
}

// GetTicketsByEvent retrieves the ticket types of an event with live
// availability. Results are cached for a few seconds; the numbers are advisory
// and the real availability check happens inside transaction creation.
func (s *catalogService) GetTicketsByEvent(ctx context.Context, eventID string) ([]*domain.Ticket, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, ticketCacheKey(eventID)); err == nil && cached != "" {
			var tickets []*domain.Ticket
			if err := json.Unmarshal([]byte(cached), &tickets); err == nil {
				return tickets, nil
			}
		}
	}

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, fmt.Errorf("%w: event %s", domain.ErrNotFound, eventID)
	}

	tickets, err := s.ticketRepo.GetByEventID(ctx, eventID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(tickets); err == nil {
			if err := s.cache.Set(ctx, ticketCacheKey(eventID), string(data), ticketCacheTTL); err != nil {
				s.logger.Warn("ticket cache set failed", zap.String("event_id", eventID), zap.Error(err))
			}
		}
	}
	return tickets, nil
}
