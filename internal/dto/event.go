package dto

import (
	"time"

	"github.com/nicholas-0101/event-management-api/internal/domain"
)

// CreateTicketRequest is one ticket type in a create-event request
type CreateTicketRequest struct {
	Type  string `json:"type" binding:"required"`
	Price int64  `json:"price"`
	Quota int    `json:"quota"`
}

// CreateEventRequest is the body of POST /event
type CreateEventRequest struct {
	Name         string                `json:"name" binding:"required"`
	Description  string                `json:"description"`
	Location     string                `json:"location" binding:"required"`
	Category     string                `json:"category" binding:"required"`
	StartDate    time.Time             `json:"start_date" binding:"required"`
	EndDate      time.Time             `json:"end_date" binding:"required"`
	ThumbnailURL string                `json:"thumbnail_url"`
	Tickets      []CreateTicketRequest `json:"tickets" binding:"required"`

	// Set from the JWT, not the body
	OrganizerID string `json:"-"`
}

// Validate checks the request shape
func (r *CreateEventRequest) Validate() (bool, string) {
	if r.Name == "" {
		return false, "name is required"
	}
	if !domain.EventCategory(r.Category).IsValid() {
		return false, "unknown category"
	}
	if r.EndDate.Before(r.StartDate) {
		return false, "end_date must not be before start_date"
	}
	if len(r.Tickets) == 0 {
		return false, "at least one ticket type is required"
	}
	for _, t := range r.Tickets {
		if t.Type == "" {
			return false, "ticket type is required"
		}
		if t.Price < 0 {
			return false, "ticket price must not be negative"
		}
		if t.Quota < 0 {
			return false, "ticket quota must not be negative"
		}
	}
	return true, ""
}

// EventListFilter holds pagination for event listing
type EventListFilter struct {
	Limit  int
	Offset int
}

// SetDefaults applies default pagination values
func (f *EventListFilter) SetDefaults() {
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 20
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
}

// TicketResponse is the API shape of a ticket with live availability
type TicketResponse struct {
	ID           string `json:"id"`
	EventID      string `json:"event_id"`
	Type         string `json:"type"`
	Price        int64  `json:"price"`
	Quota        int    `json:"quota"`
	AvailableQty int    `json:"available_qty"`
}

// EventResponse is the API shape of an event
type EventResponse struct {
	ID             string `json:"id"`
	OrganizerID    string `json:"organizer_id"`
	Name           string `json:"name"`
	Slug           string `json:"slug"`
	Description    string `json:"description"`
	Location       string `json:"location"`
	Category       string `json:"category"`
	StartDate      string `json:"start_date"`
	EndDate        string `json:"end_date"`
	ThumbnailURL   string `json:"thumbnail_url"`
	TotalSeats     int    `json:"total_seats"`
	AvailableSeats int    `json:"available_seats"`
}

// ToTicketResponse converts a domain ticket to its API shape
func ToTicketResponse(t *domain.Ticket) *TicketResponse {
	return &TicketResponse{
		ID:           t.ID,
		EventID:      t.EventID,
		Type:         t.Type,
		Price:        t.Price,
		Quota:        t.Quota,
		AvailableQty: t.AvailableQty,
	}
}

// ToEventResponse converts a domain event to its API shape
func ToEventResponse(e *domain.Event) *EventResponse {
	return &EventResponse{
		ID:             e.ID,
		OrganizerID:    e.OrganizerID,
		Name:           e.Name,
		Slug:           e.Slug,
		Description:    e.Description,
		Location:       e.Location,
		Category:       string(e.Category),
		StartDate:      e.StartDate.Format(timeLayout),
		EndDate:        e.EndDate.Format(timeLayout),
		ThumbnailURL:   e.ThumbnailURL,
		TotalSeats:     e.TotalSeats,
		AvailableSeats: e.AvailableSeats,
	}
}
