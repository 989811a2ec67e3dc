package domain

import "time"

// EventCategory is the fixed set of event categories
type EventCategory string

const (
	CategoryMusic     EventCategory = "MUSIC"
	CategorySports    EventCategory = "SPORTS"
	CategoryTheater   EventCategory = "THEATER"
	CategoryWorkshop  EventCategory = "WORKSHOP"
	CategoryFestival  EventCategory = "FESTIVAL"
	CategoryExhibition EventCategory = "EXHIBITION"
)

// IsValid returns true if the category is one of the fixed enum values
func (c EventCategory) IsValid() bool {
	switch c {
	case CategoryMusic, CategorySports, CategoryTheater, CategoryWorkshop, CategoryFestival, CategoryExhibition:
		return true
	}
	return false
}

// Event represents an event in the catalog
type Event struct {
	ID             string        `json:"id"`
	OrganizerID    string        `json:"organizer_id"`
	Name           string        `json:"name"`
	Slug           string        `json:"slug"`
	Description    string        `json:"description"`
	Location       string        `json:"location"`
	Category       EventCategory `json:"category"`
	StartDate      time.Time     `json:"start_date"`
	EndDate        time.Time     `json:"end_date"`
	ThumbnailURL   string        `json:"thumbnail_url"`
	TotalSeats     int           `json:"total_seats"`
	AvailableSeats int           `json:"available_seats"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
	DeletedAt      *time.Time    `json:"deleted_at,omitempty"`
}

// Ticket represents a purchasable allotment of admission within an Event.
// Quota is an immutable ceiling; AvailableQty moves only through transaction
// creation (decrement) and cancellation/rejection/expiry (increment back).
type Ticket struct {
	ID           string    `json:"id"`
	EventID      string    `json:"event_id"`
	Type         string    `json:"type"` // conventionally "REGULAR" / "VIP"
	Price        int64     `json:"price"` // smallest currency unit
	Quota        int       `json:"quota"`
	AvailableQty int       `json:"available_qty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CanHold reports whether qty units can currently be held on this ticket
func (t *Ticket) CanHold(qty int) bool {
	return qty > 0 && qty <= t.AvailableQty
}
