package service

import (
	"context"
	"strings"
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

func newCatalog(t *testing.T) (*repository.MemoryStore, CatalogService) {
	t.Helper()
	store := repository.NewMemoryStore()
	return store, NewCatalogService(store, repository.NewMemoryTicketRepository(store), nil, zap.NewNop())
}

func validEventRequest() *dto.CreateEventRequest {
	return &dto.CreateEventRequest{
		Name:      "Jazz Night",
		Location:  "Surabaya",
		Category:  "MUSIC",
		StartDate: time.Now().Add(24 * time.Hour),
		EndDate:   time.Now().Add(48 * time.Hour),
		Tickets: []dto.CreateTicketRequest{
			{Type: "Regular", Price: 150_000, Quota: 100},
			{Type: "VIP", Price: 400_000, Quota: 20},
		},
		OrganizerID: uuid.New().String(),
	}
}

func TestCatalogService_CreateEvent(t *testing.T) {
	_, svc := newCatalog(t)
	event, err := svc.CreateEvent(context.Background(), validEventRequest())
	require.NoError(t, err)

	assert.Equal(t, 120, event.TotalSeats)
	assert.Equal(t, 120, event.AvailableSeats)
	assert.True(t, strings.HasPrefix(event.Slug, "jazz-night-"), "slug %q", event.Slug)

	tickets, err := svc.GetTicketsByEvent(context.Background(), event.ID)
	require.NoError(t, err)
	require.Len(t, tickets, 2)
	assert.Equal(t, "Regular", tickets[0].Type, "tickets come cheapest first")
	assert.Equal(t, 100, tickets[0].AvailableQty)
}

func TestCatalogService_CreateEvent_Invalid(t *testing.T) {
	_, svc := newCatalog(t)

	tests := []struct {
		name   string
		mutate func(*dto.CreateEventRequest)
	}{
		{"missing name", func(r *dto.CreateEventRequest) { r.Name = "" }},
		{"unknown category", func(r *dto.CreateEventRequest) { r.Category = "RAVE" }},
		{"end before start", func(r *dto.CreateEventRequest) { r.EndDate = r.StartDate.Add(-time.Hour) }},
		{"no tickets", func(r *dto.CreateEventRequest) { r.Tickets = nil }},
		{"negative price", func(r *dto.CreateEventRequest) { r.Tickets[0].Price = -1 }},
		{"missing organizer", func(r *dto.CreateEventRequest) { r.OrganizerID = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validEventRequest()
			tt.mutate(req)
			_, err := svc.CreateEvent(context.Background(), req)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestCatalogService_GetEvent_NotFound(t *testing.T) {
	_, svc := newCatalog(t)
	_, err := svc.GetEvent(context.Background(), uuid.New().String())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.GetTicketsByEvent(context.Background(), uuid.New().String())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCatalogService_ListEvents(t *testing.T) {
	_, svc := newCatalog(t)
	for i := 0; i < 3; i++ {
		req := validEventRequest()
		req.StartDate = time.Now().Add(time.Duration(i+1) * 24 * time.Hour)
		req.EndDate = req.StartDate.Add(6 * time.Hour)
		_, err := svc.CreateEvent(context.Background(), req)
		require.NoError(t, err)
	}

	events, total, err := svc.ListEvents(context.Background(), &dto.EventListFilter{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, events, 2)
	assert.True(t, events[0].StartDate.Before(events[1].StartDate))

	rest, total, err := svc.ListEvents(context.Background(), &dto.EventListFilter{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, rest, 1)
}
