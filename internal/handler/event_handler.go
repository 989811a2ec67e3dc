package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nicholas-0101/event-management-api/internal/dto"
	"github.com/nicholas-0101/event-management-api/internal/service"
	"github.com/nicholas-0101/event-management-api/pkg/middleware"
	"github.com/nicholas-0101/event-management-api/pkg/response"
)

// EventHandler handles event catalog HTTP requests
type EventHandler struct {
	catalog service.CatalogService
}

// NewEventHandler creates a new EventHandler
func NewEventHandler(catalog service.CatalogService) *EventHandler {
	return &EventHandler{catalog: catalog}
}

// List handles GET /event
func (h *EventHandler) List(c *gin.Context) {
	limit, offset := pagination(c)

	events, total, err := h.catalog.ListEvents(c.Request.Context(), &dto.EventListFilter{Limit: limit, Offset: offset})
	if err != nil {
		writeError(c, err)
		return
	}

	eventResponses := make([]*dto.EventResponse, len(events))
	for i, event := range events {
		eventResponses[i] = dto.ToEventResponse(event)
	}
	c.JSON(http.StatusOK, response.Paginated(eventResponses, limit, offset, total))
}

// GetByID handles GET /event/:id
func (h *EventHandler) GetByID(c *gin.Context) {
	event, err := h.catalog.GetEvent(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(dto.ToEventResponse(event)))
}

// GetBySlug handles GET /event/slug/:slug
func (h *EventHandler) GetBySlug(c *gin.Context) {
	event, err := h.catalog.GetEventBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(dto.ToEventResponse(event)))
}

// Create handles POST /event, organizer only
func (h *EventHandler) Create(c *gin.Context) {
	var req dto.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.BadRequest("Invalid request body"))
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok || userID == "" {
		c.JSON(http.StatusUnauthorized, response.Unauthorized("User ID not found in token"))
		return
	}
	req.OrganizerID = userID

	if valid, msg := req.Validate(); !valid {
		c.JSON(http.StatusBadRequest, response.ValidationFailed(msg))
		return
	}

	event, err := h.catalog.CreateEvent(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(dto.ToEventResponse(event)))
}

// TicketsByEvent handles GET /ticket/event/:eventId
func (h *EventHandler) TicketsByEvent(c *gin.Context) {
	tickets, err := h.catalog.GetTicketsByEvent(c.Request.Context(), c.Param("eventId"))
	if err != nil {
		writeError(c, err)
		return
	}

	ticketResponses := make([]*dto.TicketResponse, len(tickets))
	for i, t := range tickets {
		ticketResponses[i] = dto.ToTicketResponse(t)
	}
	c.JSON(http.StatusOK, response.Success(ticketResponses))
}
