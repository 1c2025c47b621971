package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/soihub/soi-hub-backend/internal/models"
	"github.com/soihub/soi-hub-backend/internal/service"
)

// EventHandler handles event HTTP requests
type EventHandler struct {
	eventService service.EventService
}

func NewEventHandler(eventService service.EventService) *EventHandler {
	return &EventHandler{eventService: eventService}
}

func (h *EventHandler) Create(c *gin.Context) {
	var req models.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	event, err := h.eventService.CreateEvent(c.Request.Context(), &service.CreateEventInput{
		Name:      req.Name,
		Slug:      req.Slug,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toEventResponse(event))
}

func (h *EventHandler) Get(c *gin.Context) {
	event, err := h.eventService.GetEvent(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, toEventResponse(event))
}

func (h *EventHandler) List(c *gin.Context) {
	events, err := h.eventService.ListEvents(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}

	responses := make([]models.EventResponse, 0, len(events))
	for _, e := range events {
		responses = append(responses, toEventResponse(e))
	}
	c.JSON(http.StatusOK, responses)
}

func (h *EventHandler) Update(c *gin.Context) {
	var req models.UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	event, err := h.eventService.UpdateEvent(c.Request.Context(), c.Param("id"), &service.UpdateEventInput{
		Name:      req.Name,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, toEventResponse(event))
}

func (h *EventHandler) Activate(c *gin.Context) {
	event, err := h.eventService.ActivateEvent(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, toEventResponse(event))
}

func (h *EventHandler) Archive(c *gin.Context) {
	event, err := h.eventService.ArchiveEvent(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, toEventResponse(event))
}
