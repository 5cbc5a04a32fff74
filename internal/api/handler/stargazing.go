package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abelbrown/skydeck/internal/api/dto"
	"github.com/abelbrown/skydeck/internal/api/middleware"
	"github.com/abelbrown/skydeck/internal/model"
)

// StargazingHandler serves the shared listing of organized observing nights.
type StargazingHandler struct {
	events StargazingService
}

func NewStargazingHandler(events StargazingService) *StargazingHandler {
	return &StargazingHandler{events: events}
}

// Upcoming lists the next events, soonest first.
func (h *StargazingHandler) Upcoming(c *gin.Context) {
	events, err := h.events.UpcomingStargazing(c.Request.Context())
	if err != nil {
		respondError(c, err, "failed to list stargazing events")
		return
	}
	if events == nil {
		events = []model.StargazingEvent{}
	}
	c.JSON(http.StatusOK, events)
}

func (h *StargazingHandler) Create(c *gin.Context) {
	var req dto.StargazingEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	saved, err := h.events.AddStargazingEvent(c.Request.Context(), middleware.OwnerFrom(c), req.ToModel())
	if err != nil {
		respondError(c, err, "failed to save stargazing event")
		return
	}
	c.JSON(http.StatusCreated, saved)
}
