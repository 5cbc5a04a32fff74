package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abelbrown/skydeck/internal/api/dto"
	"github.com/abelbrown/skydeck/internal/api/middleware"
)

type UserHandler struct {
	users UserService
}

func NewUserHandler(users UserService) *UserHandler {
	return &UserHandler{users: users}
}

func (h *UserHandler) ListEvents(c *gin.Context) {
	events, err := h.users.ListEvents(c.Request.Context(), middleware.OwnerFrom(c))
	if err != nil {
		respondError(c, err, "failed to list events")
		return
	}
	c.JSON(http.StatusOK, events)
}

func (h *UserHandler) SaveEvent(c *gin.Context) {
	var req dto.SaveEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	saved, err := h.users.SaveEvent(c.Request.Context(), middleware.OwnerFrom(c), req.ToModel())
	if err != nil {
		respondError(c, err, "failed to save event")
		return
	}
	c.JSON(http.StatusCreated, saved)
}

func (h *UserHandler) DeleteEvent(c *gin.Context) {
	if err := h.users.DeleteEvent(c.Request.Context(), middleware.OwnerFrom(c), c.Param("id")); err != nil {
		respondError(c, err, "failed to delete event")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) GetProfile(c *gin.Context) {
	p, err := h.users.Profile(c.Request.Context(), middleware.OwnerFrom(c))
	if err != nil {
		respondError(c, err, "failed to load profile")
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *UserHandler) PutProfile(c *gin.Context) {
	var req dto.ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, err := h.users.SaveProfile(c.Request.Context(), middleware.OwnerFrom(c), req.ToModel())
	if err != nil {
		respondError(c, err, "failed to save profile")
		return
	}
	c.JSON(http.StatusOK, p)
}
