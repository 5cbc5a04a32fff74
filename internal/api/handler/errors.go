package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abelbrown/skydeck/internal/app"
	"github.com/abelbrown/skydeck/internal/logging"
	"github.com/abelbrown/skydeck/internal/store"
	"github.com/abelbrown/skydeck/internal/tutor"
)

// respondError maps domain errors onto status codes.
func respondError(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, app.ErrAnonymous):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, app.ErrInvalid), errors.Is(err, tutor.ErrEmptyMessage):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	default:
		logging.Error(msg, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	}
}
