package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/abelbrown/skydeck/internal/logging"
	"github.com/abelbrown/skydeck/internal/otel"
)

// Logger logs each request and emits an api.request event.
func Logger(events *otel.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		dur := time.Since(start)
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}

		keyvals := []interface{}{"method", c.Request.Method, "route", route, "status", status, "dur", dur}
		switch {
		case status >= http.StatusInternalServerError:
			logging.Error("request failed", keyvals...)
		case status >= http.StatusBadRequest:
			logging.Warn("request rejected", keyvals...)
		default:
			logging.Debug("request", keyvals...)
		}

		level := otel.LevelDebug
		if status >= http.StatusInternalServerError {
			level = otel.LevelError
		}
		events.Emit(otel.Event{
			Level: level,
			Kind:  otel.KindAPIRequest,
			Comp:  "api",
			Dur:   dur,
			Msg:   fmt.Sprintf("%s %s %d", c.Request.Method, route, status),
		})
	}
}

// Recovery turns a panic into a 500 and logs it.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logging.Error("handler panic", "route", c.FullPath(), "panic", recovered)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	})
}
