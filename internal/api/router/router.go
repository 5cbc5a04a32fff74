package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abelbrown/skydeck/internal/api/handler"
)

type Handlers struct {
	Feeds *handler.FeedHandler
	Chat  *handler.ChatHandler
	Users      *handler.UserHandler
	Stargazing *handler.StargazingHandler
}

func SetupRoutes(router *gin.Engine, h Handlers) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	{
		FeedRouter(api, h.Feeds)
		ChatRouter(api.Group("/chat"), h.Chat)
		UserRouter(api, h.Users)
		StargazingRouter(api.Group("/stargazing-events"), h.Stargazing)
	}
}

func FeedRouter(rg *gin.RouterGroup, h *handler.FeedHandler) {
	rg.GET("/feeds", h.List)
	rg.GET("/feeds/:name", h.Get)
	rg.POST("/feeds/:name/refresh", h.Refresh)
	rg.GET("/metrics", h.Metrics)
	rg.GET("/lunar", h.Lunar)
}

func ChatRouter(rg *gin.RouterGroup, h *handler.ChatHandler) {
	rg.GET("", h.Active)
	rg.POST("", h.Send)
	rg.DELETE("", h.Clear)
	rg.GET("/sessions", h.History)
	rg.GET("/sessions/:id", h.Open)
}

func UserRouter(rg *gin.RouterGroup, h *handler.UserHandler) {
	rg.GET("/events", h.ListEvents)
	rg.POST("/events", h.SaveEvent)
	rg.DELETE("/events/:id", h.DeleteEvent)
	rg.GET("/profile", h.GetProfile)
	rg.PUT("/profile", h.PutProfile)
}

func StargazingRouter(rg *gin.RouterGroup, h *handler.StargazingHandler) {
	rg.GET("", h.Upcoming)
	rg.POST("", h.Create)
}
