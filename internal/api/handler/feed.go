package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/abelbrown/skydeck/internal/api/dto"
	"github.com/abelbrown/skydeck/internal/derive"
)

type FeedHandler struct {
	feeds FeedService
	now   func() time.Time
}

func NewFeedHandler(feeds FeedService, now func() time.Time) *FeedHandler {
	if now == nil {
		now = time.Now
	}
	return &FeedHandler{feeds: feeds, now: now}
}

func (h *FeedHandler) List(c *gin.Context) {
	now := h.now()
	states := h.feeds.Snapshot()
	out := make([]dto.FeedResponse, 0, len(states))
	for _, s := range states {
		out = append(out, dto.ToFeedResponse(s, now))
	}
	c.JSON(http.StatusOK, out)
}

func (h *FeedHandler) Get(c *gin.Context) {
	s, ok := h.feeds.State(c.Param("name"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown feed"})
		return
	}
	c.JSON(http.StatusOK, dto.ToFeedResponse(s, h.now()))
}

// Refresh starts a fetch and returns immediately. A feed that is already
// fetching answers 409; the trigger is dropped, not queued.
func (h *FeedHandler) Refresh(c *gin.Context) {
	name := c.Param("name")
	if _, ok := h.feeds.State(name); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown feed"})
		return
	}
	if !h.feeds.Refresh(name) {
		c.JSON(http.StatusConflict, dto.RefreshResponse{Feed: name, Status: "already fetching"})
		return
	}
	c.JSON(http.StatusAccepted, dto.RefreshResponse{Feed: name, Status: "refreshing"})
}

func (h *FeedHandler) Metrics(c *gin.Context) {
	c.JSON(http.StatusOK, h.feeds.Metrics(h.now()))
}

func (h *FeedHandler) Lunar(c *gin.Context) {
	c.JSON(http.StatusOK, derive.NextLunarPhases(derive.ReferenceNewMoon, derive.SynodicMonth, h.now()))
}
