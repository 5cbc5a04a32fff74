package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abelbrown/skydeck/internal/api/dto"
	"github.com/abelbrown/skydeck/internal/api/middleware"
	"github.com/abelbrown/skydeck/internal/logging"
	"github.com/abelbrown/skydeck/internal/tutor"
)

type ChatHandler struct {
	chat ChatService
}

func NewChatHandler(chat ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

func (h *ChatHandler) Active(c *gin.Context) {
	c.JSON(http.StatusOK, h.chat.Active(c.Request.Context(), middleware.OwnerFrom(c)))
}

func (h *ChatHandler) Send(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logging.Warn("invalid chat request", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	mode := tutor.ParseMode(req.Mode)
	session, reply, err := h.chat.Send(ctx, middleware.OwnerFrom(c), req.Message, mode)
	if err != nil {
		respondError(c, err, "failed to send message")
		return
	}
	c.JSON(http.StatusOK, dto.ChatResponse{Session: session, Reply: reply, Mode: string(mode)})
}

// Clear starts a new session; the old one stays in history.
func (h *ChatHandler) Clear(c *gin.Context) {
	session, err := h.chat.Clear(c.Request.Context(), middleware.OwnerFrom(c))
	if err != nil {
		respondError(c, err, "failed to start a new session")
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *ChatHandler) History(c *gin.Context) {
	sessions, err := h.chat.History(c.Request.Context(), middleware.OwnerFrom(c))
	if err != nil {
		respondError(c, err, "failed to list sessions")
		return
	}
	c.JSON(http.StatusOK, dto.ToSessionSummaries(sessions))
}

func (h *ChatHandler) Open(c *gin.Context) {
	session, err := h.chat.Open(c.Request.Context(), middleware.OwnerFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, err, "failed to load session")
		return
	}
	c.JSON(http.StatusOK, session)
}
