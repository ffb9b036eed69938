package handlers

import (
	"net/http"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"
	"github.com/sbpickleball/match_app/internal/middleware"
	"github.com/sbpickleball/match_app/internal/models"
	"github.com/sbpickleball/match_app/pkg/logger"
)

type sendMessageRequest struct {
	Content string `json:"content"`
}

func (h *HandlerManager) HandleHistory(c *gin.Context) {
	msgs, err := h.Chat.History(c.Request.Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// HandleSendMessage echoes the draft back on failure so the client can restore it.
func (h *HandlerManager) HandleSendMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "요청 형식이 올바르지 않아요")
		return
	}

	msg, err := h.Chat.Send(c.Request.Context(), c.Param("id"), middleware.UserID(c), req.Content)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// HandleStream serves the match chat as server-sent events. Each event id is
// the message id, so a reconnecting EventSource resumes via Last-Event-ID.
func (h *HandlerManager) HandleStream(c *gin.Context) {
	ctx := c.Request.Context()
	matchID := c.Param("id")
	userID := middleware.UserID(c)

	if err := h.Chat.CanView(ctx, matchID, userID); err != nil {
		renderError(c, err)
		return
	}

	lastEventID := c.GetHeader("Last-Event-ID")
	if lastEventID == "" {
		lastEventID = c.Query("last_event_id")
	}

	c.Header("Content-Type", sse.ContentType)
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	err := h.Chat.Stream(ctx, matchID, userID, lastEventID, func(m models.Message) error {
		c.Render(-1, sse.Event{Id: m.ID, Event: "message", Data: m})
		c.Writer.Flush()
		return nil
	})
	if err != nil {
		logger.Warn("Chat stream ended with error", "match_id", matchID, "user_id", userID, "error", err)
	}
}
