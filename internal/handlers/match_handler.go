package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sbpickleball/match_app/internal/middleware"
	"github.com/sbpickleball/match_app/internal/services"
)

func (h *HandlerManager) HandleSubmitRequest(c *gin.Context) {
	var in services.SubmitRequestInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "요청 형식이 올바르지 않아요")
		return
	}

	req, err := h.Matches.SubmitRequest(c.Request.Context(), middleware.UserID(c), in)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, req)
}

func (h *HandlerManager) HandleListWaiting(c *gin.Context) {
	list, err := h.Matches.ListWaiting(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// HandleAcceptRequest answers 409 ALREADY_TAKEN with refresh=true when
// another user accepted first.
func (h *HandlerManager) HandleAcceptRequest(c *gin.Context) {
	match, err := h.Matches.AcceptRequest(c.Request.Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, match)
}

func (h *HandlerManager) HandleCancelRequest(c *gin.Context) {
	if err := h.Matches.CancelRequest(c.Request.Context(), c.Param("id"), middleware.UserID(c)); err != nil {
		renderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *HandlerManager) HandleListMyMatches(c *gin.Context) {
	matches, err := h.Matches.ListMyMatches(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"matches": matches})
}

func (h *HandlerManager) HandleCompleteMatch(c *gin.Context) {
	match, err := h.Matches.CompleteMatchAs(c.Request.Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, match)
}
