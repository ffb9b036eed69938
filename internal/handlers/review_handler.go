package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sbpickleball/match_app/internal/middleware"
	"github.com/sbpickleball/match_app/internal/services"
)

func (h *HandlerManager) HandleReviewTargets(c *gin.Context) {
	targets, err := h.Reviews.ReviewTargets(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"targets": targets})
}

func (h *HandlerManager) HandleSubmitReview(c *gin.Context) {
	var in services.SubmitReviewInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "요청 형식이 올바르지 않아요")
		return
	}

	review, err := h.Reviews.SubmitReview(c.Request.Context(), middleware.UserID(c), c.Param("id"), in)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, review)
}
