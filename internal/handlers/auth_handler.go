package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sbpickleball/match_app/internal/middleware"
	"github.com/sbpickleball/match_app/pkg/logger"
	"github.com/sbpickleball/match_app/pkg/utils"
)

const oauthStateLength = 24

type signInRequest struct {
	Code string `json:"code" binding:"required"`
}

// HandleAuthURL returns the provider's consent page URL and a fresh state value.
func (h *HandlerManager) HandleAuthURL(c *gin.Context) {
	provider, ok := h.Sessions.Provider(c.Param("provider"))
	if !ok {
		badRequest(c, "지원하지 않는 로그인 방식이에요")
		return
	}

	state := utils.GenerateRandomID(oauthStateLength)
	c.JSON(http.StatusOK, gin.H{
		"url":   provider.AuthCodeURL(state),
		"state": state,
	})
}

func (h *HandlerManager) HandleSignIn(c *gin.Context) {
	var req signInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "인증 코드가 필요해요")
		return
	}

	session, err := h.Sessions.SignInWithProvider(c.Request.Context(), c.Param("provider"), req.Code)
	if err != nil {
		renderError(c, err)
		return
	}

	logger.Info("User signed in", "user_id", session.UserID, "provider", session.Provider)
	c.JSON(http.StatusOK, session)
}

func (h *HandlerManager) HandleSession(c *gin.Context) {
	session, _ := middleware.SessionFrom(c)
	c.JSON(http.StatusOK, session)
}

func (h *HandlerManager) HandleSignOut(c *gin.Context) {
	if err := h.Sessions.SignOut(c.Request.Context(), middleware.BearerToken(c)); err != nil {
		renderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
