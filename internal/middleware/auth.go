package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sbpickleball/match_app/internal/auth"
	"github.com/sbpickleball/match_app/pkg/errors"
	"github.com/sbpickleball/match_app/pkg/logger"
)

const sessionKey = "session"

// SessionResolver validates a bearer token.
type SessionResolver interface {
	GetSession(ctx context.Context, token string) (*auth.Session, error)
}

// BearerToken extracts the token from the Authorization header, falling back
// to the access_token query parameter for EventSource clients.
func BearerToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return c.Query("access_token")
}

// Authenticate attaches the session when the token resolves within timeout.
// A missing, invalid or slow session leaves the request unauthenticated.
func Authenticate(sessions SessionResolver, timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c)
		if token == "" {
			c.Next()
			return
		}

		session, err := auth.ResolveWithin(c.Request.Context(), timeout, func(ctx context.Context) (*auth.Session, error) {
			return sessions.GetSession(ctx, token)
		})
		switch {
		case err == auth.ErrResolveTimeout:
			logger.Warn("Session resolution timed out", "path", c.FullPath(), "timeout", timeout.String())
		case err != nil:
			logger.Debug("Session rejected", "path", c.FullPath(), "error", err)
		default:
			c.Set(sessionKey, session)
		}
		c.Next()
	}
}

// RequireSession rejects requests without a session.
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := SessionFrom(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   errors.ErrCodeUnauthorized,
				"message": "로그인이 필요해요",
			})
			return
		}
		c.Next()
	}
}

// RequireAdmin rejects signed-in users that are not operators. Use after RequireSession.
func RequireAdmin(isAdmin func(userID string) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !isAdmin(UserID(c)) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":   errors.ErrCodeForbidden,
				"message": "관리자만 사용할 수 있어요",
			})
			return
		}
		c.Next()
	}
}

func SessionFrom(c *gin.Context) (*auth.Session, bool) {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil, false
	}
	s, ok := v.(*auth.Session)
	return s, ok && s != nil
}

// UserID is the signed-in user's id, or "" when unauthenticated.
func UserID(c *gin.Context) string {
	if s, ok := SessionFrom(c); ok {
		return s.UserID
	}
	return ""
}
