package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sbpickleball/match_app/internal/auth"
	"github.com/sbpickleball/match_app/pkg/errors"
	"github.com/stretchr/testify/assert"
)

type stubResolver struct {
	delay   time.Duration
	session *auth.Session
}

func (s stubResolver) GetSession(ctx context.Context, token string) (*auth.Session, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if token != "good" {
		return nil, errors.New(errors.ErrCodeUnauthorized, "invalid session")
	}
	return s.session, nil
}

func newRouter(resolver SessionResolver, timeout time.Duration) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Authenticate(resolver, timeout))
	r.GET("/whoami", func(c *gin.Context) {
		c.String(http.StatusOK, UserID(c))
	})
	r.GET("/private", RequireSession(), func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	return r
}

func TestAuthenticate(t *testing.T) {
	session := &auth.Session{UserID: "u1"}

	tests := []struct {
		name     string
		resolver stubResolver
		header   string
		query    string
		wantUser string
	}{
		{"valid bearer", stubResolver{session: session}, "Bearer good", "", "u1"},
		{"valid query token", stubResolver{session: session}, "", "good", "u1"},
		{"invalid token", stubResolver{session: session}, "Bearer bad", "", ""},
		{"no token", stubResolver{session: session}, "", "", ""},
		{"slow backend falls back to anonymous", stubResolver{session: session, delay: time.Second}, "Bearer good", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRouter(tt.resolver, 50*time.Millisecond)

			target := "/whoami"
			if tt.query != "" {
				target += "?access_token=" + tt.query
			}
			req := httptest.NewRequest(http.MethodGet, target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.wantUser, w.Body.String())
		})
	}
}

func TestRequireSession(t *testing.T) {
	r := newRouter(stubResolver{session: &auth.Session{UserID: "u1"}}, time.Second)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/private", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), errors.ErrCodeUnauthorized)

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Bearer good")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireAdmin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Authenticate(stubResolver{session: &auth.Session{UserID: "u1"}}, time.Second))
	r.GET("/admin", RequireSession(), RequireAdmin(func(id string) bool { return id == "ops" }), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer good")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRateLimiter_UserLimit(t *testing.T) {
	rl := NewRateLimiter(3, 100, time.Minute)

	for i := 0; i < 3; i++ {
		assert.True(t, rl.CheckUserLimit("u1"), "request %d", i+1)
	}
	assert.False(t, rl.CheckUserLimit("u1"))
	assert.True(t, rl.CheckUserLimit("u2"), "limits are per user")
	assert.Equal(t, 0, rl.GetUserRemaining("u1"))
	assert.Equal(t, 2, rl.GetUserRemaining("u2"))
}

func TestRateLimiter_WindowResetAndSweep(t *testing.T) {
	rl := NewRateLimiter(1, 1, time.Minute)
	now := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.CheckIPLimit("10.0.0.1"))
	assert.False(t, rl.CheckIPLimit("10.0.0.1"))
	assert.True(t, rl.CheckUserLimit("u1"))

	assert.Equal(t, 0, rl.Sweep())

	now = now.Add(2 * time.Minute)
	assert.Equal(t, 2, rl.Sweep())
	assert.True(t, rl.CheckIPLimit("10.0.0.1"))
	assert.Equal(t, 1, rl.GetUserRemaining("u1"))
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RateLimit(NewRateLimiter(10, 2, time.Minute)))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		codes = append(codes, w.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}
