package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sbpickleball/match_app/pkg/errors"
	"github.com/sbpickleball/match_app/pkg/logger"
)

// RateLimiter implements a simple in-memory fixed window rate limiter
type RateLimiter struct {
	userLimits map[string]*windowCount
	ipLimits   map[string]*windowCount
	mu         sync.Mutex

	userMaxRequests int
	ipMaxRequests   int
	window          time.Duration
	now             func() time.Time
}

type windowCount struct {
	requests  int
	resetTime time.Time
}

// NewRateLimiter creates a new rate limiter. Expired entries are removed by Sweep.
func NewRateLimiter(userMaxRequests, ipMaxRequests int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		userLimits:      make(map[string]*windowCount),
		ipLimits:        make(map[string]*windowCount),
		userMaxRequests: userMaxRequests,
		ipMaxRequests:   ipMaxRequests,
		window:          window,
		now:             time.Now,
	}
}

// CheckUserLimit checks if user has exceeded rate limit
func (rl *RateLimiter) CheckUserLimit(userID string) bool {
	return rl.check(rl.userLimits, userID, rl.userMaxRequests)
}

// CheckIPLimit checks if IP has exceeded rate limit
func (rl *RateLimiter) CheckIPLimit(ip string) bool {
	return rl.check(rl.ipLimits, ip, rl.ipMaxRequests)
}

func (rl *RateLimiter) check(limits map[string]*windowCount, key string, max int) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()

	limit, exists := limits[key]
	if !exists || now.After(limit.resetTime) {
		limits[key] = &windowCount{
			requests:  1,
			resetTime: now.Add(rl.window),
		}
		return true
	}

	if limit.requests >= max {
		return false
	}

	limit.requests++
	return true
}

// GetUserRemaining returns remaining requests for user
func (rl *RateLimiter) GetUserRemaining(userID string) int {
	return rl.remaining(rl.userLimits, userID, rl.userMaxRequests)
}

// GetIPRemaining returns remaining requests for IP
func (rl *RateLimiter) GetIPRemaining(ip string) int {
	return rl.remaining(rl.ipLimits, ip, rl.ipMaxRequests)
}

func (rl *RateLimiter) remaining(limits map[string]*windowCount, key string, max int) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	limit, exists := limits[key]
	if !exists || rl.now().After(limit.resetTime) {
		return max
	}

	remaining := max - limit.requests
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Sweep removes expired entries and returns how many went.
func (rl *RateLimiter) Sweep() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	removed := 0
	for _, limits := range []map[string]*windowCount{rl.userLimits, rl.ipLimits} {
		for key, limit := range limits {
			if now.After(limit.resetTime) {
				delete(limits, key)
				removed++
			}
		}
	}
	return removed
}

// Reset clears all rate limits (useful for testing)
func (rl *RateLimiter) Reset() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.userLimits = make(map[string]*windowCount)
	rl.ipLimits = make(map[string]*windowCount)
}

// RateLimit rejects requests over the per-IP limit, and over the per-user
// limit once a session is attached.
func RateLimit(rl *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.CheckIPLimit(c.ClientIP()) {
			logger.Warn("IP rate limit exceeded", "ip", c.ClientIP(), "path", c.FullPath())
			abortRateLimited(c)
			return
		}
		if userID := UserID(c); userID != "" && !rl.CheckUserLimit(userID) {
			logger.Warn("User rate limit exceeded", "user_id", userID, "path", c.FullPath())
			abortRateLimited(c)
			return
		}
		c.Next()
	}
}

func abortRateLimited(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
		"error":   errors.ErrCodeRateLimitExceeded,
		"message": "요청이 너무 많아요. 잠시 후 다시 시도해 주세요",
	})
}
