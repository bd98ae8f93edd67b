package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ecodepin/ecodepin-api/apperrors"
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter is a token bucket per caller, keyed by user id when
// authenticated and by client IP otherwise.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	rate     rate.Limit
	burst    int
	log      *zap.Logger
	now      func() time.Time
}

func NewRateLimiter(requestsPerSecond, burst int, log *zap.Logger) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*limiterEntry),
		rate:     rate.Limit(requestsPerSecond),
		burst:    burst,
		log:      log,
		now:      time.Now,
	}
}

func (rl *RateLimiter) allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	entry, exists := rl.limiters[key]
	if !exists {
		entry = &limiterEntry{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.limiters[key] = entry
	}
	now := rl.now()
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1)
}

func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if user, ok := CurrentUser(c); ok {
			key = "user:" + user.ID
		}

		if !rl.allow(key) {
			rl.log.Warn("rate limit exceeded",
				zap.String("key", key),
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path))
			Abort(c, apperrors.TooManyRequests("Too many requests"))
			return
		}
		c.Next()
	}
}

// Prune drops limiters idle for longer than idle and reports how many.
func (rl *RateLimiter) Prune(idle time.Duration) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-idle)
	removed := 0
	for key, entry := range rl.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(rl.limiters, key)
			removed++
		}
	}
	return removed
}

func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}
