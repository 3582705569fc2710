package middlewares

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const MsgTooManyRequests = "Túl sok kérés, próbáld újra később."

// RateLimiter counts requests per client IP in fixed windows of resetTime.
type RateLimiter struct {
	mu        sync.Mutex
	visitors  map[string]int
	limit     int
	resetTime time.Duration
	stop      chan struct{}
	stopOnce  sync.Once
}

// NewRateLimiter starts the window reset loop; call Stop to end it.
func NewRateLimiter(limit int, resetTime time.Duration) *RateLimiter {
	rl := &RateLimiter{
		visitors:  make(map[string]int),
		limit:     limit,
		resetTime: resetTime,
		stop:      make(chan struct{}),
	}
	go rl.resetLoop()
	return rl
}

func (rl *RateLimiter) resetLoop() {
	ticker := time.NewTicker(rl.resetTime)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.mu.Lock()
			rl.visitors = make(map[string]int)
			rl.mu.Unlock()
		case <-rl.stop:
			return
		}
	}
}

func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

// Allow records one hit for key and reports whether it is within the limit.
// A non-positive limit disables limiting.
func (rl *RateLimiter) Allow(key string) bool {
	if rl.limit <= 0 {
		return true
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.visitors[key]++
	return rl.visitors[key] <= rl.limit
}

func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		visitorIP := c.ClientIP()
		if !rl.Allow(visitorIP) {
			Logger(c).Warn("Rate limit exceeded", zap.String("ip", visitorIP))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"message": MsgTooManyRequests})
			return
		}
		c.Next()
	}
}
