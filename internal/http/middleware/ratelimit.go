package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type limiterEntry struct {
	lim  *rate.Limiter
	last time.Time
}

// limiterSet keeps one token bucket per key for when Redis is absent. A
// bucket holds limit tokens and refills the whole limit over one window.
type limiterSet struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	now     func() time.Time
	clients map[string]*limiterEntry
}

func newLimiterSet(limit int, window time.Duration) *limiterSet {
	return &limiterSet{limit: limit, window: window, now: time.Now, clients: make(map[string]*limiterEntry)}
}

// allow takes a token for key and reports whether one was available and
// how many are left.
func (s *limiterSet) allow(key string) (bool, int) {
	if s.limit < 1 {
		return false, 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	e, ok := s.clients[key]
	if !ok {
		s.sweep(now)
		e = &limiterEntry{lim: rate.NewLimiter(rate.Every(s.window/time.Duration(s.limit)), s.limit)}
		s.clients[key] = e
	}
	e.last = now

	allowed := e.lim.AllowN(now, 1)
	return allowed, max(0, int(e.lim.TokensAt(now)))
}

// sweep drops buckets idle for a full window; they would be full again anyway.
func (s *limiterSet) sweep(now time.Time) {
	if len(s.clients) < 1024 {
		return
	}
	for k, e := range s.clients {
		if now.Sub(e.last) > s.window {
			delete(s.clients, k)
		}
	}
}

func setLimitHeaders(c *gin.Context, limit, remaining int) {
	c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
	c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
}

// SimpleRateLimit blocks clients that send more than maxRequests per window
func SimpleRateLimit(maxRequests int, window time.Duration) gin.HandlerFunc {
	limiters := newLimiterSet(maxRequests, window)
	return func(c *gin.Context) {
		allowed, remaining := limiters.allow(c.ClientIP())
		setLimitHeaders(c, maxRequests, remaining)
		if !allowed {
			RLBlocked.WithLabelValues(c.FullPath()).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		RLRequests.WithLabelValues(c.FullPath()).Inc()
		c.Next()
	}
}

// IPRateLimit uses Redis when it was initialized and memory otherwise.
func IPRateLimit(maxRequests int, window time.Duration) gin.HandlerFunc {
	if RedisEnabled() {
		return RedisRateLimit(maxRequests, window)
	}
	return SimpleRateLimit(maxRequests, window)
}
