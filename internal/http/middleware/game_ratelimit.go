package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// PlayerRateLimit limits actions per player (not per IP), using Redis when
// available and memory otherwise. Requires Session to run before this.
func PlayerRateLimit(maxActions int, window time.Duration) gin.HandlerFunc {
	local := newLimiterSet(maxActions, window)
	return func(c *gin.Context) {
		playerID := c.GetString(KeyPlayerID)
		if playerID == "" {
			// No player means Session didn't run or failed
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		endpoint := "player:" + c.FullPath()

		var allowed bool
		if redisClient != nil {
			key := "player_rl:" + playerID + ":" + strconv.FormatInt(int64(window.Seconds()), 10)
			var ok bool
			allowed, ok = incrWindow(c, key, maxActions, window)
			if !ok {
				// On Redis error, fail-open but flag it
				c.Header("X-RateLimit-Error", "redis-error")
				c.Next()
				return
			}
		} else {
			var remaining int
			allowed, remaining = local.allow(playerID)
			setLimitHeaders(c, maxActions, remaining)
		}

		if !allowed {
			RLBlocked.WithLabelValues(endpoint).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "action rate limit exceeded",
				"retry_after": int(window.Seconds()),
			})
			return
		}

		RLRequests.WithLabelValues(endpoint).Inc()
		c.Next()
	}
}
