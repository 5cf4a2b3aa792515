package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/beaconlabs/beacon-core/internal/config"
	"github.com/beaconlabs/beacon-core/pkg/cache"
)

// RateLimiter throttles clients with fixed one-minute windows counted in the
// cache store. The counter increment is atomic, so concurrent requests from
// one client cannot slip past the limit.
func RateLimiter(store cache.Store, cfg func() config.RateLimitConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		limits := cfg()
		if !limits.Enabled || limits.RequestsPerMinute <= 0 {
			c.Next()
			return
		}

		window := time.Now().Unix() / 60
		key := fmt.Sprintf("rate_limit:%s:%d", c.ClientIP(), window)

		count, err := store.Increment(c.Request.Context(), key, time.Minute)
		if err != nil {
			// Fail open: a cache outage must not take the API down with it.
			c.Next()
			return
		}

		maxRequests := int64(limits.RequestsPerMinute)
		c.Header("X-RateLimit-Limit", strconv.FormatInt(maxRequests, 10))
		c.Header("X-RateLimit-Reset", strconv.FormatInt((window+1)*60, 10))

		if count > maxRequests {
			c.Header("X-RateLimit-Remaining", "0")
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":      "rate_limit_exceeded",
				"message":    fmt.Sprintf("Rate limit exceeded. Maximum %d requests per minute allowed.", maxRequests),
				"retryAfter": 60,
			})
			c.Abort()
			return
		}

		c.Header("X-RateLimit-Remaining", strconv.FormatInt(maxRequests-count, 10))
		c.Next()
	}
}
