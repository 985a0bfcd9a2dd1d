package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	rateLimitKeyPrefix = "ratelimit:"
	rateLimitWindow    = time.Second
)

// RateLimit caps requests per second per client IP using a Redis counter.
// Redis failures let the request through.
func RateLimit(rdb *redis.Client, limitPerSec int) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := rateLimitKeyPrefix + c.ClientIP()
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		count, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			zap.L().Warn("rate limiter unavailable", zap.Error(err))
			c.Next()
			return
		}
		if count == 1 {
			expireWindow(ctx, rdb, key)
		} else if ttl, err := rdb.TTL(ctx, key).Result(); err != nil || ttl < 0 {
			expireWindow(ctx, rdb, key)
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limitPerSec))
		if count > int64(limitPerSec) {
			c.Header("Retry-After", "1")
			abortWithError(c, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests")
			return
		}
		c.Next()
	}
}

// expireWindow starts the counter's window; a missing TTL is retried on the next request
func expireWindow(ctx context.Context, rdb *redis.Client, key string) {
	if err := rdb.Expire(ctx, key, rateLimitWindow).Err(); err != nil {
		zap.L().Warn("rate limiter failed to set window", zap.String("key", key), zap.Error(err))
	}
}
