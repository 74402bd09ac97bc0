// Package ratelimit bounds how fast a single client can request premium
// calculations. Quote calculation walks formulas and the full breakdown
// pipeline, so it is the one endpoint worth protecting from a looping
// integration.
package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/courtier-app/premiumservice/internal/shared/log"
)

// Limiter reports whether one more request under key is allowed.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Config holds rate limiting configuration
type Config struct {
	RequestsPerWindow int
	Window            time.Duration
	Enabled           bool
}

// DefaultConfig returns a default rate limiting configuration
func DefaultConfig() Config {
	return Config{
		RequestsPerWindow: 120,
		Window:            time.Minute,
		Enabled:           true,
	}
}

// RedisClient is the subset of redis operations the limiter needs.
type RedisClient interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// RedisLimiter is a fixed-window counter in Redis. Counting is shared
// across instances, so the limit holds for the deployment as a whole.
type RedisLimiter struct {
	redis  RedisClient
	config Config
}

// NewRedisLimiter creates a Redis-backed fixed-window limiter
func NewRedisLimiter(client RedisClient, config Config) *RedisLimiter {
	return &RedisLimiter{redis: client, config: config}
}

// Allow counts the request and reports whether it fits in the window.
func (r *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	count, err := r.redis.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("rate limit error: %w", err)
	}

	// The window starts at the first request.
	if count == 1 {
		if err := r.redis.Expire(ctx, key, r.config.Window).Err(); err != nil {
			log.Warn(ctx, "Failed to set rate limit window",
				zap.Error(err),
				zap.String("key", key))
		}
	}

	return count <= int64(r.config.RequestsPerWindow), nil
}

// Middleware enforces the limit per client IP and route. A failing
// limiter store lets requests through; quoting must not go down with
// Redis.
func Middleware(limiter Limiter, config Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !config.Enabled || limiter == nil {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := fmt.Sprintf("ratelimit:%s:%s", c.ClientIP(), c.FullPath())

		allowed, err := limiter.Allow(ctx, key)
		if err != nil {
			log.Warn(ctx, "Rate limit check failed, allowing request",
				zap.Error(err),
				zap.String("key", key))
			c.Next()
			return
		}

		if !allowed {
			log.Warn(ctx, "Rate limit exceeded",
				zap.String("client_ip", c.ClientIP()),
				zap.String("path", c.FullPath()))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": gin.H{
					"code":    "RATE_LIMITED",
					"message": "too many calculation requests, retry later",
				},
			})
			return
		}

		c.Next()
	}
}
