package middleware

import (
	"context"
	"fmt"
	"log"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// HitCounter counts requests for key inside a fixed window and reports how
// long the current window has left.
type HitCounter interface {
	Hit(ctx context.Context, key string, window time.Duration) (count int64, ttl time.Duration, err error)
}

// RedisCounter is a HitCounter backed by INCR and EXPIRE.
type RedisCounter struct {
	rdb *redis.Client
}

func NewRedisCounter(rdb *redis.Client) *RedisCounter {
	return &RedisCounter{rdb: rdb}
}

func (r *RedisCounter) Hit(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	count, err := r.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("incr %s: %w", key, err)
	}
	if count == 1 {
		if err := r.rdb.Expire(ctx, key, window).Err(); err != nil {
			return 0, 0, fmt.Errorf("expire %s: %w", key, err)
		}
		return count, window, nil
	}
	ttl, err := r.rdb.TTL(ctx, key).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("ttl %s: %w", key, err)
	}
	if ttl < 0 {
		// Key lost its expiry (e.g. EXPIRE failed after INCR); restart the window.
		if err := r.rdb.Expire(ctx, key, window).Err(); err != nil {
			return 0, 0, fmt.Errorf("expire %s: %w", key, err)
		}
		ttl = window
	}
	return count, ttl, nil
}

// RateLimitConfig controls the fixed-window limiter
type RateLimitConfig struct {
	Prefix string
	Limit  int
	Window time.Duration
}

// RateLimitMiddleware allows at most cfg.Limit requests per client IP per
// cfg.Window. A nil counter or a non-positive limit disables it, and counter
// errors let the request through.
func RateLimitMiddleware(cfg RateLimitConfig, counter HitCounter) gin.HandlerFunc {
	if counter == nil || cfg.Limit <= 0 || cfg.Window <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		ip := c.ClientIP()
		if ip == "" {
			ip = "unknown"
		}
		key := cfg.Prefix + ":ip:" + ip

		count, ttl, err := counter.Hit(c.Request.Context(), key, cfg.Window)
		if err != nil {
			log.Printf("Error checking rate limit for %s, allowing request: %v", key, err)
			c.Next()
			return
		}

		remaining := int64(cfg.Limit) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.Limit))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > int64(cfg.Limit) {
			secs := int(math.Ceil(ttl.Seconds()))
			if secs < 1 {
				secs = 1
			}
			c.Header("Retry-After", strconv.Itoa(secs))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "Too many login attempts, please try again later",
				"retry_after": secs,
			})
			return
		}

		c.Next()
	}
}
