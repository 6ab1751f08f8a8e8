package middleware

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const (
	defaultBucketSize    = 100 // maximum number of tokens
	defaultRefillRate    = 10  // tokens per second
	defaultWindowSeconds = 1
)

// RateLimiter implements a token bucket per client backed by Redis.
type RateLimiter struct {
	rdb         *redis.Client
	bucketSize  int
	refillRate  int
	windowInSec int
}

func NewRateLimiter(rdb *redis.Client, opts ...RateLimiterOption) *RateLimiter {
	rl := &RateLimiter{
		rdb:         rdb,
		bucketSize:  defaultBucketSize,
		refillRate:  defaultRefillRate,
		windowInSec: defaultWindowSeconds,
	}
	for _, opt := range opts {
		opt(rl)
	}
	return rl
}

// RateLimiterOption defines a function to configure RateLimiter
type RateLimiterOption func(*RateLimiter)

// WithBucketSize sets the bucket size
func WithBucketSize(size int) RateLimiterOption {
	return func(rl *RateLimiter) {
		rl.bucketSize = size
	}
}

// WithRefillRate sets the refill rate
func WithRefillRate(rate int) RateLimiterOption {
	return func(rl *RateLimiter) {
		rl.refillRate = rate
	}
}

// WithWindow sets the time window in seconds
func WithWindow(seconds int) RateLimiterOption {
	return func(rl *RateLimiter) {
		rl.windowInSec = seconds
	}
}

// RateLimit enforces the token bucket. Clients are keyed by bearer
// token when present, otherwise by IP.
func (rl *RateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID := c.ClientIP()
		if token := c.GetString("token_id"); token != "" {
			clientID = token
		}

		key := fmt.Sprintf("rate_limit:%s", clientID)
		now := time.Now().Unix()

		bucketKey := key + ":bucket"
		lastUpdateKey := key + ":last_update"

		tokens, err := rl.rdb.Get(c, bucketKey).Int()
		if err == redis.Nil {
			tokens = rl.bucketSize
		} else if err != nil {
			c.Error(err)
			c.AbortWithStatusJSON(500, gin.H{"error": "Rate limit check failed"})
			return
		}

		lastUpdate, err := rl.rdb.Get(c, lastUpdateKey).Int64()
		if err == redis.Nil {
			lastUpdate = now
		} else if err != nil {
			c.Error(err)
			c.AbortWithStatusJSON(500, gin.H{"error": "Rate limit check failed"})
			return
		}

		elapsed := now - lastUpdate
		tokens = min(tokens+int(elapsed)*rl.refillRate, rl.bucketSize)

		if tokens <= 0 {
			retryAfter := float64(1) / float64(rl.refillRate)
			c.Header("X-RateLimit-Limit", strconv.Itoa(rl.bucketSize))
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("X-RateLimit-Reset", strconv.FormatInt(now+1, 10))
			c.Header("Retry-After", fmt.Sprintf("%.2f", retryAfter))
			c.AbortWithStatusJSON(429, gin.H{"error": "Rate limit exceeded"})
			return
		}

		tokens--
		pipe := rl.rdb.TxPipeline()
		pipe.Set(c, bucketKey, tokens, time.Duration(rl.windowInSec)*time.Second)
		pipe.Set(c, lastUpdateKey, now, time.Duration(rl.windowInSec)*time.Second)
		if _, err := pipe.Exec(c); err != nil {
			c.Error(err)
			c.AbortWithStatusJSON(500, gin.H{"error": "Rate limit update failed"})
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.bucketSize))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(tokens))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(now+int64(rl.windowInSec), 10))

		c.Next()
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
