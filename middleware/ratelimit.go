package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"food-rescue-api/config"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// RateLimit is a fixed-window counter per caller kept in redis. With the
// limiter disabled or no client configured it lets everything through, and a
// redis error fails open.
func RateLimit(cfg config.RateLimitConfig, rdb *redis.Client, log logrus.FieldLogger) gin.HandlerFunc {
	if !cfg.Enabled || rdb == nil || cfg.Requests <= 0 || cfg.Window <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		key := rateKey(cfg.Prefix, c)
		ctx := c.Request.Context()

		count, err := rdb.Incr(ctx, key).Result()
		if err == nil && count == 1 {
			err = rdb.Expire(ctx, key, cfg.Window).Err()
		}
		if err != nil {
			log.WithError(err).WithField("key", key).Warn("rate limiter unavailable")
			c.Next()
			return
		}

		remaining := int64(cfg.Requests) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.Requests))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > int64(cfg.Requests) {
			retry, err := rdb.PTTL(ctx, key).Result()
			if err != nil || retry < 0 {
				retry = cfg.Window
			}
			secs := int((retry + time.Second - 1) / time.Second)
			c.Header("Retry-After", strconv.Itoa(secs))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"reason":      "RATE_LIMITED",
				"retry_after": secs,
			})
			return
		}
		c.Next()
	}
}

func rateKey(prefix string, c *gin.Context) string {
	who := GetUserID(c)
	if who == "" {
		who = "ip:" + c.ClientIP()
	}
	return strings.Join([]string{prefix, who}, ":")
}
