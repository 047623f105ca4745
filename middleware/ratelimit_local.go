package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"food-rescue-api/config"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// LocalRateLimit is the in-process limiter used when no redis is configured.
// Each caller gets a token bucket of cfg.Requests refilled over cfg.Window.
func LocalRateLimit(cfg config.RateLimitConfig) gin.HandlerFunc {
	if !cfg.Enabled || cfg.Requests <= 0 || cfg.Window <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	every := rate.Every(cfg.Window / time.Duration(cfg.Requests))

	var (
		mu       sync.Mutex
		limiters = map[string]*rate.Limiter{}
	)
	limiterFor := func(key string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()
		l, ok := limiters[key]
		if !ok {
			l = rate.NewLimiter(every, cfg.Requests)
			limiters[key] = l
		}
		return l
	}

	return func(c *gin.Context) {
		l := limiterFor(rateKey(cfg.Prefix, c))
		r := l.Reserve()
		delay := r.Delay()
		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.Requests))
		if delay > 0 {
			r.Cancel()
			secs := int(math.Ceil(delay.Seconds()))
			c.Header("Retry-After", strconv.Itoa(secs))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"reason":      "RATE_LIMITED",
				"retry_after": secs,
			})
			return
		}
		c.Header("X-RateLimit-Remaining", strconv.Itoa(int(l.Tokens())))
		c.Next()
	}
}
