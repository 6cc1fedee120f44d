package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/solarity-seb/solarity-acres-courses/internal/ratelimit"
)

// RateLimitMiddleware gates routes with the fixed-window limiter, one
// operation class per route group.
type RateLimitMiddleware struct {
	limiter *ratelimit.Limiter
	enabled bool
}

// NewRateLimitMiddleware creates the middleware over a shared limiter.
func NewRateLimitMiddleware(limiter *ratelimit.Limiter, enabled bool) *RateLimitMiddleware {
	return &RateLimitMiddleware{limiter: limiter, enabled: enabled}
}

// Class returns a handler gating requests under the given operation class.
// The class is validated here so a typo fails at router construction, not at
// request time.
func (m *RateLimitMiddleware) Class(class ratelimit.Class) (gin.HandlerFunc, error) {
	if err := m.limiter.ValidateClass(class); err != nil {
		return nil, err
	}

	return func(c *gin.Context) {
		if !m.enabled {
			c.Next()
			return
		}

		result := m.limiter.Check(GetClientIP(c), class)
		writeRateLimitHeaders(c, result)

		if !result.Allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":             "rate_limit_exceeded",
				"error_description": "too many requests, try again in " + strconv.Itoa(result.RetryAfter) + " seconds",
			})
			return
		}

		c.Next()
	}, nil
}

func writeRateLimitHeaders(c *gin.Context, r ratelimit.Result) {
	c.Header("X-RateLimit-Limit", strconv.Itoa(r.Limit))
	c.Header("X-RateLimit-Remaining", strconv.Itoa(r.Remaining))
	c.Header("X-RateLimit-Reset", strconv.FormatInt(r.ResetAt.Unix(), 10))
	if r.RetryAfter > 0 {
		c.Header("Retry-After", strconv.Itoa(r.RetryAfter))
	}
}

// GetClientIP extracts the client identifier used as the rate-limit key.
func GetClientIP(c *gin.Context) string {
	// Check X-Forwarded-For first (for proxies)
	if ip := c.GetHeader("X-Forwarded-For"); ip != "" {
		if idx := strings.Index(ip, ","); idx != -1 {
			ip = strings.TrimSpace(ip[:idx])
		}
		return ip
	}

	if ip := c.GetHeader("X-Real-IP"); ip != "" {
		return ip
	}

	if ip := c.GetHeader("CF-Connecting-IP"); ip != "" {
		return ip
	}

	if ip := c.ClientIP(); ip != "" {
		return ip
	}

	return "unknown"
}
