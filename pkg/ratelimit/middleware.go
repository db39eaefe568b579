package ratelimit

import (
	"fmt"
	"net"
	"net/http"
	"strings"

	"autoclaim/internal/shared/utils/response"
	"autoclaim/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Middleware picks the limit type from the matched route. The auth, parse
// and submit budgets are applied per route with ForType on top of this.
func Middleware(rateLimiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		enforce(c, rateLimiter, getRateLimitType(c.FullPath()))
	}
}

// ForType limits a single route group with a fixed limit type. Returns nil
// for a nil limiter so callers can pass the result straight to route setup.
func ForType(rateLimiter *RateLimiter, limitType RateLimitType) gin.HandlerFunc {
	if rateLimiter == nil {
		return nil
	}
	return func(c *gin.Context) {
		enforce(c, rateLimiter, limitType)
	}
}

func enforce(c *gin.Context, rateLimiter *RateLimiter, limitType RateLimitType) {
	clientIP := getClientIP(c)

	result, err := rateLimiter.IsAllowed(c.Request.Context(), clientIP, limitType)
	if err != nil {
		// Fail open: Redis trouble should not take the API down.
		logger.GetDefault().ErrorWithContext(c.Request.Context(), "Rate limit check failed", err, map[string]interface{}{
			"limit_type": string(limitType),
		})
		c.Next()
		return
	}

	c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", result.Limit))
	c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", result.Remaining))
	c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", result.ResetTime))

	if !result.Allowed {
		logger.GetDefault().LogRateLimitExceeded(c.Request.Context(), clientIP, c.FullPath())
		response.RespondJSON(c, "error", http.StatusTooManyRequests,
			"Rate limit exceeded", nil, map[string]interface{}{
				"limit":      result.Limit,
				"reset_time": result.ResetTime,
			})
		c.Abort()
		return
	}

	c.Next()
}

func getRateLimitType(path string) RateLimitType {
	switch {
	case strings.HasPrefix(path, "/health"),
		strings.HasPrefix(path, "/ping"),
		strings.HasPrefix(path, "/status"),
		strings.HasPrefix(path, "/metrics"):
		return RateLimitTypeHealth

	case strings.Contains(path, "/admin/"):
		return RateLimitTypeAdmin

	case strings.Contains(path, "/claims"),
		strings.Contains(path, "/bookings"):
		return RateLimitTypeClaim

	default:
		return RateLimitTypeDefault
	}
}

// extracts real client IP
func getClientIP(c *gin.Context) string {
	if xForwardedFor := c.GetHeader("X-Forwarded-For"); xForwardedFor != "" {
		ip := strings.TrimSpace(strings.Split(xForwardedFor, ",")[0])
		if net.ParseIP(ip) != nil {
			return ip
		}
	}

	if xRealIP := c.GetHeader("X-Real-IP"); xRealIP != "" && net.ParseIP(xRealIP) != nil {
		return xRealIP
	}

	ip, _, err := net.SplitHostPort(c.Request.RemoteAddr)
	if err != nil {
		return c.Request.RemoteAddr
	}
	return ip
}
