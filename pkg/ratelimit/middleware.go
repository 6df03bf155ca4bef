package ratelimit

import (
	"net"
	"net/http"
	"strconv"
	"strings"

	"eventix/internal/shared/apperrors"
	"eventix/internal/shared/utils/response"
	"eventix/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Middleware rejects requests over the limit for their route class. A Redis
// failure lets the request through.
func Middleware(rateLimiter *RateLimiter) gin.HandlerFunc {
	log := logger.GetDefault()

	return func(c *gin.Context) {
		clientIP := getClientIP(c)
		limitType := getRateLimitType(c.FullPath())

		result, err := rateLimiter.IsAllowed(c.Request.Context(), clientIP, limitType)
		if err != nil {
			log.WarnContext(c.Request.Context(), "rate limit check failed, allowing request",
				"ip", clientIP,
				"path", c.FullPath(),
				"error", err,
			)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(result.ResetTime, 10))

		if !result.Allowed {
			log.LogRateLimitExceeded(c.Request.Context(), clientIP, c.FullPath())
			response.RespondJSON(c, "error", http.StatusTooManyRequests,
				"Rate limit exceeded", nil, &response.ErrorDetails{
					Kind: apperrors.KindRateLimited,
					Meta: map[string]interface{}{
						"limit":      result.Limit,
						"reset_time": result.ResetTime,
					},
				})
			c.Abort()
			return
		}

		c.Next()
	}
}

func getRateLimitType(path string) RateLimitType {
	switch {
	case strings.HasPrefix(path, "/health"),
		strings.HasPrefix(path, "/ping"),
		strings.HasPrefix(path, "/status"):
		return RateLimitTypeHealth

	// provider callbacks arrive in bursts from a few addresses
	case strings.HasSuffix(path, "/bookings/webhook"):
		return RateLimitTypeDefault

	case strings.Contains(path, "/admin/"),
		strings.HasSuffix(path, "/checkin"),
		strings.HasSuffix(path, "/attendees"):
		return RateLimitTypeAdmin

	case strings.Contains(path, "/auth/"):
		return RateLimitTypeAuth

	// money moves on these
	case strings.HasSuffix(path, "/bookings/create-checkout-session"),
		strings.HasSuffix(path, "/bookings/confirm-payment"),
		strings.HasSuffix(path, "/cancel"):
		return RateLimitTypeCritical

	case strings.Contains(path, "/bookings"):
		return RateLimitTypeBooking

	case strings.Contains(path, "/events"):
		return RateLimitTypePublic

	case strings.Contains(path, "/users/"):
		return RateLimitTypeUser

	default:
		return RateLimitTypeDefault
	}
}

func getClientIP(c *gin.Context) string {
	if forwarded := c.GetHeader("X-Forwarded-For"); forwarded != "" {
		ip := strings.TrimSpace(strings.Split(forwarded, ",")[0])
		if net.ParseIP(ip) != nil {
			return ip
		}
	}

	if realIP := c.GetHeader("X-Real-IP"); realIP != "" && net.ParseIP(realIP) != nil {
		return realIP
	}

	ip, _, err := net.SplitHostPort(c.Request.RemoteAddr)
	if err != nil {
		return c.Request.RemoteAddr
	}
	return ip
}
