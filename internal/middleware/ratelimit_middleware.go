package middleware

import (
	"context"
	"net/http"
	"strconv"

	"letterdrop/internal/redis"
	"letterdrop/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

// SubscribeRateLimitMiddleware limits the public subscription endpoints
// per client IP.
func SubscribeRateLimitMiddleware(limiter *redis.RateLimiter) gin.HandlerFunc {
	return limitBy(func(ctx context.Context, limiter *redis.RateLimiter, ip string) (*redis.RateLimitResult, error) {
		return limiter.AllowSubscribe(ctx, ip)
	}, limiter, "subscribe rate limit exceeded")
}

// LoginRateLimitMiddleware limits login attempts per client IP.
func LoginRateLimitMiddleware(limiter *redis.RateLimiter) gin.HandlerFunc {
	return limitBy(func(ctx context.Context, limiter *redis.RateLimiter, ip string) (*redis.RateLimitResult, error) {
		return limiter.AllowLogin(ctx, ip)
	}, limiter, "login rate limit exceeded")
}

func limitBy(check func(context.Context, *redis.RateLimiter, string) (*redis.RateLimitResult, error), limiter *redis.RateLimiter, message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}

		result, err := check(c.Request.Context(), limiter, c.ClientIP())
		if err != nil {
			c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse("rate limit error", "INTERNAL_ERROR"))
			c.Abort()
			return
		}

		setRateLimitHeaders(c, result)

		if !result.Allowed {
			c.JSON(http.StatusTooManyRequests, httpdto.NewErrorResponse(message, "RATE_LIMITED"))
			c.Abort()
			return
		}

		c.Next()
	}
}

// setRateLimitHeaders sets standard rate limit response headers
func setRateLimitHeaders(c *gin.Context, result *redis.RateLimitResult) {
	c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	c.Header("X-RateLimit-Reset", strconv.FormatInt(int64(result.ResetIn.Seconds()), 10))
}
