package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ascendancy-backend/internal/api/httpx"
	"ascendancy-backend/internal/infra/ratelimit"
	"ascendancy-backend/internal/shared/apperr"
)

// RateLimit caps requests per client IP for one route group. A limiter
// outage lets traffic through.
func RateLimit(l ratelimit.Limiter, name string, limit int, window time.Duration, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, err := l.Allow(c.Request.Context(), "http:"+name+":"+c.ClientIP(), limit, window)
		if err != nil {
			log.Warn("rate limiter unavailable", zap.String("route", name), zap.Error(err))
			c.Next()
			return
		}
		if !ok {
			httpx.Fail(c, apperr.RateLimitedErr())
			return
		}
		c.Next()
	}
}
