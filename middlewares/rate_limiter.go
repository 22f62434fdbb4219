package middlewares

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-waitlist/limiter"
	"github.com/yeremiapane/restaurant-waitlist/metrics"
	"github.com/yeremiapane/restaurant-waitlist/utils"
)

// RateLimit allows limit requests per client IP per window for one scope (e.g. "join").
// If the limiter itself fails the request is let through.
func RateLimit(l limiter.Limiter, scope string, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, err := l.Allow(c.Request.Context(), scope+":"+c.ClientIP(), limit, window)
		if err != nil {
			utils.ErrorLogger.Errorf("Rate limiter error: %v", err)
			c.Next()
			return
		}
		if !allowed {
			metrics.IncRateLimited(scope)
			utils.RespondError(c, http.StatusTooManyRequests, errors.New("Too many requests, please try again later"))
			c.Abort()
			return
		}
		c.Next()
	}
}
