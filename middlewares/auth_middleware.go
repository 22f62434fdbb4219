package middlewares

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-waitlist/utils"
)

const (
	ContextUserID       = "user_id"
	ContextRestaurantID = "restaurant_id"
	ContextRole         = "role"
	ContextToken        = "token"
	ContextTokenExpiry  = "token_expiry"
)

// AuthMiddleware requires a valid staff bearer token and stores its claims in the context.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("Authorization header missing"))
			c.Abort()
			return
		}
		if !strings.HasPrefix(authHeader, "Bearer ") {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("Invalid authorization format"))
			c.Abort()
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if utils.IsTokenBlacklisted(token) {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("Token has been revoked"))
			c.Abort()
			return
		}

		claims, err := utils.ParseToken(token)
		if err != nil {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("Invalid or expired token"))
			c.Abort()
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextRestaurantID, claims.RestaurantID)
		c.Set(ContextRole, claims.Role)
		c.Set(ContextToken, token)
		if claims.ExpiresAt != nil {
			c.Set(ContextTokenExpiry, claims.ExpiresAt.Time)
		}
		c.Next()
	}
}
