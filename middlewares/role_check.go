package middlewares

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-waitlist/models"
	"github.com/yeremiapane/restaurant-waitlist/utils"
)

// RoleCheck allows the listed roles. Admins always pass.
func RoleCheck(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole := c.GetString(ContextRole)
		if userRole == "" {
			utils.RespondError(c, http.StatusUnauthorized, fmt.Errorf("unauthorized"))
			c.Abort()
			return
		}

		if userRole == models.RoleAdmin {
			c.Next()
			return
		}
		for _, role := range roles {
			if userRole == role {
				c.Next()
				return
			}
		}

		utils.RespondError(c, http.StatusForbidden, fmt.Errorf("%s access not allowed", userRole))
		c.Abort()
	}
}

// CanAccessRestaurant reports whether the authenticated user may manage restaurantID.
func CanAccessRestaurant(c *gin.Context, restaurantID string) bool {
	if c.GetString(ContextRole) == models.RoleAdmin {
		return true
	}
	return c.GetString(ContextRestaurantID) == restaurantID
}
