package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-waitlist/middlewares"
	"github.com/yeremiapane/restaurant-waitlist/services"
	"github.com/yeremiapane/restaurant-waitlist/utils"
)

type UserController struct {
	users *services.UserService
}

func NewUserController(users *services.UserService) *UserController {
	return &UserController{users: users}
}

// Login user -> return JWT
func (uc *UserController) Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	result, err := uc.users.Login(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Login successful", gin.H{
		"token":         result.Token,
		"user_role":     result.User.Role,
		"restaurant_id": result.User.RestaurantID,
	})
}

// GetProfile -> user info from the JWT
func (uc *UserController) GetProfile(c *gin.Context) {
	utils.RespondJSON(c, http.StatusOK, "User profile", gin.H{
		"user_id":       c.GetString(middlewares.ContextUserID),
		"restaurant_id": c.GetString(middlewares.ContextRestaurantID),
		"role":          c.GetString(middlewares.ContextRole),
	})
}

// Logout revokes the bearer token until it would have expired anyway.
func (uc *UserController) Logout(c *gin.Context) {
	expiry := c.GetTime(middlewares.ContextTokenExpiry)
	if expiry.IsZero() {
		expiry = time.Now().Add(24 * time.Hour)
	}
	utils.BlacklistToken(c.GetString(middlewares.ContextToken), expiry)

	utils.RespondJSON(c, http.StatusOK, "Logout successful", nil)
}
