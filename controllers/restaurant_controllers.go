package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-waitlist/middlewares"
	"github.com/yeremiapane/restaurant-waitlist/models"
	"github.com/yeremiapane/restaurant-waitlist/services"
	"github.com/yeremiapane/restaurant-waitlist/utils"
)

type RestaurantController struct {
	restaurants *services.RestaurantService
}

func NewRestaurantController(restaurants *services.RestaurantService) *RestaurantController {
	return &RestaurantController{restaurants: restaurants}
}

// GetRestaurant -> public restaurant profile for the join page
func (rc *RestaurantController) GetRestaurant(c *gin.Context) {
	restaurant, err := rc.restaurants.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Restaurant details", gin.H{
		"id":                    restaurant.ID,
		"name":                  restaurant.Name,
		"slug":                  restaurant.Slug,
		"address":               restaurant.Address,
		"phone":                 restaurant.Phone,
		"avgServiceTimeMinutes": restaurant.ServiceMinutes(),
		"maxPartySize":          restaurant.Settings.MaxParty(),
	})
}

// staffRestaurant resolves the :slug of a dashboard route and checks the caller may manage it.
// It writes the error response itself and returns nil in that case.
func staffRestaurant(c *gin.Context, restaurants *services.RestaurantService) *models.Restaurant {
	restaurant, err := restaurants.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondServiceError(c, err)
		return nil
	}
	if !middlewares.CanAccessRestaurant(c, restaurant.ID) {
		utils.RespondError(c, http.StatusForbidden, errors.New("No access to this restaurant"))
		return nil
	}
	return restaurant
}
