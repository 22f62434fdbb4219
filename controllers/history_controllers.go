package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-waitlist/services"
	"github.com/yeremiapane/restaurant-waitlist/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type HistoryController struct {
	exporter    *services.HistoryExporter
	restaurants *services.RestaurantService
}

func NewHistoryController(exporter *services.HistoryExporter, restaurants *services.RestaurantService) *HistoryController {
	return &HistoryController{exporter: exporter, restaurants: restaurants}
}

// ExportHistory -> xlsx download of seating history, ?days=30 by default
func (hc *HistoryController) ExportHistory(c *gin.Context) {
	restaurant := staffRestaurant(c, hc.restaurants)
	if restaurant == nil {
		return
	}

	days, err := strconv.Atoi(c.DefaultQuery("days", "30"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("days must be a number"))
		return
	}

	data, err := hc.exporter.Export(c.Request.Context(), restaurant.ID, days)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("%s_history_%s.xlsx", restaurant.Slug, time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}
