package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-waitlist/middlewares"
	"github.com/yeremiapane/restaurant-waitlist/services"
	"github.com/yeremiapane/restaurant-waitlist/utils"
)

type QueueController struct {
	queue       *services.QueueService
	seating     *services.SeatingService
	restaurants *services.RestaurantService
}

func NewQueueController(queue *services.QueueService, seating *services.SeatingService, restaurants *services.RestaurantService) *QueueController {
	return &QueueController{queue: queue, seating: seating, restaurants: restaurants}
}

// JoinQueue -> customer joins the waitlist (no auth)
func (qc *QueueController) JoinQueue(c *gin.Context) {
	var req struct {
		RestaurantSlug string `json:"restaurantSlug" binding:"required"`
		CustomerName   string `json:"customerName" binding:"required"`
		CustomerEmail  string `json:"customerEmail" binding:"required"`
		PartySize      int    `json:"partySize" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	restaurant, err := qc.restaurants.GetBySlug(c.Request.Context(), req.RestaurantSlug)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	result, err := qc.queue.Join(c.Request.Context(), restaurant.ID, req.CustomerName, req.CustomerEmail, req.PartySize)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	data := gin.H{
		"queueId":              result.Entry.ID,
		"position":             result.Position,
		"estimatedWaitMinutes": result.Entry.EstimatedWaitMinutes,
		"status":               result.Entry.Status,
	}
	if !result.Created {
		utils.RespondJSON(c, http.StatusOK, "Already in queue", data)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Joined queue", data)
}

// GetQueueStatus -> status page polling (no auth)
func (qc *QueueController) GetQueueStatus(c *gin.Context) {
	view, err := qc.queue.Status(c.Request.Context(), c.Param("queue_id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Queue status", view)
}

// LeaveQueue -> customer cancels from the status page
func (qc *QueueController) LeaveQueue(c *gin.Context) {
	entry, err := qc.queue.Cancel(c.Request.Context(), c.Param("queue_id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "You have left the queue", entry)
}

// GetDashboardQueue -> waiting and called entries for staff
func (qc *QueueController) GetDashboardQueue(c *gin.Context) {
	restaurant := staffRestaurant(c, qc.restaurants)
	if restaurant == nil {
		return
	}

	entries, err := qc.queue.ListActive(c.Request.Context(), restaurant.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Active queue", entries)
}

// UpdateQueueStatus -> staff moves an entry (called, seated, cancelled, no_show)
func (qc *QueueController) UpdateQueueStatus(c *gin.Context) {
	restaurant := staffRestaurant(c, qc.restaurants)
	if restaurant == nil {
		return
	}

	var body struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	entry, err := qc.queue.Transition(c.Request.Context(), restaurant.ID, c.Param("queue_id"), body.Status)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Queue entry updated", entry)
}

// SeatCustomer -> seat a party, optionally at a chosen table
func (qc *QueueController) SeatCustomer(c *gin.Context) {
	restaurantID := c.Param("restaurant_id")
	if !middlewares.CanAccessRestaurant(c, restaurantID) {
		utils.RespondError(c, http.StatusForbidden, errors.New("No access to this restaurant"))
		return
	}

	var body struct {
		TableID string `json:"tableId"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			utils.RespondError(c, http.StatusBadRequest, err)
			return
		}
	}

	result, err := qc.seating.Seat(c.Request.Context(), restaurantID, c.Param("queue_id"), body.TableID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Customer seated", result)
}
