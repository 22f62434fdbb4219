package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-waitlist/models"
	"github.com/yeremiapane/restaurant-waitlist/services"
	"github.com/yeremiapane/restaurant-waitlist/utils"
)

type TableController struct {
	tables      *services.TableService
	restaurants *services.RestaurantService
}

func NewTableController(tables *services.TableService, restaurants *services.RestaurantService) *TableController {
	return &TableController{tables: tables, restaurants: restaurants}
}

// GetTables -> active tables sorted by number
func (tc *TableController) GetTables(c *gin.Context) {
	restaurant := staffRestaurant(c, tc.restaurants)
	if restaurant == nil {
		return
	}

	tables, err := tc.tables.ListActive(c.Request.Context(), restaurant.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of tables", tables)
}

// CreateTable -> menambahkan meja baru
func (tc *TableController) CreateTable(c *gin.Context) {
	restaurant := staffRestaurant(c, tc.restaurants)
	if restaurant == nil {
		return
	}

	var req struct {
		TableNumber string `json:"tableNumber" binding:"required"`
		SeatCount   int    `json:"seatCount" binding:"required"`
		TableType   string `json:"tableType"` // optional, default "regular"
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	table, err := tc.tables.Add(c.Request.Context(), restaurant.ID, req.TableNumber, req.SeatCount, req.TableType)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Table created successfully", table)
}

// UpdateTableStatus -> available, cleaning or maintenance
func (tc *TableController) UpdateTableStatus(c *gin.Context) {
	restaurant := staffRestaurant(c, tc.restaurants)
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

	table, err := tc.tables.SetStatus(c.Request.Context(), restaurant.ID, c.Param("table_id"), body.Status)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table status updated", table)
}

// DeactivateTable -> soft delete
func (tc *TableController) DeactivateTable(c *gin.Context) {
	restaurant := staffRestaurant(c, tc.restaurants)
	if restaurant == nil {
		return
	}

	table, err := tc.tables.Deactivate(c.Request.Context(), restaurant.ID, c.Param("table_id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table deactivated", table)
}

// SuggestTables -> best fitting available tables for a party size
func (tc *TableController) SuggestTables(c *gin.Context) {
	restaurant := staffRestaurant(c, tc.restaurants)
	if restaurant == nil {
		return
	}

	partySize, err := strconv.Atoi(c.Query("partySize"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("partySize must be a number"))
		return
	}

	tables, err := tc.tables.Suggest(c.Request.Context(), restaurant.ID, partySize)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Suggested tables", tables)
}

// GetLayout -> floor plan positions keyed by table id
func (tc *TableController) GetLayout(c *gin.Context) {
	restaurant := staffRestaurant(c, tc.restaurants)
	if restaurant == nil {
		return
	}

	layout, err := tc.tables.GetLayout(c.Request.Context(), restaurant.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table layout", gin.H{"tablePositions": layout})
}

func (tc *TableController) SaveLayout(c *gin.Context) {
	restaurant := staffRestaurant(c, tc.restaurants)
	if restaurant == nil {
		return
	}

	var body struct {
		TablePositions map[string]models.LayoutPoint `json:"tablePositions" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if err := tc.tables.SaveLayout(c.Request.Context(), restaurant.ID, body.TablePositions); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Layout saved", nil)
}
