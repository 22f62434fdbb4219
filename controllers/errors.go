package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-waitlist/services"
	"github.com/yeremiapane/restaurant-waitlist/utils"
)

var errInternal = errors.New("internal server error")

// respondServiceError maps service errors to status codes. Unexpected errors are logged and
// hidden from the client.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		utils.RespondError(c, http.StatusNotFound, err)
	case errors.Is(err, services.ErrValidation):
		utils.RespondError(c, http.StatusBadRequest, err)
	case errors.Is(err, services.ErrConflict):
		utils.RespondError(c, http.StatusConflict, err)
	case errors.Is(err, services.ErrUnauthorized):
		utils.RespondError(c, http.StatusUnauthorized, err)
	default:
		utils.ErrorLogger.WithField("path", c.FullPath()).Errorf("Request failed: %v", err)
		utils.RespondError(c, http.StatusInternalServerError, errInternal)
	}
}
