package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/restaurant-reservations/apperrors"
	"github.com/yeremiapane/restaurant-reservations/middlewares"
	"github.com/yeremiapane/restaurant-reservations/services"
	"github.com/yeremiapane/restaurant-reservations/utils"
)

var (
	errInvalidID     = errors.New("id must be a positive integer")
	errInternalError = errors.New("internal server error")
)

// parseID reads the :id path parameter, answering 400 when it is malformed.
func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		utils.RespondError(c, http.StatusBadRequest, errInvalidID)
		return 0, false
	}
	return uint(id), true
}

// bindJSON decodes the request body into dst, answering 400 on failure.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return false
	}
	return true
}

// respondServiceError answers with the status matching err's kind. Storage
// failures are logged and reported without detail.
func respondServiceError(c *gin.Context, err error) {
	status := apperrors.StatusCode(err)
	if status >= http.StatusInternalServerError {
		utils.ErrorLogger.WithFields(logrus.Fields{
			"request_id": middlewares.GetRequestID(c),
			"path":       c.FullPath(),
		}).Errorf("Request failed: %v", err)
		_ = c.Error(err)
		utils.RespondError(c, status, errInternalError)
		return
	}

	var validationErrs services.ValidationErrors
	if errors.As(err, &validationErrs) {
		c.JSON(status, utils.JSONResponse{
			Status:  false,
			Message: err.Error(),
			Data:    validationErrs,
		})
		return
	}
	utils.RespondError(c, status, err)
}
