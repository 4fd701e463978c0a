package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-reservations/events"
	"github.com/yeremiapane/restaurant-reservations/utils"
	"gorm.io/gorm"
)

const pingTimeout = 2 * time.Second

type HealthController struct {
	DB  *gorm.DB
	Hub *events.Hub
}

func NewHealthController(db *gorm.DB, hub *events.Hub) *HealthController {
	return &HealthController{DB: db, Hub: hub}
}

// Health -> GET /health, 503 when the database does not answer
func (hc *HealthController) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), pingTimeout)
	defer cancel()

	data := gin.H{"database": hc.DB.Dialector.Name()}
	if hc.Hub != nil {
		data["event_clients"] = hc.Hub.ClientCount()
	}

	sqlDB, err := hc.DB.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		utils.ErrorLogger.Errorf("Health check failed: %v", err)
		c.JSON(http.StatusServiceUnavailable, utils.JSONResponse{
			Status:  false,
			Message: "database unavailable",
			Data:    data,
		})
		return
	}
	utils.RespondJSON(c, http.StatusOK, "OK", data)
}
