package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-reservations/config"
	"github.com/yeremiapane/restaurant-reservations/controllers"
	"github.com/yeremiapane/restaurant-reservations/events"
	"github.com/yeremiapane/restaurant-reservations/middlewares"
	"gorm.io/gorm"
)

// SetupRouter wires the API. Writes are announced on publisher; hub serves
// the websocket feed and may also be part of publisher.
func SetupRouter(db *gorm.DB, cfg *config.Config, hub *events.Hub, publisher events.Publisher) *gin.Engine {
	if publisher == nil {
		publisher = hub
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.LoggerMiddleware())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares(cfg.CORSAllowedOrigin))

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"status": false, "message": "route not found"})
	})

	tableCtrl := controllers.NewTableController(db, publisher)
	reservationCtrl := controllers.NewReservationController(db, publisher, cfg.ReservationLock)
	eventsCtrl := controllers.NewEventsController(hub, cfg.CORSAllowedOrigin)
	healthCtrl := controllers.NewHealthController(db, hub)

	r.GET("/health", healthCtrl.Health)
	r.GET("/ws/events", eventsCtrl.Stream)

	api := r.Group("/api/v1")
	api.Use(middlewares.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst).RateLimit())

	// TABLES
	tables := api.Group("/tables")
	{
		tables.POST("", tableCtrl.CreateTable)
		tables.GET("", tableCtrl.GetAllTables)
		tables.DELETE("/delete_all", tableCtrl.DeleteAllTables)
		tables.GET("/:id", tableCtrl.GetTableByID)
		tables.PATCH("/:id", tableCtrl.UpdateTable)
		tables.DELETE("/:id", tableCtrl.DeleteTable)
		tables.GET("/:id/reservations", tableCtrl.GetTableReservations)
	}

	// RESERVATIONS
	reservations := api.Group("/reservations")
	{
		reservations.POST("", reservationCtrl.CreateReservation)
		reservations.GET("", reservationCtrl.GetAllReservations)
		reservations.DELETE("/delete_all", reservationCtrl.DeleteAllReservations)
		reservations.GET("/:id", reservationCtrl.GetReservationByID)
		reservations.DELETE("/:id", reservationCtrl.DeleteReservation)
	}

	return r
}
