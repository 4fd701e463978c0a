package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-reservations/database"
	"github.com/yeremiapane/restaurant-reservations/events"
	"github.com/yeremiapane/restaurant-reservations/models"
	"github.com/yeremiapane/restaurant-reservations/services"
	"github.com/yeremiapane/restaurant-reservations/utils"
	"gorm.io/gorm"
)

type ReservationController struct {
	DB        *gorm.DB
	Publisher events.Publisher
	RowLock   bool
}

func NewReservationController(db *gorm.DB, publisher events.Publisher, rowLock bool) *ReservationController {
	return &ReservationController{DB: db, Publisher: publisher, RowLock: rowLock}
}

func (rc *ReservationController) withService(fn func(svc *services.ReservationService)) {
	uow := database.NewUnitOfWork(rc.DB)
	defer uow.Close()
	fn(services.NewReservationService(uow, rc.Publisher, services.WithRowLock(rc.RowLock)))
}

// CreateReservation -> POST /reservations, 409 when the table is taken
func (rc *ReservationController) CreateReservation(c *gin.Context) {
	var req models.ReservationCreate
	if !bindJSON(c, &req) {
		return
	}

	rc.withService(func(svc *services.ReservationService) {
		reservation, err := svc.AddReservation(c.Request.Context(), req)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		utils.RespondJSON(c, http.StatusCreated, "Reservation created successfully", reservation)
	})
}

// GetAllReservations -> GET /reservations
func (rc *ReservationController) GetAllReservations(c *gin.Context) {
	rc.withService(func(svc *services.ReservationService) {
		reservations, err := svc.GetAllReservations(c.Request.Context())
		if err != nil {
			respondServiceError(c, err)
			return
		}
		utils.RespondJSON(c, http.StatusOK, "List of reservations", reservations)
	})
}

// GetReservationByID -> GET /reservations/:id
func (rc *ReservationController) GetReservationByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	rc.withService(func(svc *services.ReservationService) {
		reservation, err := svc.GetReservation(c.Request.Context(), id)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		utils.RespondJSON(c, http.StatusOK, "Reservation detail", reservation)
	})
}

// DeleteReservation -> DELETE /reservations/:id, answers with the removed booking
func (rc *ReservationController) DeleteReservation(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	rc.withService(func(svc *services.ReservationService) {
		reservation, err := svc.DeleteReservation(c.Request.Context(), id)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		utils.RespondJSON(c, http.StatusOK, "Reservation deleted", reservation)
	})
}

// DeleteAllReservations -> DELETE /reservations/delete_all
func (rc *ReservationController) DeleteAllReservations(c *gin.Context) {
	rc.withService(func(svc *services.ReservationService) {
		if err := svc.DeleteAllReservations(c.Request.Context()); err != nil {
			respondServiceError(c, err)
			return
		}
		utils.RespondJSON(c, http.StatusOK, "All reservations deleted", nil)
	})
}
