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

type TableController struct {
	DB        *gorm.DB
	Publisher events.Publisher
}

func NewTableController(db *gorm.DB, publisher events.Publisher) *TableController {
	return &TableController{DB: db, Publisher: publisher}
}

// withService runs fn against a TableService bound to a fresh unit of work.
func (tc *TableController) withService(fn func(svc *services.TableService)) {
	uow := database.NewUnitOfWork(tc.DB)
	defer uow.Close()
	fn(services.NewTableService(uow, tc.Publisher))
}

// CreateTable -> POST /tables
func (tc *TableController) CreateTable(c *gin.Context) {
	var req models.TableCreate
	if !bindJSON(c, &req) {
		return
	}

	tc.withService(func(svc *services.TableService) {
		table, err := svc.CreateTable(c.Request.Context(), req)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		utils.RespondJSON(c, http.StatusCreated, "Table created successfully", table)
	})
}

// GetAllTables -> GET /tables
func (tc *TableController) GetAllTables(c *gin.Context) {
	tc.withService(func(svc *services.TableService) {
		tables, err := svc.GetAllTables(c.Request.Context())
		if err != nil {
			respondServiceError(c, err)
			return
		}
		utils.RespondJSON(c, http.StatusOK, "List of tables", tables)
	})
}

// GetTableByID -> GET /tables/:id
func (tc *TableController) GetTableByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	tc.withService(func(svc *services.TableService) {
		table, err := svc.GetTable(c.Request.Context(), id)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		utils.RespondJSON(c, http.StatusOK, "Table detail", table)
	})
}

// UpdateTable -> PATCH /tables/:id, only the supplied fields change
func (tc *TableController) UpdateTable(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req models.TableUpdate
	if !bindJSON(c, &req) {
		return
	}

	tc.withService(func(svc *services.TableService) {
		table, err := svc.UpdateTable(c.Request.Context(), id, req)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		utils.RespondJSON(c, http.StatusOK, "Table updated", table)
	})
}

// DeleteTable -> DELETE /tables/:id, succeeds even if the table is gone
func (tc *TableController) DeleteTable(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	tc.withService(func(svc *services.TableService) {
		if err := svc.DeleteTable(c.Request.Context(), id); err != nil {
			respondServiceError(c, err)
			return
		}
		utils.RespondJSON(c, http.StatusOK, "Table deleted", gin.H{"id": id})
	})
}

// DeleteAllTables -> DELETE /tables/delete_all
func (tc *TableController) DeleteAllTables(c *gin.Context) {
	tc.withService(func(svc *services.TableService) {
		if err := svc.DeleteAllTables(c.Request.Context()); err != nil {
			respondServiceError(c, err)
			return
		}
		utils.RespondJSON(c, http.StatusOK, "All tables deleted", nil)
	})
}

// GetTableReservations -> GET /tables/:id/reservations
func (tc *TableController) GetTableReservations(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	tc.withService(func(svc *services.TableService) {
		reservations, err := svc.GetTableReservations(c.Request.Context(), id)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		utils.RespondJSON(c, http.StatusOK, "List of table reservations", reservations)
	})
}
