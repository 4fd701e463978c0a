package database

import (
	"github.com/yeremiapane/restaurant-reservations/models"
	"github.com/yeremiapane/restaurant-reservations/utils"
	"gorm.io/gorm"
)

// AutoMigrate creates or updates the tables and reservations schema, including
// the cascading foreign key from reservations to tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Table{}, &models.Reservation{}); err != nil {
		utils.ErrorLogger.Printf("Failed to migrate database: %v", err)
		return err
	}
	utils.InfoLogger.Info("Database migrated")
	return nil
}
