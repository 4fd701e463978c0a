package repository

import (
	"context"
	"errors"

	"github.com/yeremiapane/restaurant-reservations/apperrors"
	"github.com/yeremiapane/restaurant-reservations/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var tableColumns = map[string]string{
	"id":       "id",
	"name":     "name",
	"seats":    "seats",
	"location": "location",
}

type TableRepository struct {
	*Repository[models.Table, *models.Table]
}

func NewTableRepository(session Session) *TableRepository {
	return &TableRepository{
		Repository: newRepository[models.Table, *models.Table](session, "table", tableColumns),
	}
}

// GetForUpdate reads a table and holds a row lock on it until the current
// transaction ends. On dialects without row locks it is a plain read.
func (r *TableRepository) GetForUpdate(ctx context.Context, id uint) (*models.Table, error) {
	db, err := r.db(ctx)
	if err != nil {
		return nil, err
	}
	if supportsRowLocks(db) {
		db = db.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate})
	}

	var table models.Table
	if err := db.First(&table, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperrors.Storage("lock table", err)
	}
	return &table, nil
}
