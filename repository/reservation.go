package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/restaurant-reservations/apperrors"
	"github.com/yeremiapane/restaurant-reservations/models"
	"github.com/yeremiapane/restaurant-reservations/utils"
	"gorm.io/gorm"
)

// SQLSTATE raised by postgres when an exclusion constraint rejects a row.
const pgExclusionViolation = "23P01"

var (
	ErrOverlap      = apperrors.Conflict("reservation overlaps an existing reservation")
	ErrUnknownTable = apperrors.NotFound("referenced table does not exist")
)

var reservationColumns = map[string]string{
	"id":               "id",
	"table_id":         "table_id",
	"customer_name":    "customer_name",
	"reservation_time": "reservation_time",
	"duration_minutes": "duration_minutes",
}

type ReservationRepository struct {
	*Repository[models.Reservation, *models.Reservation]
}

func NewReservationRepository(session Session) *ReservationRepository {
	return &ReservationRepository{
		Repository: newRepository[models.Reservation, *models.Reservation](session, "reservation", reservationColumns),
	}
}

// Add stores the reservation time in UTC and maps constraint violations to
// domain errors.
func (r *ReservationRepository) Add(ctx context.Context, reservation *models.Reservation) (*models.Reservation, error) {
	reservation.ReservationTime = reservation.ReservationTime.UTC()
	saved, err := r.Repository.Add(ctx, reservation)
	if err != nil {
		return nil, translateReservationError(err)
	}
	return saved, nil
}

func (r *ReservationRepository) Update(ctx context.Context, reservation *models.Reservation) (*models.Reservation, error) {
	reservation.ReservationTime = reservation.ReservationTime.UTC()
	saved, err := r.Repository.Update(ctx, reservation)
	if err != nil {
		return nil, translateReservationError(err)
	}
	return saved, nil
}

func (r *ReservationRepository) ListByTable(ctx context.Context, tableID uint) ([]models.Reservation, error) {
	return r.List(ctx, Filters{"table_id": tableID})
}

// FindOverlapping returns the reservations on tableID whose window intersects
// [start, end). Touching windows are not returned.
func (r *ReservationRepository) FindOverlapping(ctx context.Context, tableID uint, start, end time.Time) ([]models.Reservation, error) {
	db, err := r.db(ctx)
	if err != nil {
		return nil, err
	}
	start, end = start.UTC(), end.UTC()

	query := db.Where("table_id = ?", tableID)
	switch db.Dialector.Name() {
	case "postgres":
		query = query.Where("reservation_time < ? AND reservation_time + make_interval(mins => duration_minutes) > ?", end, start)
	case "mysql":
		query = query.Where("reservation_time < ? AND DATE_ADD(reservation_time, INTERVAL duration_minutes MINUTE) > ?", end, start)
	}

	var candidates []models.Reservation
	if err := query.Order("reservation_time").Find(&candidates).Error; err != nil {
		return nil, apperrors.Storage("find overlapping reservations", err)
	}

	overlapping := candidates[:0]
	for i := range candidates {
		if candidates[i].Overlaps(start, end) {
			overlapping = append(overlapping, candidates[i])
		}
	}
	utils.InfoLogger.WithFields(logrus.Fields{
		"table_id":    tableID,
		"start":       start,
		"end":         end,
		"overlapping": len(overlapping),
	}).Debug("Checked reservation window")
	return overlapping, nil
}

func translateReservationError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgExclusionViolation {
		return fmt.Errorf("%w (%s)", ErrOverlap, pgErr.ConstraintName)
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return ErrUnknownTable
	}
	return err
}
