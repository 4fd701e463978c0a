package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/restaurant-reservations/database"
	"github.com/yeremiapane/restaurant-reservations/events"
	"github.com/yeremiapane/restaurant-reservations/models"
	"github.com/yeremiapane/restaurant-reservations/repository"
	"github.com/yeremiapane/restaurant-reservations/utils"
)

type ReservationService struct {
	uow       *database.UnitOfWork
	publisher events.Publisher
	rowLock   bool
}

type ReservationOption func(*ReservationService)

// WithRowLock controls whether AddReservation locks the table row while it
// checks for overlaps and inserts. Enabled by default.
func WithRowLock(enabled bool) ReservationOption {
	return func(s *ReservationService) {
		s.rowLock = enabled
	}
}

func NewReservationService(uow *database.UnitOfWork, publisher events.Publisher, opts ...ReservationOption) *ReservationService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	s := &ReservationService{
		uow:       uow,
		publisher: publisher,
		rowLock:   true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddReservation books a table for [ReservationTime, ReservationTime+duration).
// It fails with ErrTableNotFound for an unknown table and with
// ErrTableAlreadyReserved when the window intersects an existing reservation
// on that table. Windows that only touch are accepted.
func (s *ReservationService) AddReservation(ctx context.Context, in models.ReservationCreate) (models.ReservationRecord, error) {
	if err := validateStruct(in); err != nil {
		return models.ReservationRecord{}, err
	}
	duration := models.DefaultDurationMinutes
	if in.DurationMinutes != nil {
		duration = *in.DurationMinutes
	}
	if duration <= 0 {
		return models.ReservationRecord{}, ErrInvalidDuration
	}

	start := in.ReservationTime.UTC()
	end := start.Add(time.Duration(duration) * time.Minute)
	logger := utils.InfoLogger.WithFields(logrus.Fields{
		"table_id": in.TableID,
		"start":    start,
		"end":      end,
	})

	var record models.ReservationRecord
	err := s.uow.Do(ctx, func(ctx context.Context) error {
		table, err := s.lookupTable(ctx, in.TableID)
		if err != nil {
			return err
		}
		if table == nil {
			return ErrTableNotFound
		}

		overlapping, err := s.uow.Reservations().FindOverlapping(ctx, table.ID, start, end)
		if err != nil {
			return err
		}
		if len(overlapping) > 0 {
			return fmt.Errorf("%w: overlaps reservation %d", ErrTableAlreadyReserved, overlapping[0].ID)
		}

		saved, err := s.uow.Reservations().Add(ctx, &models.Reservation{
			TableID:         table.ID,
			CustomerName:    in.CustomerName,
			ReservationTime: start,
			DurationMinutes: duration,
		})
		switch {
		case errors.Is(err, repository.ErrOverlap):
			return fmt.Errorf("%w: %v", ErrTableAlreadyReserved, err)
		case errors.Is(err, repository.ErrUnknownTable):
			return ErrTableNotFound
		case err != nil:
			return err
		}
		record = saved.Record()
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrTableAlreadyReserved) || errors.Is(err, ErrTableNotFound) {
			logger.Warnf("Reservation rejected: %v", err)
		}
		return models.ReservationRecord{}, err
	}

	logger.WithField("reservation_id", record.ID).Info("Reservation created")
	publish(ctx, s.publisher, events.NewMessage(events.EventReservationCreate, tableKey(record.TableID), record))
	return record, nil
}

func (s *ReservationService) lookupTable(ctx context.Context, id uint) (*models.Table, error) {
	if s.rowLock {
		return s.uow.Tables().GetForUpdate(ctx, id)
	}
	return s.uow.Tables().GetByIdentifier(ctx, id)
}

func (s *ReservationService) GetReservation(ctx context.Context, id uint) (models.ReservationRecord, error) {
	var record models.ReservationRecord
	err := s.uow.Do(ctx, func(ctx context.Context) error {
		reservation, err := s.uow.Reservations().GetByIdentifier(ctx, id)
		if err != nil {
			return err
		}
		if reservation == nil {
			return ErrReservationNotFound
		}
		record = reservation.Record()
		return nil
	})
	return record, err
}

// DeleteReservation removes a reservation and returns it as it was before the
// delete. Unlike DeleteTable, a missing id is reported as ErrReservationNotFound.
func (s *ReservationService) DeleteReservation(ctx context.Context, id uint) (models.ReservationRecord, error) {
	var record models.ReservationRecord
	err := s.uow.Do(ctx, func(ctx context.Context) error {
		reservation, err := s.uow.Reservations().GetByIdentifier(ctx, id)
		if err != nil {
			return err
		}
		if reservation == nil {
			return ErrReservationNotFound
		}
		record = reservation.Record()
		return s.uow.Reservations().Delete(ctx, id)
	})
	if err != nil {
		return models.ReservationRecord{}, err
	}

	utils.InfoLogger.WithFields(logrus.Fields{"reservation_id": id, "table_id": record.TableID}).Info("Reservation deleted")
	publish(ctx, s.publisher, events.NewMessage(events.EventReservationDelete, tableKey(record.TableID), record))
	return record, nil
}

func (s *ReservationService) GetAllReservations(ctx context.Context) ([]models.ReservationRecord, error) {
	var records []models.ReservationRecord
	err := s.uow.Do(ctx, func(ctx context.Context) error {
		reservations, err := s.uow.Reservations().List(ctx, nil)
		if err != nil {
			return err
		}
		records = reservationRecords(reservations)
		return nil
	})
	return records, err
}

// DeleteAllReservations removes every reservation. Tables are kept.
func (s *ReservationService) DeleteAllReservations(ctx context.Context) error {
	var count int
	err := s.uow.Do(ctx, func(ctx context.Context) error {
		reservations, err := s.uow.Reservations().List(ctx, nil)
		if err != nil {
			return err
		}
		for _, reservation := range reservations {
			if err := s.uow.Reservations().Delete(ctx, reservation.ID); err != nil {
				return err
			}
		}
		count = len(reservations)
		return nil
	})
	if err != nil {
		return err
	}

	utils.InfoLogger.WithField("count", count).Info("All reservations deleted")
	if count > 0 {
		publish(ctx, s.publisher, events.NewMessage(events.EventReservationsPurge, "", map[string]int{"count": count}))
	}
	return nil
}

func reservationRecords(reservations []models.Reservation) []models.ReservationRecord {
	records := make([]models.ReservationRecord, 0, len(reservations))
	for i := range reservations {
		records = append(records, reservations[i].Record())
	}
	return records
}
