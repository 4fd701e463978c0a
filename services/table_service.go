package services

import (
	"context"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/restaurant-reservations/database"
	"github.com/yeremiapane/restaurant-reservations/events"
	"github.com/yeremiapane/restaurant-reservations/models"
	"github.com/yeremiapane/restaurant-reservations/utils"
)

// TableService manages the table catalog. Each method runs in its own scope of
// the unit of work.
type TableService struct {
	uow       *database.UnitOfWork
	publisher events.Publisher
}

func NewTableService(uow *database.UnitOfWork, publisher events.Publisher) *TableService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &TableService{
		uow:       uow,
		publisher: publisher,
	}
}

func (s *TableService) CreateTable(ctx context.Context, in models.TableCreate) (models.TableRecord, error) {
	if err := validateStruct(in); err != nil {
		return models.TableRecord{}, err
	}
	seats := models.DefaultSeats
	if in.Seats != nil {
		seats = *in.Seats
	}
	if seats < 0 {
		return models.TableRecord{}, ErrInvalidSeats
	}

	var record models.TableRecord
	err := s.uow.Do(ctx, func(ctx context.Context) error {
		table, err := s.uow.Tables().Add(ctx, &models.Table{
			Name:     in.Name,
			Seats:    seats,
			Location: in.Location,
		})
		if err != nil {
			return err
		}
		record = table.Record()
		return nil
	})
	if err != nil {
		return models.TableRecord{}, err
	}

	utils.InfoLogger.WithFields(logrus.Fields{"table_id": record.ID, "name": record.Name}).Info("Table created")
	publish(ctx, s.publisher, events.NewMessage(events.EventTableCreate, tableKey(record.ID), record))
	return record, nil
}

func (s *TableService) GetTable(ctx context.Context, id uint) (models.TableRecord, error) {
	var record models.TableRecord
	err := s.uow.Do(ctx, func(ctx context.Context) error {
		table, err := s.uow.Tables().GetByIdentifier(ctx, id)
		if err != nil {
			return err
		}
		if table == nil {
			return ErrTableNotFound
		}
		record = table.Record()
		return nil
	})
	return record, err
}

// UpdateTable applies the supplied fields of in and leaves the rest unchanged.
func (s *TableService) UpdateTable(ctx context.Context, id uint, in models.TableUpdate) (models.TableRecord, error) {
	if err := validateStruct(in); err != nil {
		return models.TableRecord{}, err
	}
	if in.Seats != nil && *in.Seats < 0 {
		return models.TableRecord{}, ErrInvalidSeats
	}

	var record models.TableRecord
	err := s.uow.Do(ctx, func(ctx context.Context) error {
		table, err := s.uow.Tables().GetByIdentifier(ctx, id)
		if err != nil {
			return err
		}
		if table == nil {
			return ErrTableNotFound
		}
		in.Apply(table)
		updated, err := s.uow.Tables().Update(ctx, table)
		if err != nil {
			return err
		}
		record = updated.Record()
		return nil
	})
	if err != nil {
		return models.TableRecord{}, err
	}

	utils.InfoLogger.WithField("table_id", id).Info("Table updated")
	publish(ctx, s.publisher, events.NewMessage(events.EventTableUpdate, tableKey(id), record))
	return record, nil
}

// DeleteTable removes the table and its reservations. Deleting a missing table
// is a no-op.
func (s *TableService) DeleteTable(ctx context.Context, id uint) error {
	var deleted *models.TableRecord
	err := s.uow.Do(ctx, func(ctx context.Context) error {
		table, err := s.uow.Tables().GetByIdentifier(ctx, id)
		if err != nil || table == nil {
			return err
		}
		if err := s.uow.Tables().Delete(ctx, id); err != nil {
			return err
		}
		record := table.Record()
		deleted = &record
		return nil
	})
	if err != nil {
		return err
	}
	if deleted == nil {
		utils.InfoLogger.WithField("table_id", id).Debug("Table already absent")
		return nil
	}

	utils.InfoLogger.WithField("table_id", id).Info("Table deleted")
	publish(ctx, s.publisher, events.NewMessage(events.EventTableDelete, tableKey(id), *deleted))
	return nil
}

func (s *TableService) GetAllTables(ctx context.Context) ([]models.TableRecord, error) {
	var records []models.TableRecord
	err := s.uow.Do(ctx, func(ctx context.Context) error {
		tables, err := s.uow.Tables().List(ctx, nil)
		if err != nil {
			return err
		}
		records = make([]models.TableRecord, 0, len(tables))
		for i := range tables {
			records = append(records, tables[i].Record())
		}
		return nil
	})
	return records, err
}

// DeleteAllTables removes every table, cascading to all reservations.
func (s *TableService) DeleteAllTables(ctx context.Context) error {
	var count int
	err := s.uow.Do(ctx, func(ctx context.Context) error {
		tables, err := s.uow.Tables().List(ctx, nil)
		if err != nil {
			return err
		}
		for _, table := range tables {
			if err := s.uow.Tables().Delete(ctx, table.ID); err != nil {
				return err
			}
		}
		count = len(tables)
		return nil
	})
	if err != nil {
		return err
	}

	utils.InfoLogger.WithField("count", count).Info("All tables deleted")
	if count > 0 {
		publish(ctx, s.publisher, events.NewMessage(events.EventTablesPurge, "", map[string]int{"count": count}))
	}
	return nil
}

// GetTableReservations lists the reservations of one table ordered by id.
func (s *TableService) GetTableReservations(ctx context.Context, id uint) ([]models.ReservationRecord, error) {
	var records []models.ReservationRecord
	err := s.uow.Do(ctx, func(ctx context.Context) error {
		table, err := s.uow.Tables().GetByIdentifier(ctx, id)
		if err != nil {
			return err
		}
		if table == nil {
			return ErrTableNotFound
		}
		reservations, err := s.uow.Reservations().ListByTable(ctx, id)
		if err != nil {
			return err
		}
		records = reservationRecords(reservations)
		return nil
	})
	return records, err
}

func tableKey(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

// publish delivers msg after a commit. Failures are logged only; the change
// is already durable.
func publish(ctx context.Context, publisher events.Publisher, msg events.Message) {
	if err := publisher.Publish(ctx, msg); err != nil {
		utils.ErrorLogger.WithFields(logrus.Fields{
			"event":    msg.Event,
			"event_id": msg.ID,
		}).Errorf("Failed to publish event: %v", err)
	}
}
