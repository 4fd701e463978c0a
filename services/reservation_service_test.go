package services_test

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/restaurant-reservations/apperrors"
	"github.com/yeremiapane/restaurant-reservations/events"
	"github.com/yeremiapane/restaurant-reservations/models"
	"github.com/yeremiapane/restaurant-reservations/services"
)

func evening(hour, minute int) time.Time {
	return time.Date(2025, 4, 10, hour, minute, 0, 0, time.UTC)
}

func TestAddReservationScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	table, err := f.tables.CreateTable(ctx, models.TableCreate{Name: "T1", Seats: intPtr(4), Location: "hall"})
	require.NoError(t, err)

	first, err := f.reservations.AddReservation(ctx, models.ReservationCreate{
		TableID:         table.ID,
		CustomerName:    "Ann",
		ReservationTime: evening(19, 30),
		DurationMinutes: intPtr(60),
	})
	require.NoError(t, err)
	assert.NotZero(t, first.ID)
	assert.True(t, first.ReservationTime.Equal(evening(19, 30)))

	_, err = f.reservations.AddReservation(ctx, models.ReservationCreate{
		TableID:         table.ID,
		CustomerName:    "Bob",
		ReservationTime: evening(19, 30),
		DurationMinutes: intPtr(60),
	})
	assert.ErrorIs(t, err, services.ErrTableAlreadyReserved)
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	third, err := f.reservations.AddReservation(ctx, models.ReservationCreate{
		TableID:         table.ID,
		CustomerName:    "Cid",
		ReservationTime: evening(20, 30),
		DurationMinutes: intPtr(60),
	})
	require.NoError(t, err)
	assert.Greater(t, third.ID, first.ID)

	all, err := f.reservations.GetAllReservations(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, 2, countEvents(f.publisher.eventNames(), events.EventReservationCreate))
}

func TestAddReservationBoundaryTouch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	table := f.createTable(t, "T1")

	_, err := f.reservations.AddReservation(ctx, models.ReservationCreate{
		TableID: table.ID, CustomerName: "Ann", ReservationTime: evening(19, 0), DurationMinutes: intPtr(60),
	})
	require.NoError(t, err)

	// ends exactly when the first one starts
	_, err = f.reservations.AddReservation(ctx, models.ReservationCreate{
		TableID: table.ID, CustomerName: "Bob", ReservationTime: evening(18, 0), DurationMinutes: intPtr(60),
	})
	require.NoError(t, err)

	// one minute into the first one
	_, err = f.reservations.AddReservation(ctx, models.ReservationCreate{
		TableID: table.ID, CustomerName: "Cid", ReservationTime: evening(19, 59), DurationMinutes: intPtr(30),
	})
	assert.ErrorIs(t, err, services.ErrTableAlreadyReserved)
}

func TestAddReservationOtherTableSameTime(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	t1 := f.createTable(t, "T1")
	t2 := f.createTable(t, "T2")

	for _, id := range []uint{t1.ID, t2.ID} {
		_, err := f.reservations.AddReservation(ctx, models.ReservationCreate{
			TableID: id, CustomerName: "Ann", ReservationTime: evening(19, 30),
		})
		require.NoError(t, err)
	}
}

func TestAddReservationAcrossTimeZones(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	table := f.createTable(t, "T1")
	cest := time.FixedZone("CEST", 2*60*60)

	_, err := f.reservations.AddReservation(ctx, models.ReservationCreate{
		TableID: table.ID, CustomerName: "Ann", ReservationTime: time.Date(2025, 4, 10, 21, 30, 0, 0, cest),
	})
	require.NoError(t, err)

	_, err = f.reservations.AddReservation(ctx, models.ReservationCreate{
		TableID: table.ID, CustomerName: "Bob", ReservationTime: evening(20, 0),
	})
	assert.ErrorIs(t, err, services.ErrTableAlreadyReserved)

	_, err = f.reservations.AddReservation(ctx, models.ReservationCreate{
		TableID: table.ID, CustomerName: "Cid", ReservationTime: evening(20, 30),
	})
	assert.NoError(t, err)
}

func TestAddReservationUnknownTable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, id := range []uint{404, 0} {
		_, err := f.reservations.AddReservation(ctx, models.ReservationCreate{
			TableID: id, CustomerName: "Ann", ReservationTime: evening(19, 30),
		})
		assert.ErrorIs(t, err, services.ErrTableNotFound, "table %d", id)
		assert.ErrorIs(t, err, apperrors.ErrNotFound, "table %d", id)
	}

	all, err := f.reservations.GetAllReservations(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
	assert.Empty(t, f.publisher.eventNames())
}

func TestAddReservationDuration(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	table := f.createTable(t, "T1")

	defaulted, err := f.reservations.AddReservation(ctx, models.ReservationCreate{
		TableID: table.ID, CustomerName: "Ann", ReservationTime: evening(12, 0),
	})
	require.NoError(t, err)
	assert.Equal(t, models.DefaultDurationMinutes, defaulted.DurationMinutes)
	assert.True(t, defaulted.EndTime().Equal(evening(13, 0)))

	for _, d := range []int{0, -15} {
		_, err := f.reservations.AddReservation(ctx, models.ReservationCreate{
			TableID: table.ID, CustomerName: "Bob", ReservationTime: evening(15, 0), DurationMinutes: intPtr(d),
		})
		assert.ErrorIs(t, err, services.ErrInvalidDuration, "duration %d", d)
		assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
	}
}

func TestAddReservationValidation(t *testing.T) {
	f := newFixture(t)
	table := f.createTable(t, "T1")

	_, err := f.reservations.AddReservation(context.Background(), models.ReservationCreate{TableID: table.ID})
	assert.ErrorIs(t, err, services.ErrInvalidInput)

	var verrs services.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Len(t, verrs, 2)
}

func TestGetReservation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	table := f.createTable(t, "T1")

	created, err := f.reservations.AddReservation(ctx, models.ReservationCreate{
		TableID: table.ID, CustomerName: "Ann", ReservationTime: evening(19, 30),
	})
	require.NoError(t, err)

	got, err := f.reservations.GetReservation(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, normalize([]models.ReservationRecord{created}), normalize([]models.ReservationRecord{got}))

	_, err = f.reservations.GetReservation(ctx, created.ID+1)
	assert.ErrorIs(t, err, services.ErrReservationNotFound)
}

func TestDeleteReservation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	table := f.createTable(t, "T1")

	created, err := f.reservations.AddReservation(ctx, models.ReservationCreate{
		TableID: table.ID, CustomerName: "Ann", ReservationTime: evening(19, 30),
	})
	require.NoError(t, err)

	deleted, err := f.reservations.DeleteReservation(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, deleted.ID)
	assert.Equal(t, "Ann", deleted.CustomerName)

	_, err = f.reservations.DeleteReservation(ctx, created.ID)
	assert.ErrorIs(t, err, services.ErrReservationNotFound)

	// the slot is free again
	_, err = f.reservations.AddReservation(ctx, models.ReservationCreate{
		TableID: table.ID, CustomerName: "Bob", ReservationTime: evening(19, 30),
	})
	assert.NoError(t, err)
}

func TestDeleteAllReservationsKeepsTables(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	table := f.createTable(t, "T1")
	for _, hour := range []int{12, 14, 16} {
		_, err := f.reservations.AddReservation(ctx, models.ReservationCreate{
			TableID: table.ID, CustomerName: "Ann", ReservationTime: evening(hour, 0),
		})
		require.NoError(t, err)
	}

	for i := 0; i < 2; i++ {
		require.NoError(t, f.reservations.DeleteAllReservations(ctx))
		all, err := f.reservations.GetAllReservations(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)
	}

	_, err := f.tables.GetTable(ctx, table.ID)
	assert.NoError(t, err)
	assert.Equal(t, 1, countEvents(f.publisher.eventNames(), events.EventReservationsPurge))
}

func TestRandomBookingsNeverOverlap(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tableIDs := []uint{f.createTable(t, "T1").ID, f.createTable(t, "T2").ID}
	rng := rand.New(rand.NewSource(7))

	type window struct{ start, end time.Time }
	accepted := map[uint][]window{}

	for i := 0; i < 120; i++ {
		tableID := tableIDs[rng.Intn(len(tableIDs))]
		start := evening(10, 0).Add(time.Duration(rng.Intn(48)) * 15 * time.Minute)
		duration := 15 * (1 + rng.Intn(8))
		end := start.Add(time.Duration(duration) * time.Minute)

		wantConflict := false
		for _, w := range accepted[tableID] {
			if models.Overlaps(w.start, w.end, start, end) {
				wantConflict = true
				break
			}
		}

		_, err := f.reservations.AddReservation(ctx, models.ReservationCreate{
			TableID: tableID, CustomerName: "guest", ReservationTime: start, DurationMinutes: intPtr(duration),
		})
		if wantConflict {
			require.True(t, errors.Is(err, services.ErrTableAlreadyReserved), "attempt %d: %v", i, err)
			continue
		}
		require.NoError(t, err, "attempt %d", i)
		accepted[tableID] = append(accepted[tableID], window{start, end})
	}

	all, err := f.reservations.GetAllReservations(ctx)
	require.NoError(t, err)
	for i := range all {
		for j := i + 1; j < len(all); j++ {
			a, b := all[i], all[j]
			if a.TableID != b.TableID {
				continue
			}
			assert.False(t, models.Overlaps(a.ReservationTime, a.EndTime(), b.ReservationTime, b.EndTime()),
				"reservations %d and %d overlap", a.ID, b.ID)
		}
	}
}

func TestWithRowLockDisabledStillDetectsConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	table := f.createTable(t, "T1")
	unlocked := services.NewReservationService(f.uow, nil, services.WithRowLock(false))

	_, err := unlocked.AddReservation(ctx, models.ReservationCreate{
		TableID: table.ID, CustomerName: "Ann", ReservationTime: evening(19, 30),
	})
	require.NoError(t, err)
	_, err = unlocked.AddReservation(ctx, models.ReservationCreate{
		TableID: table.ID, CustomerName: "Bob", ReservationTime: evening(20, 0),
	})
	assert.ErrorIs(t, err, services.ErrTableAlreadyReserved)
}
