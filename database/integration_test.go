//go:build integration
// +build integration

package database_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/yeremiapane/restaurant-reservations/database"
	"github.com/yeremiapane/restaurant-reservations/models"
	"github.com/yeremiapane/restaurant-reservations/repository"
	"github.com/yeremiapane/restaurant-reservations/services"
	"github.com/yeremiapane/restaurant-reservations/utils"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupPostgres starts a PostgreSQL container and returns a migrated gorm DB.
func setupPostgres(t *testing.T, withConstraint bool) *gorm.DB {
	t.Helper()
	ctx := context.Background()
	utils.InitLogger()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("reservations"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	})

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))
	if withConstraint {
		require.NoError(t, database.ExecuteConstraints(db))
		// idempotent
		require.NoError(t, database.ExecuteConstraints(db))
	}
	return db
}

func createTable(t *testing.T, db *gorm.DB) uint {
	t.Helper()
	uow := database.NewUnitOfWork(db)
	defer uow.Close()

	table, err := services.NewTableService(uow, nil).CreateTable(context.Background(), models.TableCreate{Name: "T1", Location: "hall"})
	require.NoError(t, err)
	return table.ID
}

// bookConcurrently fires n identical bookings at once, each through its own
// unit of work, and returns how many succeeded and how many conflicted.
func bookConcurrently(t *testing.T, db *gorm.DB, tableID uint, n int, opts ...services.ReservationOption) (booked, conflicted int) {
	t.Helper()
	start := time.Date(2025, 4, 10, 19, 30, 0, 0, time.UTC)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		gate    = make(chan struct{})
		unknown []error
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			uow := database.NewUnitOfWork(db)
			defer uow.Close()
			svc := services.NewReservationService(uow, nil, opts...)

			<-gate
			_, err := svc.AddReservation(context.Background(), models.ReservationCreate{
				TableID:         tableID,
				CustomerName:    "guest",
				ReservationTime: start,
			})

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				booked++
			case errors.Is(err, services.ErrTableAlreadyReserved):
				conflicted++
			default:
				unknown = append(unknown, err)
			}
		}()
	}
	close(gate)
	wg.Wait()

	require.Empty(t, unknown)
	return booked, conflicted
}

func TestRowLockSerialisesConcurrentBookings(t *testing.T) {
	db := setupPostgres(t, false)
	tableID := createTable(t, db)

	booked, conflicted := bookConcurrently(t, db, tableID, 8, services.WithRowLock(true))
	assert.Equal(t, 1, booked)
	assert.Equal(t, 7, conflicted)
}

func TestExclusionConstraintRejectsConcurrentBookings(t *testing.T) {
	db := setupPostgres(t, true)
	tableID := createTable(t, db)

	booked, conflicted := bookConcurrently(t, db, tableID, 8, services.WithRowLock(false))
	assert.Equal(t, 1, booked)
	assert.Equal(t, 7, conflicted)
}

func TestExclusionConstraintAllowsTouchingWindows(t *testing.T) {
	db := setupPostgres(t, true)
	tableID := createTable(t, db)
	ctx := context.Background()

	uow := database.NewUnitOfWork(db)
	defer uow.Close()
	require.NoError(t, uow.Do(ctx, func(ctx context.Context) error {
		for _, hour := range []int{18, 19, 20} {
			if _, err := uow.Reservations().Add(ctx, &models.Reservation{
				TableID:         tableID,
				CustomerName:    "guest",
				ReservationTime: time.Date(2025, 4, 10, hour, 0, 0, 0, time.UTC),
				DurationMinutes: 60,
			}); err != nil {
				return err
			}
		}
		return nil
	}))

	// bypasses the service check, so only the constraint can reject it
	err := uow.Do(ctx, func(ctx context.Context) error {
		_, err := uow.Reservations().Add(ctx, &models.Reservation{
			TableID:         tableID,
			CustomerName:    "intruder",
			ReservationTime: time.Date(2025, 4, 10, 18, 30, 0, 0, time.UTC),
			DurationMinutes: 60,
		})
		return err
	})
	assert.ErrorIs(t, err, repository.ErrOverlap)
}

func TestFindOverlappingOnPostgres(t *testing.T) {
	db := setupPostgres(t, false)
	tableID := createTable(t, db)
	ctx := context.Background()

	uow := database.NewUnitOfWork(db)
	defer uow.Close()
	at := func(h, m int) time.Time { return time.Date(2025, 4, 10, h, m, 0, 0, time.UTC) }

	_, err := uow.Reservations().Add(ctx, &models.Reservation{TableID: tableID, CustomerName: "a", ReservationTime: at(18, 0), DurationMinutes: 60})
	require.NoError(t, err)
	_, err = uow.Reservations().Add(ctx, &models.Reservation{TableID: tableID, CustomerName: "b", ReservationTime: at(20, 0), DurationMinutes: 90})
	require.NoError(t, err)

	windows := [][2]time.Time{
		{at(19, 0), at(20, 0)},
		{at(18, 59), at(19, 30)},
		{at(18, 30), at(20, 30)},
		{at(21, 30), at(22, 0)},
		{at(21, 29), at(22, 0)},
	}
	all, err := uow.Reservations().ListByTable(ctx, tableID)
	require.NoError(t, err)
	for _, w := range windows {
		found, err := uow.Reservations().FindOverlapping(ctx, tableID, w[0], w[1])
		require.NoError(t, err)

		var want []string
		for _, r := range all {
			if r.Overlaps(w[0], w[1]) {
				want = append(want, r.CustomerName)
			}
		}
		var got []string
		for _, r := range found {
			got = append(got, r.CustomerName)
		}
		assert.Equal(t, want, got, "window %v-%v", w[0], w[1])
	}
}
