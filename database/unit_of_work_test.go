package database_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/restaurant-reservations/database"
	"github.com/yeremiapane/restaurant-reservations/models"
	"github.com/yeremiapane/restaurant-reservations/repository"
	"github.com/yeremiapane/restaurant-reservations/testutil"
	"gorm.io/gorm"
)

func countTables(t *testing.T, db *gorm.DB) int {
	t.Helper()
	uow := database.NewUnitOfWork(db)
	defer uow.Close()

	tables, err := uow.Tables().List(context.Background(), nil)
	require.NoError(t, err)
	return len(tables)
}

func TestDoCommitsOnSuccess(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()

	uow := database.NewUnitOfWork(db)
	var id uint
	err := uow.Do(ctx, func(ctx context.Context) error {
		table, err := uow.Tables().Add(ctx, &models.Table{Name: "T1", Seats: 2, Location: "hall"})
		if err != nil {
			return err
		}
		id = table.ID
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, uow.Close())

	check := database.NewUnitOfWork(db)
	defer check.Close()
	table, err := check.Tables().GetByIdentifier(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, table)
	assert.Equal(t, "T1", table.Name)
}

func TestDoRollsBackAndReturnsSameError(t *testing.T) {
	db := testutil.NewDB(t)
	errBoom := errors.New("boom")

	uow := database.NewUnitOfWork(db)
	err := uow.Do(context.Background(), func(ctx context.Context) error {
		if _, err := uow.Tables().Add(ctx, &models.Table{Name: "T1", Location: "hall"}); err != nil {
			return err
		}
		return errBoom
	})
	assert.Same(t, errBoom, err)
	require.NoError(t, uow.Close())

	assert.Equal(t, 0, countTables(t, db))
}

func TestDoRollsBackOnPanic(t *testing.T) {
	db := testutil.NewDB(t)

	uow := database.NewUnitOfWork(db)
	assert.PanicsWithValue(t, "kaboom", func() {
		_ = uow.Do(context.Background(), func(ctx context.Context) error {
			if _, err := uow.Tables().Add(ctx, &models.Table{Name: "T1", Location: "hall"}); err != nil {
				return err
			}
			panic("kaboom")
		})
	})
	require.NoError(t, uow.Close())

	assert.Equal(t, 0, countTables(t, db))
}

func TestCommitMidScopeKeepsEarlierWrites(t *testing.T) {
	db := testutil.NewDB(t)
	errLater := errors.New("later step failed")

	uow := database.NewUnitOfWork(db)
	err := uow.Do(context.Background(), func(ctx context.Context) error {
		if _, err := uow.Tables().Add(ctx, &models.Table{Name: "kept", Location: "hall"}); err != nil {
			return err
		}
		if err := uow.Commit(); err != nil {
			return err
		}
		if _, err := uow.Tables().Add(ctx, &models.Table{Name: "discarded", Location: "hall"}); err != nil {
			return err
		}
		return errLater
	})
	assert.ErrorIs(t, err, errLater)
	require.NoError(t, uow.Close())

	check := database.NewUnitOfWork(db)
	defer check.Close()
	tables, err := check.Tables().List(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, "kept", tables[0].Name)
}

func TestNestedScopeIsRejected(t *testing.T) {
	db := testutil.NewDB(t)
	uow := database.NewUnitOfWork(db)
	defer uow.Close()

	err := uow.Do(context.Background(), func(ctx context.Context) error {
		return uow.Do(ctx, func(context.Context) error { return nil })
	})
	assert.ErrorIs(t, err, database.ErrNestedScope)
}

func TestCommitWithoutTransaction(t *testing.T) {
	db := testutil.NewDB(t)
	uow := database.NewUnitOfWork(db)
	defer uow.Close()

	assert.ErrorIs(t, uow.Commit(), database.ErrNoTransaction)
	assert.ErrorIs(t, uow.Rollback(), database.ErrNoTransaction)
}

func TestCloseDiscardsUncommittedWork(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()

	uow := database.NewUnitOfWork(db)
	_, err := uow.Tables().Add(ctx, &models.Table{Name: "T1", Location: "hall"})
	require.NoError(t, err)
	require.NoError(t, uow.Close())
	require.NoError(t, uow.Close())

	_, err = uow.Tx(ctx)
	assert.ErrorIs(t, err, database.ErrClosed)
	assert.Equal(t, 0, countTables(t, db))
}

func TestStorageFailureRollsBackWholeScope(t *testing.T) {
	db := testutil.NewDB(t)

	uow := database.NewUnitOfWork(db)
	err := uow.Do(context.Background(), func(ctx context.Context) error {
		if _, err := uow.Tables().Add(ctx, &models.Table{Name: "T1", Location: "hall"}); err != nil {
			return err
		}
		_, err := uow.Reservations().Add(ctx, &models.Reservation{
			TableID:         9999,
			CustomerName:    "Ann",
			ReservationTime: time.Date(2025, 4, 10, 19, 30, 0, 0, time.UTC),
			DurationMinutes: 60,
		})
		return err
	})
	assert.ErrorIs(t, err, repository.ErrUnknownTable)
	require.NoError(t, uow.Close())

	assert.Equal(t, 0, countTables(t, db))
}
