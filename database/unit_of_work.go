package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/yeremiapane/restaurant-reservations/apperrors"
	"github.com/yeremiapane/restaurant-reservations/repository"
	"github.com/yeremiapane/restaurant-reservations/utils"
	"gorm.io/gorm"
)

var (
	ErrClosed        = errors.New("unit of work is closed")
	ErrNestedScope   = errors.New("unit of work scope is already open")
	ErrNoTransaction = errors.New("unit of work has no open transaction")
)

// UnitOfWork binds repository calls to one checked-out connection and the
// transaction currently open on it. A transaction begins lazily on the first
// repository call and ends with Commit or Rollback; the next call opens a new
// one on the same connection. It is not safe for use by concurrent requests.
type UnitOfWork struct {
	db *gorm.DB

	mu      sync.Mutex
	conn    *sql.Conn
	session *gorm.DB
	tx      *gorm.DB
	inScope bool
	closed  bool

	tables       *repository.TableRepository
	reservations *repository.ReservationRepository
}

func NewUnitOfWork(db *gorm.DB) *UnitOfWork {
	u := &UnitOfWork{db: db}
	u.tables = repository.NewTableRepository(u)
	u.reservations = repository.NewReservationRepository(u)
	return u
}

func (u *UnitOfWork) Tables() *repository.TableRepository {
	return u.tables
}

func (u *UnitOfWork) Reservations() *repository.ReservationRepository {
	return u.reservations
}

// Tx returns the handle of the open transaction, beginning one if needed.
func (u *UnitOfWork) Tx(ctx context.Context) (*gorm.DB, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if err := u.begin(ctx); err != nil {
		return nil, err
	}
	return u.tx.WithContext(ctx), nil
}

// Begin opens the unit of work scope. Opening a second scope before the first
// one ends fails with ErrNestedScope.
func (u *UnitOfWork) Begin(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.inScope {
		return ErrNestedScope
	}
	if err := u.begin(ctx); err != nil {
		return err
	}
	u.inScope = true
	return nil
}

func (u *UnitOfWork) begin(ctx context.Context) error {
	if u.closed {
		return ErrClosed
	}
	if u.tx != nil {
		return nil
	}
	if u.conn == nil {
		sqlDB, err := u.db.DB()
		if err != nil {
			return apperrors.Storage("acquire connection", err)
		}
		conn, err := sqlDB.Conn(ctx)
		if err != nil {
			return apperrors.Storage("acquire connection", err)
		}
		session := u.db.Session(&gorm.Session{NewDB: true, Context: ctx})
		session.Statement.ConnPool = conn
		u.conn, u.session = conn, session
		utils.InfoLogger.Debug("Unit of work acquired a connection")
	}

	tx := u.session.WithContext(ctx).Begin()
	if tx.Error != nil {
		return apperrors.Storage("begin transaction", tx.Error)
	}
	u.tx = tx
	utils.InfoLogger.Debug("Transaction started")
	return nil
}

// Commit commits the open transaction. The scope, if any, stays open.
func (u *UnitOfWork) Commit() error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.tx == nil {
		return ErrNoTransaction
	}
	err := u.tx.Commit().Error
	u.tx = nil
	if err != nil {
		utils.ErrorLogger.Printf("Commit failed: %v", err)
		return apperrors.Storage("commit transaction", err)
	}
	utils.InfoLogger.Debug("Transaction committed")
	return nil
}

// Rollback discards the open transaction. The scope, if any, stays open.
func (u *UnitOfWork) Rollback() error {
	u.mu.Lock()
	defer u.mu.Unlock()

	return u.rollback()
}

func (u *UnitOfWork) rollback() error {
	if u.tx == nil {
		return ErrNoTransaction
	}
	err := u.tx.Rollback().Error
	u.tx = nil
	if err != nil && !errors.Is(err, sql.ErrTxDone) {
		utils.ErrorLogger.Printf("Rollback failed: %v", err)
		return apperrors.Storage("rollback transaction", err)
	}
	utils.InfoLogger.Debug("Transaction rolled back")
	return nil
}

// End closes the scope opened by Begin. An open transaction is committed when
// failed is false and rolled back otherwise.
func (u *UnitOfWork) End(failed bool) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	u.inScope = false
	if u.tx == nil {
		return nil
	}
	if failed {
		return u.rollback()
	}
	err := u.tx.Commit().Error
	u.tx = nil
	if err != nil {
		utils.ErrorLogger.Printf("Commit failed: %v", err)
		return apperrors.Storage("commit transaction", err)
	}
	utils.InfoLogger.Debug("Transaction committed")
	return nil
}

// Do runs fn inside a scope. When fn returns an error the open transaction is
// rolled back and that same error is returned; a panic rolls back and
// re-panics. Otherwise the open transaction, if any, is committed.
func (u *UnitOfWork) Do(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if err := u.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			if rbErr := u.End(true); rbErr != nil {
				utils.ErrorLogger.Printf("Rollback after panic failed: %v", rbErr)
			}
			panic(p)
		}
	}()

	if err := fn(ctx); err != nil {
		if rbErr := u.End(true); rbErr != nil {
			utils.ErrorLogger.Printf("Rollback after %v failed: %v", err, rbErr)
		}
		return err
	}
	return u.End(false)
}

// Close rolls back any open transaction and returns the connection to the
// pool. The unit of work cannot be used afterwards. Close is idempotent.
func (u *UnitOfWork) Close() error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.closed {
		return nil
	}
	u.closed = true
	u.inScope = false

	var errs []error
	if u.tx != nil {
		if err := u.rollback(); err != nil {
			errs = append(errs, err)
		}
	}
	if u.conn != nil {
		if err := u.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("release connection: %w", err))
		}
		u.conn, u.session = nil, nil
		utils.InfoLogger.Debug("Unit of work released its connection")
	}
	return errors.Join(errs...)
}
