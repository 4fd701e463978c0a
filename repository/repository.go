// Package repository provides CRUD access to tables and reservations through the
// transaction handed out by a Session.
package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/restaurant-reservations/apperrors"
	"github.com/yeremiapane/restaurant-reservations/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrInvalidFilter   = apperrors.InvalidArgument("invalid filter field")
	ErrMissingIdentity = apperrors.InvalidArgument("entity has no identity")
)

// Session hands out the gorm handle bound to the caller's current transaction.
type Session interface {
	Tx(ctx context.Context) (*gorm.DB, error)
}

// Model is satisfied by pointers to entities with an integer primary key.
type Model[T any] interface {
	*T
	PrimaryKey() uint
}

// Filters are exact-match conditions combined with AND. Keys are field names
// from the repository's allow-list.
type Filters map[string]any

// Repository implements the CRUD contract shared by every entity kind.
type Repository[T any, PT Model[T]] struct {
	session Session
	entity  string
	columns map[string]string
}

func newRepository[T any, PT Model[T]](session Session, entity string, columns map[string]string) *Repository[T, PT] {
	utils.InfoLogger.Debugf("Initialized %s repository", entity)
	return &Repository[T, PT]{
		session: session,
		entity:  entity,
		columns: columns,
	}
}

func (r *Repository[T, PT]) db(ctx context.Context) (*gorm.DB, error) {
	tx, err := r.session.Tx(ctx)
	if err != nil {
		return nil, err
	}
	return tx.WithContext(ctx), nil
}

// GetByIdentifier returns nil without an error when no row has the given id.
func (r *Repository[T, PT]) GetByIdentifier(ctx context.Context, id uint) (PT, error) {
	db, err := r.db(ctx)
	if err != nil {
		return nil, err
	}
	utils.InfoLogger.WithFields(logrus.Fields{"entity": r.entity, "id": id}).Debug("Fetching by identifier")

	var entity T
	if err := db.First(&entity, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperrors.Storage(fmt.Sprintf("get %s", r.entity), err)
	}
	return &entity, nil
}

// List returns the rows matching every filter, ordered by id. Unknown filter
// names fail with ErrInvalidFilter before any query runs.
func (r *Repository[T, PT]) List(ctx context.Context, filters Filters) ([]T, error) {
	conditions, err := r.conditions(filters)
	if err != nil {
		return nil, err
	}
	db, err := r.db(ctx)
	if err != nil {
		return nil, err
	}
	utils.InfoLogger.WithFields(logrus.Fields{"entity": r.entity, "filters": filters}).Debug("Listing")

	query := db.Model(new(T))
	if len(conditions) > 0 {
		query = query.Where(conditions)
	}
	var rows []T
	if err := query.Order("id").Find(&rows).Error; err != nil {
		return nil, apperrors.Storage(fmt.Sprintf("list %s", r.entity), err)
	}
	return rows, nil
}

func (r *Repository[T, PT]) conditions(filters Filters) (map[string]any, error) {
	conditions := make(map[string]any, len(filters))
	for name, value := range filters {
		column, ok := r.columns[name]
		if !ok {
			utils.ErrorLogger.Printf("Invalid filter %q for %s", name, r.entity)
			return nil, fmt.Errorf("%w %q for %s (allowed: %v)", ErrInvalidFilter, name, r.entity, r.allowed())
		}
		conditions[column] = value
	}
	return conditions, nil
}

func (r *Repository[T, PT]) allowed() []string {
	names := make([]string, 0, len(r.columns))
	for name := range r.columns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Add inserts entity and returns a fresh copy read back from the store, so
// store-side defaults and the generated id are visible.
func (r *Repository[T, PT]) Add(ctx context.Context, entity PT) (PT, error) {
	db, err := r.db(ctx)
	if err != nil {
		return nil, err
	}
	utils.InfoLogger.WithField("entity", r.entity).Debug("Adding")

	if err := db.Omit(clause.Associations).Create(entity).Error; err != nil {
		return nil, apperrors.Storage(fmt.Sprintf("insert %s", r.entity), err)
	}
	return r.reload(ctx, entity.PrimaryKey())
}

// Update writes every column of entity by primary key. Existence is the
// caller's concern; a missing row is inserted.
func (r *Repository[T, PT]) Update(ctx context.Context, entity PT) (PT, error) {
	if entity.PrimaryKey() == 0 {
		return nil, ErrMissingIdentity
	}
	db, err := r.db(ctx)
	if err != nil {
		return nil, err
	}
	utils.InfoLogger.WithFields(logrus.Fields{"entity": r.entity, "id": entity.PrimaryKey()}).Debug("Updating")

	if err := db.Omit(clause.Associations).Save(entity).Error; err != nil {
		return nil, apperrors.Storage(fmt.Sprintf("update %s", r.entity), err)
	}
	return r.reload(ctx, entity.PrimaryKey())
}

// Delete removes the row with the given id. A missing id is not an error.
func (r *Repository[T, PT]) Delete(ctx context.Context, id uint) error {
	db, err := r.db(ctx)
	if err != nil {
		return err
	}
	utils.InfoLogger.WithFields(logrus.Fields{"entity": r.entity, "id": id}).Debug("Deleting")

	if err := db.Delete(new(T), id).Error; err != nil {
		return apperrors.Storage(fmt.Sprintf("delete %s", r.entity), err)
	}
	return nil
}

func (r *Repository[T, PT]) reload(ctx context.Context, id uint) (PT, error) {
	fresh, err := r.GetByIdentifier(ctx, id)
	if err != nil {
		return nil, err
	}
	if fresh == nil {
		return nil, apperrors.Storage(fmt.Sprintf("reload %s", r.entity), fmt.Errorf("row %d vanished after write", id))
	}
	return fresh, nil
}

// supportsRowLocks reports whether the dialect understands SELECT ... FOR UPDATE.
func supportsRowLocks(db *gorm.DB) bool {
	switch db.Dialector.Name() {
	case "postgres", "mysql":
		return true
	default:
		return false
	}
}
