package database

import (
	"fmt"

	"github.com/yeremiapane/restaurant-reservations/utils"
	"gorm.io/gorm"
)

const overlapConstraintName = "excl_reservations_overlap"

// overlapConstraintSQL makes postgres reject any two reservations on the same
// table whose [start, end) windows intersect.
var overlapConstraintSQL = []string{
	`CREATE EXTENSION IF NOT EXISTS btree_gist`,
	`CREATE OR REPLACE FUNCTION reservation_window(start_at timestamptz, minutes integer)
RETURNS tstzrange AS $$
	SELECT tstzrange(start_at, start_at + make_interval(mins => minutes), '[)')
$$ LANGUAGE sql IMMUTABLE`,
	`DO $$
BEGIN
	IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = '` + overlapConstraintName + `') THEN
		ALTER TABLE reservations ADD CONSTRAINT ` + overlapConstraintName + `
			EXCLUDE USING gist (table_id WITH =, reservation_window(reservation_time, duration_minutes) WITH &&);
	END IF;
END
$$`,
}

// ExecuteConstraints installs store-level constraints that gorm tags cannot
// express. Only postgres is supported; other dialects rely on the service level
// check and are left untouched.
func ExecuteConstraints(db *gorm.DB) error {
	if dialect := db.Dialector.Name(); dialect != "postgres" {
		utils.InfoLogger.Infof("Overlap constraint not supported on %s, skipping", dialect)
		return nil
	}

	for _, stmt := range overlapConstraintSQL {
		if err := db.Exec(stmt).Error; err != nil {
			utils.ErrorLogger.Printf("Error executing constraint statement: %v\nStatement: %s", err, stmt)
			return fmt.Errorf("install overlap constraint: %w", err)
		}
	}

	var constraints []struct {
		Name     string
		Relation string
	}
	err := db.Raw(`
		SELECT c.conname AS name, t.relname AS relation
		FROM pg_constraint c
		JOIN pg_class t ON t.oid = c.conrelid
		WHERE c.contype = 'x' AND c.conname = ?
	`, overlapConstraintName).Scan(&constraints).Error
	if err != nil {
		return fmt.Errorf("verify overlap constraint: %w", err)
	}
	if len(constraints) == 0 {
		return fmt.Errorf("overlap constraint %s missing after install", overlapConstraintName)
	}
	for _, c := range constraints {
		utils.InfoLogger.Infof("Constraint verified: %s on %s", c.Name, c.Relation)
	}
	return nil
}
