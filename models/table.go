package models

import "time"

// DefaultSeats is used when a table is created without an explicit seat count.
const DefaultSeats = 4

type Table struct {
	ID        uint      `gorm:"primaryKey"`
	Name      string    `gorm:"type:varchar(255);not null"`
	Seats     int       `gorm:"type:integer;not null;check:chk_tables_seats,seats >= 0"`
	Location  string    `gorm:"type:varchar(255);not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (t *Table) PrimaryKey() uint {
	return t.ID
}

// Record returns a snapshot detached from the gorm entity.
func (t *Table) Record() TableRecord {
	return TableRecord{
		ID:       t.ID,
		Name:     t.Name,
		Seats:    t.Seats,
		Location: t.Location,
	}
}

// TableRecord is the read-only view of a table handed to callers.
type TableRecord struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	Seats    int    `json:"seats"`
	Location string `json:"location"`
}

// TableCreate carries the fields accepted when creating a table. A nil Seats
// falls back to DefaultSeats.
type TableCreate struct {
	Name     string `json:"name" validate:"required"`
	Seats    *int   `json:"seats"`
	Location string `json:"location" validate:"required"`
}

// TableUpdate is a partial update; nil fields are left unchanged.
type TableUpdate struct {
	Name     *string `json:"name" validate:"omitempty,min=1"`
	Seats    *int    `json:"seats"`
	Location *string `json:"location" validate:"omitempty,min=1"`
}

// Apply copies the supplied fields onto t.
func (u TableUpdate) Apply(t *Table) {
	if u.Name != nil {
		t.Name = *u.Name
	}
	if u.Seats != nil {
		t.Seats = *u.Seats
	}
	if u.Location != nil {
		t.Location = *u.Location
	}
}
