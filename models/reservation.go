package models

import "time"

// DefaultDurationMinutes is used when a reservation omits its duration.
const DefaultDurationMinutes = 60

type Reservation struct {
	ID              uint      `gorm:"primaryKey"`
	TableID         uint      `gorm:"not null;index:idx_reservations_table_time,priority:1"`
	Table           *Table    `gorm:"foreignKey:TableID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	CustomerName    string    `gorm:"type:varchar(255);not null"`
	ReservationTime time.Time `gorm:"not null;index:idx_reservations_table_time,priority:2"`
	DurationMinutes int       `gorm:"type:integer;not null;check:chk_reservations_duration,duration_minutes > 0"`
	CreatedAt       time.Time `gorm:"not null"`
	UpdatedAt       time.Time `gorm:"not null"`
}

func (r *Reservation) PrimaryKey() uint {
	return r.ID
}

// EndTime is the exclusive end of the booking window.
func (r *Reservation) EndTime() time.Time {
	return r.ReservationTime.Add(time.Duration(r.DurationMinutes) * time.Minute)
}

// Overlaps reports whether the reservation's window intersects [start, end).
// Windows that only touch at an endpoint do not overlap.
func (r *Reservation) Overlaps(start, end time.Time) bool {
	return Overlaps(r.ReservationTime, r.EndTime(), start, end)
}

func (r *Reservation) Record() ReservationRecord {
	return ReservationRecord{
		ID:              r.ID,
		TableID:         r.TableID,
		CustomerName:    r.CustomerName,
		ReservationTime: r.ReservationTime,
		DurationMinutes: r.DurationMinutes,
	}
}

// Overlaps is the half-open interval test a.start < b.end && b.start < a.end.
func Overlaps(startA, endA, startB, endB time.Time) bool {
	return startA.Before(endB) && startB.Before(endA)
}

type ReservationRecord struct {
	ID              uint      `json:"id"`
	TableID         uint      `json:"table_id"`
	CustomerName    string    `json:"customer_name"`
	ReservationTime time.Time `json:"reservation_time"`
	DurationMinutes int       `json:"duration_minutes"`
}

func (r ReservationRecord) EndTime() time.Time {
	return r.ReservationTime.Add(time.Duration(r.DurationMinutes) * time.Minute)
}

// ReservationCreate carries a booking request. A nil DurationMinutes falls back
// to DefaultDurationMinutes. TableID is resolved by lookup, so 0 is reported as
// an unknown table.
type ReservationCreate struct {
	TableID         uint      `json:"table_id"`
	CustomerName    string    `json:"customer_name" validate:"required"`
	ReservationTime time.Time `json:"reservation_time" validate:"required"`
	DurationMinutes *int      `json:"duration_minutes"`
}
