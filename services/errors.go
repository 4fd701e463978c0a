package services

import "github.com/yeremiapane/restaurant-reservations/apperrors"

var (
	ErrTableNotFound        = apperrors.NotFound("table not found")
	ErrReservationNotFound  = apperrors.NotFound("reservation not found")
	ErrTableAlreadyReserved = apperrors.Conflict("table is already reserved for this time")
	ErrInvalidSeats         = apperrors.InvalidArgument("seats must not be negative")
	ErrInvalidDuration      = apperrors.InvalidArgument("duration_minutes must be positive")
	ErrInvalidInput         = apperrors.InvalidArgument("invalid input")
)
