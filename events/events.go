// Package events publishes table and reservation changes to live subscribers.
package events

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	EventTableCreate       = "table_create"
	EventTableUpdate       = "table_update"
	EventTableDelete       = "table_delete"
	EventTablesPurge       = "tables_purge"
	EventReservationCreate = "reservation_create"
	EventReservationDelete = "reservation_delete"
	EventReservationsPurge = "reservations_purge"
)

// Message is one change notification. Key groups messages about the same
// table and is used for partitioning; it is not part of the payload.
type Message struct {
	ID    string    `json:"id"`
	Event string    `json:"event"`
	Data  any       `json:"data"`
	Time  time.Time `json:"time"`
	Key   string    `json:"-"`
}

func NewMessage(event, key string, data any) Message {
	return Message{
		ID:    uuid.NewString(),
		Event: event,
		Data:  data,
		Time:  time.Now().UTC(),
		Key:   key,
	}
}

// Publisher delivers committed changes. Implementations must be safe for
// concurrent use.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
}

// Nop discards every message.
type Nop struct{}

func (Nop) Publish(context.Context, Message) error { return nil }

// Multi fans a message out to every publisher and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, msg Message) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
