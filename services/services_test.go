package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/restaurant-reservations/database"
	"github.com/yeremiapane/restaurant-reservations/events"
	"github.com/yeremiapane/restaurant-reservations/models"
	"github.com/yeremiapane/restaurant-reservations/services"
	"github.com/yeremiapane/restaurant-reservations/testutil"
)

type recordingPublisher struct {
	mu       sync.Mutex
	messages []events.Message
	err      error
}

func (p *recordingPublisher) Publish(_ context.Context, msg events.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, msg)
	return p.err
}

func (p *recordingPublisher) eventNames() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	names := make([]string, 0, len(p.messages))
	for _, m := range p.messages {
		names = append(names, m.Event)
	}
	return names
}

type fixture struct {
	uow          *database.UnitOfWork
	tables       *services.TableService
	reservations *services.ReservationService
	publisher    *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	uow := database.NewUnitOfWork(db)
	t.Cleanup(func() { _ = uow.Close() })

	publisher := &recordingPublisher{}
	return &fixture{
		uow:          uow,
		tables:       services.NewTableService(uow, publisher),
		reservations: services.NewReservationService(uow, publisher),
		publisher:    publisher,
	}
}

func (f *fixture) createTable(t *testing.T, name string) models.TableRecord {
	t.Helper()
	table, err := f.tables.CreateTable(context.Background(), models.TableCreate{Name: name, Location: "hall"})
	require.NoError(t, err)
	return table
}

func intPtr(v int) *int {
	return &v
}

func strPtr(v string) *string {
	return &v
}

var errPublisherDown = errors.New("publisher down")
