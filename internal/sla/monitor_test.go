package sla

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hazardwatch/ticket-engine/internal/domain"
	"github.com/hazardwatch/ticket-engine/internal/events"
)

type stubSource struct {
	tickets []domain.Ticket
}

func (s *stubSource) ListUnresolved(context.Context) ([]domain.Ticket, error) {
	return s.tickets, nil
}

type stubEscalator struct {
	calls []string
}

func (s *stubEscalator) EscalateOverdue(_ context.Context, ticketID, _ string) error {
	s.calls = append(s.calls, ticketID)
	return nil
}

func newBreachedTicket(createdAt time.Time) domain.Ticket {
	return domain.Ticket{
		ID:            "t-1",
		Status:        domain.TicketStatusInProgress,
		Priority:      domain.TicketPriorityHigh,
		ResponseDue:   createdAt.Add(time.Hour),
		ResolutionDue: createdAt.Add(8 * time.Hour),
		CreatedAt:     createdAt,
	}
}

func monitorFixture(t *testing.T, source *stubSource, escalator *stubEscalator, cfg MonitorConfig) (*Monitor, *[]events.Event, *time.Time) {
	t.Helper()

	dispatcher := events.NewInMemoryDispatcher(zap.NewNop())
	captured := &[]events.Event{}
	capture := func(_ context.Context, e events.Event) error {
		*captured = append(*captured, e)
		return nil
	}
	dispatcher.Subscribe(events.EventResponseOverdue, capture)
	dispatcher.Subscribe(events.EventResolutionOverdue, capture)

	monitor := NewMonitor(source, escalator, dispatcher, zap.NewNop(), cfg)
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	monitor.now = func() time.Time { return now }
	return monitor, captured, &now
}

func TestMonitorRaisesEachBreachOnce(t *testing.T) {
	createdAt := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	source := &stubSource{tickets: []domain.Ticket{newBreachedTicket(createdAt)}}
	monitor, captured, now := monitorFixture(t, source, nil, MonitorConfig{})

	// Before any deadline nothing fires.
	require.NoError(t, monitor.Tick(context.Background()))
	assert.Empty(t, *captured)

	*now = createdAt.Add(2 * time.Hour)
	require.NoError(t, monitor.Tick(context.Background()))
	require.Len(t, *captured, 1)
	assert.Equal(t, events.EventResponseOverdue, (*captured)[0].Type)

	// The same breach does not fire again on the next tick.
	require.NoError(t, monitor.Tick(context.Background()))
	assert.Len(t, *captured, 1)

	*now = createdAt.Add(9 * time.Hour)
	require.NoError(t, monitor.Tick(context.Background()))
	require.Len(t, *captured, 2)
	assert.Equal(t, events.EventResolutionOverdue, (*captured)[1].Type)

	require.NoError(t, monitor.Tick(context.Background()))
	assert.Len(t, *captured, 2)
}

func TestMonitorResponseMarkResetsWhenBreachClears(t *testing.T) {
	createdAt := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	ticket := newBreachedTicket(createdAt)
	source := &stubSource{tickets: []domain.Ticket{ticket}}
	monitor, captured, now := monitorFixture(t, source, nil, MonitorConfig{})

	*now = createdAt.Add(2 * time.Hour)
	require.NoError(t, monitor.Tick(context.Background()))
	require.Len(t, *captured, 1)

	// First response lands, clearing the breach.
	responded := createdAt.Add(3 * time.Hour)
	ticket.FirstResponseAt = &responded
	source.tickets = []domain.Ticket{ticket}
	*now = createdAt.Add(4 * time.Hour)
	require.NoError(t, monitor.Tick(context.Background()))
	assert.Len(t, *captured, 1)
}

func TestMonitorAutoEscalatesWhenEnabled(t *testing.T) {
	createdAt := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	source := &stubSource{tickets: []domain.Ticket{newBreachedTicket(createdAt)}}
	escalator := &stubEscalator{}
	monitor, _, now := monitorFixture(t, source, escalator, MonitorConfig{AutoEscalate: true})

	*now = createdAt.Add(9 * time.Hour)
	require.NoError(t, monitor.Tick(context.Background()))
	assert.Equal(t, []string{"t-1"}, escalator.calls)

	// Already-escalated tickets are not escalated again.
	ticket := newBreachedTicket(createdAt)
	ticket.IsEscalated = true
	ticket.ID = "t-2"
	source.tickets = []domain.Ticket{ticket}
	require.NoError(t, monitor.Tick(context.Background()))
	assert.Equal(t, []string{"t-1"}, escalator.calls)
}

func TestMonitorEvictsMarksForSettledTickets(t *testing.T) {
	createdAt := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	source := &stubSource{tickets: []domain.Ticket{newBreachedTicket(createdAt)}}
	monitor, captured, now := monitorFixture(t, source, nil, MonitorConfig{})

	*now = createdAt.Add(2 * time.Hour)
	require.NoError(t, monitor.Tick(context.Background()))
	require.Len(t, *captured, 1)

	// The ticket resolves and drops out of the scan; its mark goes with it.
	source.tickets = nil
	require.NoError(t, monitor.Tick(context.Background()))
	monitor.mu.Lock()
	remaining := len(monitor.notified)
	monitor.mu.Unlock()
	assert.Zero(t, remaining)
}

func TestMonitorStaysQuietWithoutAutoEscalate(t *testing.T) {
	createdAt := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	source := &stubSource{tickets: []domain.Ticket{newBreachedTicket(createdAt)}}
	escalator := &stubEscalator{}
	monitor, captured, now := monitorFixture(t, source, escalator, MonitorConfig{})

	*now = createdAt.Add(9 * time.Hour)
	require.NoError(t, monitor.Tick(context.Background()))
	assert.Empty(t, escalator.calls)
	assert.NotEmpty(t, *captured)
}
