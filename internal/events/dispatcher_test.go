package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestDispatcherDeliversToSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher(zap.NewNop())

	var got []Event
	d.Subscribe(EventTicketCreated, func(_ context.Context, e Event) error {
		got = append(got, e)
		return nil
	})
	d.Subscribe(EventTicketClosed, func(_ context.Context, e Event) error {
		t.Fatalf("unexpected delivery for %s", e.Type)
		return nil
	})

	err := d.Publish(context.Background(), Event{ID: "e-1", Type: EventTicketCreated, TicketID: "t-1"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "t-1", got[0].TicketID)
}

func TestDispatcherContinuesPastFailingHandler(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	d := NewInMemoryDispatcher(zap.New(core))

	var delivered int
	d.Subscribe(EventTicketEscalated, func(context.Context, Event) error {
		return errors.New("handler down")
	})
	d.Subscribe(EventTicketEscalated, func(context.Context, Event) error {
		delivered++
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventTicketEscalated, TicketID: "t-9"})
	require.NoError(t, err)
	assert.Equal(t, 1, delivered)

	entries := logs.FilterMessage("event handler failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "t-9", entries[0].ContextMap()["ticket_id"])
}

func TestDispatcherIgnoresUnsubscribedTypes(t *testing.T) {
	d := NewInMemoryDispatcher(nil)
	err := d.Publish(context.Background(), Event{Type: EventResponseOverdue})
	assert.NoError(t, err)
}
