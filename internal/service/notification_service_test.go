package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hazardwatch/ticket-engine/internal/config"
	"github.com/hazardwatch/ticket-engine/internal/events"
)

type stubPublisher struct {
	channel  string
	payloads [][]byte
	fail     bool
}

func (s *stubPublisher) Publish(_ context.Context, channel string, payload []byte) error {
	if s.fail {
		return errors.New("redis down")
	}
	s.channel = channel
	s.payloads = append(s.payloads, payload)
	return nil
}

func TestNotificationFanout(t *testing.T) {
	publisher := &stubPublisher{}
	notifier := NewNotificationService(publisher, config.NotificationConfig{
		RedisChannel: "hazard.ticket.events",
	}, zap.NewNop())

	dispatcher := events.NewInMemoryDispatcher(zap.NewNop())
	notifier.Register(dispatcher)

	err := dispatcher.Publish(context.Background(), events.Event{
		ID:              "e-1",
		Type:            events.EventTicketEscalated,
		TicketID:        "t-1",
		AffectedUserIDs: []string{"ana-1", "aut-1"},
	})
	require.NoError(t, err)

	require.Len(t, publisher.payloads, 1)
	assert.Equal(t, "hazard.ticket.events", publisher.channel)

	var decoded events.Event
	require.NoError(t, json.Unmarshal(publisher.payloads[0], &decoded))
	assert.Equal(t, events.EventTicketEscalated, decoded.Type)
	assert.Equal(t, []string{"ana-1", "aut-1"}, decoded.AffectedUserIDs)
}

func TestNotificationSurvivesPublisherFailure(t *testing.T) {
	publisher := &stubPublisher{fail: true}
	notifier := NewNotificationService(publisher, config.NotificationConfig{
		RedisChannel: "hazard.ticket.events",
	}, zap.NewNop())

	err := notifier.Handle(context.Background(), events.Event{Type: events.EventTicketClosed})
	assert.NoError(t, err)
}
