package service

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/hazardwatch/ticket-engine/internal/config"
	"github.com/hazardwatch/ticket-engine/internal/events"
)

// EventPublisher is the outbound fanout target. Satisfied by the Redis
// persistence wrapper.
type EventPublisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// NotificationService subscribes to every domain event and hands it to the
// external delivery pipeline via a Redis channel. It never blocks or fails
// a ticket mutation: delivery problems are logged and dropped.
type NotificationService struct {
	publisher  EventPublisher
	channel    string
	webhookURL string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewNotificationService constructs the notifier.
func NewNotificationService(publisher EventPublisher, cfg config.NotificationConfig, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		publisher:  publisher,
		channel:    cfg.RedisChannel,
		webhookURL: cfg.WebhookURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

// Register subscribes the notifier to all event types on the dispatcher.
func (n *NotificationService) Register(dispatcher events.Dispatcher) {
	types := []events.EventType{
		events.EventTicketCreated,
		events.EventTicketStatusChanged,
		events.EventTicketEscalated,
		events.EventTicketClosed,
		events.EventTicketAssigned,
		events.EventParticipantAdded,
		events.EventParticipantRemoved,
		events.EventTicketMessageAdded,
		events.EventTicketFirstResponse,
		events.EventResponseOverdue,
		events.EventResolutionOverdue,
	}
	for _, t := range types {
		dispatcher.Subscribe(t, n.Handle)
	}
}

// Handle serializes the event and publishes it on the configured channel.
func (n *NotificationService) Handle(ctx context.Context, event events.Event) error {
	n.logger.Info("ticket event",
		zap.String("event_id", event.ID),
		zap.String("type", string(event.Type)),
		zap.String("ticket_id", event.TicketID),
		zap.String("actor_id", event.Actor.UserID),
		zap.Int("affected_users", len(event.AffectedUserIDs)),
	)

	payload, err := json.Marshal(event)
	if err != nil {
		n.logger.Error("marshal event", zap.Error(err))
		return nil
	}
	if n.publisher != nil && n.channel != "" {
		if err := n.publisher.Publish(ctx, n.channel, payload); err != nil {
			n.logger.Warn("publish event to redis",
				zap.String("channel", n.channel),
				zap.Error(err))
		}
	}
	if n.webhookURL != "" {
		n.postWebhook(ctx, payload)
	}
	return nil
}

func (n *NotificationService) postWebhook(ctx context.Context, payload []byte) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(payload))
	if err != nil {
		n.logger.Warn("build webhook request", zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		n.logger.Warn("post webhook", zap.Error(err))
		return
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 300 {
		n.logger.Warn("webhook rejected event", zap.Int("status", resp.StatusCode))
	}
}
