package sla

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hazardwatch/ticket-engine/internal/domain"
	"github.com/hazardwatch/ticket-engine/internal/events"
)

// TicketSource lists the tickets the monitor must evaluate.
type TicketSource interface {
	ListUnresolved(ctx context.Context) ([]domain.Ticket, error)
}

// Escalator applies an escalation through the same serialized mutation path
// as any other caller; the monitor gets no bypass of the state machine.
type Escalator interface {
	EscalateOverdue(ctx context.Context, ticketID, reason string) error
}

// MonitorConfig tunes the background deadline scan.
type MonitorConfig struct {
	Interval time.Duration
	// AutoEscalate escalates tickets whose resolution deadline is breached.
	// Off by default: breach events alone signal urgency, escalation stays a
	// human decision unless operators opt in.
	AutoEscalate bool
}

// Monitor periodically scans non-terminal tickets and raises breach events.
// Overdue state itself stays derived; the monitor never writes it anywhere.
type Monitor struct {
	tickets    TicketSource
	escalator  Escalator
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        MonitorConfig
	now        func() time.Time

	mu       sync.Mutex
	notified map[string]EventMark
}

// EventMark tracks which breach events were already raised for a ticket so
// a slow resolution does not flood the notifier every tick.
type EventMark struct {
	Response   bool
	Resolution bool
}

// NewMonitor constructs the monitor.
func NewMonitor(tickets TicketSource, escalator Escalator, dispatcher events.Dispatcher, logger *zap.Logger, cfg MonitorConfig) *Monitor {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	return &Monitor{
		tickets:    tickets,
		escalator:  escalator,
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
		now:        time.Now,
		notified:   make(map[string]EventMark),
	}
}

// Run blocks, ticking until ctx is cancelled. A failed tick is logged and
// retried naturally on the next cycle; overdue state is computed, not
// stored, so nothing needs compensation.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	m.logger.Info("sla monitor started", zap.Duration("interval", m.cfg.Interval), zap.Bool("auto_escalate", m.cfg.AutoEscalate))
	for {
		select {
		case <-ctx.Done():
			m.logger.Info("sla monitor stopped")
			return
		case <-ticker.C:
			if err := m.Tick(ctx); err != nil {
				m.logger.Warn("sla tick failed", zap.Error(err))
			}
		}
	}
}

// Tick evaluates every unresolved ticket once against the current clock.
func (m *Monitor) Tick(ctx context.Context) error {
	now := m.now()
	tickets, err := m.tickets.ListUnresolved(ctx)
	if err != nil {
		return fmt.Errorf("list unresolved tickets: %w", err)
	}

	seen := make(map[string]struct{}, len(tickets))
	for i := range tickets {
		seen[tickets[i].ID] = struct{}{}
		m.evaluate(ctx, &tickets[i], now)
	}
	m.evictMarks(seen)
	return nil
}

// evictMarks drops marks for tickets that left the unresolved set so the
// map does not grow for the lifetime of the process.
func (m *Monitor) evictMarks(seen map[string]struct{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id := range m.notified {
		if _, ok := seen[id]; !ok {
			delete(m.notified, id)
		}
	}
}

func (m *Monitor) evaluate(ctx context.Context, t *domain.Ticket, now time.Time) {
	mark := m.markFor(t.ID)

	if ResponseOverdue(t, now) && !mark.Response {
		mark.Response = true
		m.publish(ctx, events.EventResponseOverdue, t, events.OverduePayload{
			Priority: t.Priority,
			Due:      t.ResponseDue,
			Observed: now,
		})
	}
	if !ResponseOverdue(t, now) {
		mark.Response = false
	}

	if ResolutionOverdue(t, now) && !mark.Resolution {
		mark.Resolution = true
		m.publish(ctx, events.EventResolutionOverdue, t, events.OverduePayload{
			Priority: t.Priority,
			Due:      t.ResolutionDue,
			Observed: now,
		})
		if m.cfg.AutoEscalate && !t.IsEscalated && m.escalator != nil {
			reason := fmt.Sprintf("resolution deadline %s breached", t.ResolutionDue.Format(time.RFC3339))
			if err := m.escalator.EscalateOverdue(ctx, t.ID, reason); err != nil {
				m.logger.Warn("auto escalation failed",
					zap.String("ticket_id", t.ID), zap.Error(err))
			}
		}
	}

	m.setMark(t.ID, mark)
}

func (m *Monitor) publish(ctx context.Context, eventType events.EventType, t *domain.Ticket, payload events.OverduePayload) {
	if m.dispatcher == nil {
		return
	}
	_ = m.dispatcher.Publish(ctx, events.Event{
		ID:              uuid.NewString(),
		Type:            eventType,
		TicketID:        t.ID,
		Actor:           events.SystemActor(),
		AffectedUserIDs: t.StaffIDs(),
		Timestamp:       m.now(),
		Payload:         payload,
	})
}

func (m *Monitor) markFor(ticketID string) EventMark {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.notified[ticketID]
}

func (m *Monitor) setMark(ticketID string, mark EventMark) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notified[ticketID] = mark
}
