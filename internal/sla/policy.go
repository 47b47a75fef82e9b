package sla

import (
	"time"

	"github.com/hazardwatch/ticket-engine/internal/domain"
)

// Window is the deadline pair derived from a priority.
type Window struct {
	Response   time.Duration
	Resolution time.Duration
}

// Policy maps each priority to its deadline window. Deadlines are a pure
// function of priority and creation time; nothing else feeds them.
type Policy map[domain.TicketPriority]Window

// DefaultPolicy returns the stock deadline table.
func DefaultPolicy() Policy {
	return Policy{
		domain.TicketPriorityEmergency: {Response: 15 * time.Minute, Resolution: 2 * time.Hour},
		domain.TicketPriorityCritical:  {Response: 30 * time.Minute, Resolution: 4 * time.Hour},
		domain.TicketPriorityHigh:      {Response: time.Hour, Resolution: 8 * time.Hour},
		domain.TicketPriorityMedium:    {Response: 4 * time.Hour, Resolution: 24 * time.Hour},
		domain.TicketPriorityLow:       {Response: 24 * time.Hour, Resolution: 72 * time.Hour},
	}
}

// Deadlines computes response and resolution deadlines for a ticket created
// at createdAt with the given priority. Unknown priorities fall back to the
// medium window so a ticket never ships without deadlines.
func (p Policy) Deadlines(priority domain.TicketPriority, createdAt time.Time) (response, resolution time.Time) {
	window, ok := p[priority]
	if !ok {
		window = p[domain.TicketPriorityMedium]
	}
	return createdAt.Add(window.Response), createdAt.Add(window.Resolution)
}

// ResponseOverdue derives whether the first-response deadline is breached.
// The flag is computed on read, never stored: once any assigned analyst or
// authority has responded the breach clears regardless of elapsed time.
func ResponseOverdue(t *domain.Ticket, now time.Time) bool {
	if t.Status == domain.TicketStatusResolved || t.Status == domain.TicketStatusClosed {
		return false
	}
	return t.FirstResponseAt == nil && now.After(t.ResponseDue)
}

// ResolutionOverdue derives whether the resolution deadline is breached.
func ResolutionOverdue(t *domain.Ticket, now time.Time) bool {
	if t.Status == domain.TicketStatusResolved || t.Status == domain.TicketStatusClosed {
		return false
	}
	return now.After(t.ResolutionDue)
}
