package events

import (
	"time"

	"github.com/hazardwatch/ticket-engine/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated        EventType = "ticket_created"
	EventTicketStatusChanged  EventType = "ticket_status_changed"
	EventTicketEscalated      EventType = "ticket_escalated"
	EventTicketClosed         EventType = "ticket_closed"
	EventTicketAssigned       EventType = "ticket_assigned"
	EventParticipantAdded     EventType = "participant_added"
	EventParticipantRemoved   EventType = "participant_removed"
	EventTicketMessageAdded   EventType = "ticket_message_added"
	EventTicketFirstResponse  EventType = "ticket_first_response"
	EventResponseOverdue      EventType = "response_overdue"
	EventResolutionOverdue    EventType = "resolution_overdue"
)

// Actor encapsulates who triggered an event. System events carry the
// reserved system sender id.
type Actor struct {
	UserID string      `json:"user_id"`
	Role   domain.Role `json:"role"`
}

// SystemActor is used for engine-initiated events (SLA breaches, audits).
func SystemActor() Actor {
	return Actor{UserID: domain.SystemSenderID, Role: domain.RoleSystem}
}

// Event represents a domain event emitted by the ticket facade or the SLA
// monitor. AffectedUserIDs tells the notification collaborator who should
// hear about it; delivery is entirely that collaborator's concern.
type Event struct {
	ID              string      `json:"id"`
	Type            EventType   `json:"type"`
	TicketID        string      `json:"ticket_id"`
	Actor           Actor       `json:"actor"`
	AffectedUserIDs []string    `json:"affected_user_ids"`
	Timestamp       time.Time   `json:"timestamp"`
	Payload         interface{} `json:"payload,omitempty"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	ReportID   string                `json:"report_id"`
	HazardType string                `json:"hazard_type"`
	Priority   domain.TicketPriority `json:"priority"`
	Title      string                `json:"title"`
}

// StatusChangedPayload payload.
type StatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
	Comment   string              `json:"comment,omitempty"`
}

// EscalatedPayload payload.
type EscalatedPayload struct {
	Reason      string                `json:"reason"`
	OldPriority domain.TicketPriority `json:"old_priority"`
	NewPriority domain.TicketPriority `json:"new_priority"`
}

// ClosedPayload payload.
type ClosedPayload struct {
	ResolutionNotes string `json:"resolution_notes"`
}

// AssignedPayload payload.
type AssignedPayload struct {
	AssigneeID string      `json:"assignee_id"`
	Role       domain.Role `json:"role"`
}

// ParticipantPayload payload for add/remove.
type ParticipantPayload struct {
	UserID string      `json:"user_id"`
	Role   domain.Role `json:"role"`
}

// MessageAddedPayload payload.
type MessageAddedPayload struct {
	MessageID      string        `json:"message_id"`
	Thread         domain.Thread `json:"thread"`
	SenderRole     domain.Role   `json:"sender_role"`
	ContentPreview string        `json:"content_preview"`
}

// OverduePayload payload for SLA breach events.
type OverduePayload struct {
	Priority domain.TicketPriority `json:"priority"`
	Due      time.Time             `json:"due"`
	Observed time.Time             `json:"observed"`
}
