package dto

import (
	"time"

	"github.com/hazardwatch/ticket-engine/internal/domain"
	"github.com/hazardwatch/ticket-engine/internal/service"
	"github.com/hazardwatch/ticket-engine/internal/sla"
)

// CreateTicketRequest is posted by the report-verification pipeline.
type CreateTicketRequest struct {
	ReportID          string  `json:"report_id"`
	Title             string  `json:"title"`
	HazardType        string  `json:"hazard_type"`
	Latitude          float64 `json:"latitude"`
	Longitude         float64 `json:"longitude"`
	Address           string  `json:"address"`
	Description       string  `json:"description"`
	Priority          string  `json:"priority"`
	ReporterID        string  `json:"reporter_id"`
	VerificationScore float64 `json:"verification_score"`
	ThreatLevel       string  `json:"threat_level"`
}

// ToInput converts the request to the service payload.
func (r CreateTicketRequest) ToInput() service.CreateTicketInput {
	return service.CreateTicketInput{
		ReportID:     r.ReportID,
		Title:        r.Title,
		HazardType:   r.HazardType,
		Location:     domain.Location{Latitude: r.Latitude, Longitude: r.Longitude, Address: r.Address},
		Description:  r.Description,
		PriorityHint: domain.TicketPriority(r.Priority),
		ReporterID:   r.ReporterID,
		Metadata: domain.ReportMetadata{
			VerificationScore: r.VerificationScore,
			ThreatLevel:       r.ThreatLevel,
		},
	}
}

// StatusChangeRequest moves a ticket through its state machine.
type StatusChangeRequest struct {
	Status  string `json:"status"`
	Comment string `json:"comment"`
}

// EscalateRequest flags a ticket for urgent attention.
type EscalateRequest struct {
	Reason   string  `json:"reason"`
	Priority *string `json:"priority,omitempty"`
}

// CloseRequest finalizes a resolved ticket.
type CloseRequest struct {
	ResolutionNotes string `json:"resolution_notes"`
}

// AssignRequest fills the analyst or authority slot.
type AssignRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// ParticipantRequest adds a user to a ticket.
type ParticipantRequest struct {
	UserID     string `json:"user_id"`
	Role       string `json:"role"`
	Notes      string `json:"notes"`
	CanMessage bool   `json:"can_message"`
}

// SendMessageRequest posts to a ticket thread.
type SendMessageRequest struct {
	Content    string `json:"content"`
	Thread     string `json:"thread"`
	IsInternal bool   `json:"is_internal"`
}

// TicketSummary is the dashboard list row.
type TicketSummary struct {
	ID                string     `json:"id"`
	ExternalKey       string     `json:"external_key"`
	Title             string     `json:"title"`
	HazardType        string     `json:"hazard_type"`
	Status            string     `json:"status"`
	Priority          string     `json:"priority"`
	IsEscalated       bool       `json:"is_escalated"`
	ResponseDue       time.Time  `json:"response_due"`
	ResolutionDue     time.Time  `json:"resolution_due"`
	ResponseOverdue   bool       `json:"response_overdue"`
	ResolutionOverdue bool       `json:"resolution_overdue"`
	FirstResponseAt   *time.Time `json:"first_response_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// TicketDetail is the full read-model snapshot for one ticket.
type TicketDetail struct {
	TicketSummary
	ReportID            string                   `json:"report_id"`
	Location            domain.Location          `json:"location"`
	Description         string                   `json:"description"`
	ReporterID          string                   `json:"reporter_id"`
	AssignedAnalystID   *string                  `json:"assigned_analyst_id,omitempty"`
	AssignedAuthorityID *string                  `json:"assigned_authority_id,omitempty"`
	Participants        []domain.ParticipantView `json:"participants"`
	Messages            []MessageResponse        `json:"messages"`
	EscalationReason    string                   `json:"escalation_reason,omitempty"`
	EscalatedAt         *time.Time               `json:"escalated_at,omitempty"`
	ResolutionNotes     string                   `json:"resolution_notes,omitempty"`
	ResolvedAt          *time.Time               `json:"resolved_at,omitempty"`
	ClosedAt            *time.Time               `json:"closed_at,omitempty"`
	Metadata            domain.ReportMetadata    `json:"metadata"`
	Version             int64                    `json:"version"`
}

// MessageResponse is one thread entry as the reader sees it.
type MessageResponse struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"sender_id"`
	SenderRole string    `json:"sender_role"`
	Thread     string    `json:"thread"`
	Content    string    `json:"content"`
	IsInternal bool      `json:"is_internal"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewTicketSummary builds the list row, deriving overdue flags at read time.
func NewTicketSummary(t *domain.Ticket, now time.Time) TicketSummary {
	return TicketSummary{
		ID:                t.ID,
		ExternalKey:       t.ExternalKey,
		Title:             t.Title,
		HazardType:        t.HazardType,
		Status:            string(t.Status),
		Priority:          string(t.Priority),
		IsEscalated:       t.IsEscalated,
		ResponseDue:       t.ResponseDue,
		ResolutionDue:     t.ResolutionDue,
		ResponseOverdue:   sla.ResponseOverdue(t, now),
		ResolutionOverdue: sla.ResolutionOverdue(t, now),
		FirstResponseAt:   t.FirstResponseAt,
		CreatedAt:         t.CreatedAt,
		UpdatedAt:         t.UpdatedAt,
	}
}

// NewTicketDetail builds the detail view from a service snapshot.
func NewTicketDetail(snap *service.TicketSnapshot, now time.Time) TicketDetail {
	t := snap.Ticket
	summary := NewTicketSummary(t, now)
	summary.ResponseOverdue = snap.ResponseOverdue
	summary.ResolutionOverdue = snap.ResolutionOverdue

	messages := make([]MessageResponse, 0, len(snap.Messages))
	for i := range snap.Messages {
		messages = append(messages, NewMessageResponse(&snap.Messages[i]))
	}

	return TicketDetail{
		TicketSummary:       summary,
		ReportID:            t.ReportID,
		Location:            t.Location,
		Description:         t.Description,
		ReporterID:          t.ReporterID,
		AssignedAnalystID:   t.AssignedAnalystID,
		AssignedAuthorityID: t.AssignedAuthorityID,
		Participants:        snap.Participants,
		Messages:            messages,
		EscalationReason:    t.EscalationReason,
		EscalatedAt:         t.EscalatedAt,
		ResolutionNotes:     t.ResolutionNotes,
		ResolvedAt:          t.ResolvedAt,
		ClosedAt:            t.ClosedAt,
		Metadata:            t.Metadata,
		Version:             t.Version,
	}
}

// NewMessageResponse maps a domain message.
func NewMessageResponse(m *domain.Message) MessageResponse {
	return MessageResponse{
		ID:         m.ID,
		SenderID:   m.SenderID,
		SenderRole: string(m.SenderRole),
		Thread:     string(m.Thread),
		Content:    m.Content,
		IsInternal: m.IsInternal,
		CreatedAt:  m.CreatedAt,
	}
}

// NewTicketSummaries maps a ticket list.
func NewTicketSummaries(tickets []domain.Ticket, now time.Time) []TicketSummary {
	out := make([]TicketSummary, 0, len(tickets))
	for i := range tickets {
		out = append(out, NewTicketSummary(&tickets[i], now))
	}
	return out
}
