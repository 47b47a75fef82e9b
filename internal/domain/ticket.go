package domain

import "time"

// TicketStatus enumerates lifecycle states for hazard tickets.
type TicketStatus string

const (
	TicketStatusOpen             TicketStatus = "OPEN"
	TicketStatusAssigned         TicketStatus = "ASSIGNED"
	TicketStatusInProgress       TicketStatus = "IN_PROGRESS"
	TicketStatusAwaitingResponse TicketStatus = "AWAITING_RESPONSE"
	TicketStatusEscalated        TicketStatus = "ESCALATED"
	TicketStatusResolved         TicketStatus = "RESOLVED"
	TicketStatusClosed           TicketStatus = "CLOSED"
)

// Terminal reports whether no further transitions may leave the status.
func (s TicketStatus) Terminal() bool {
	return s == TicketStatusClosed
}

// TicketPriority enumerates SLA urgency for hazard follow-up.
type TicketPriority string

const (
	TicketPriorityEmergency TicketPriority = "EMERGENCY"
	TicketPriorityCritical  TicketPriority = "CRITICAL"
	TicketPriorityHigh      TicketPriority = "HIGH"
	TicketPriorityMedium    TicketPriority = "MEDIUM"
	TicketPriorityLow       TicketPriority = "LOW"
)

var priorityRank = map[TicketPriority]int{
	TicketPriorityEmergency: 5,
	TicketPriorityCritical:  4,
	TicketPriorityHigh:      3,
	TicketPriorityMedium:    2,
	TicketPriorityLow:       1,
}

// AtLeast reports whether p is as urgent or more urgent than other.
func (p TicketPriority) AtLeast(other TicketPriority) bool {
	return priorityRank[p] >= priorityRank[other]
}

// ValidPriority reports whether p is one of the known priorities.
func ValidPriority(p TicketPriority) bool {
	_, ok := priorityRank[p]
	return ok
}

// Location pins the hazard on the map.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address"`
}

// ReportMetadata is opaque carry-over from the originating hazard report.
// The engine reads it for display but never mutates it.
type ReportMetadata struct {
	VerificationScore float64 `json:"verification_score"`
	ThreatLevel       string  `json:"threat_level"`
}

// Ticket is the aggregate for one hazard report that warrants follow-up.
type Ticket struct {
	ID          string
	ExternalKey string
	ReportID    string
	Title       string
	HazardType  string
	Location    Location
	Description string
	Status      TicketStatus
	Priority    TicketPriority

	ReporterID          string
	AssignedAnalystID   *string
	AssignedAuthorityID *string
	Participants        []Participant

	ResponseDue   time.Time
	ResolutionDue time.Time

	// Set exactly once each, first write wins.
	FirstResponseAt *time.Time
	ResolvedAt      *time.Time
	ClosedAt        *time.Time
	EscalatedAt     *time.Time

	IsEscalated      bool
	EscalationReason string
	ResolutionNotes  string

	Metadata ReportMetadata

	// Version guards serialized per-ticket mutations (optimistic concurrency).
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasAnalyst reports whether the analyst slot is occupied.
func (t *Ticket) HasAnalyst() bool {
	return t.AssignedAnalystID != nil && *t.AssignedAnalystID != ""
}

// HasAuthority reports whether the authority slot is occupied.
func (t *Ticket) HasAuthority() bool {
	return t.AssignedAuthorityID != nil && *t.AssignedAuthorityID != ""
}

// IsAssignedAnalyst reports whether userID holds the analyst slot.
func (t *Ticket) IsAssignedAnalyst(userID string) bool {
	return t.HasAnalyst() && *t.AssignedAnalystID == userID
}

// IsAssignedAuthority reports whether userID holds the authority slot.
func (t *Ticket) IsAssignedAuthority(userID string) bool {
	return t.HasAuthority() && *t.AssignedAuthorityID == userID
}

// IsParticipant reports whether userID may access the ticket at all:
// reporter, an assigned slot, or an active additional participant.
func (t *Ticket) IsParticipant(userID string) bool {
	if t.ReporterID == userID || t.IsAssignedAnalyst(userID) || t.IsAssignedAuthority(userID) {
		return true
	}
	for i := range t.Participants {
		if t.Participants[i].UserID == userID && t.Participants[i].IsActive {
			return true
		}
	}
	return false
}

// ActiveParticipant returns the active additional participant entry for userID.
func (t *Ticket) ActiveParticipant(userID string) *Participant {
	for i := range t.Participants {
		if t.Participants[i].UserID == userID && t.Participants[i].IsActive {
			return &t.Participants[i]
		}
	}
	return nil
}

// ParticipantIDs returns ids of everyone with access to the all thread.
func (t *Ticket) ParticipantIDs() []string {
	ids := []string{t.ReporterID}
	if t.HasAnalyst() {
		ids = append(ids, *t.AssignedAnalystID)
	}
	if t.HasAuthority() {
		ids = append(ids, *t.AssignedAuthorityID)
	}
	for i := range t.Participants {
		if t.Participants[i].IsActive {
			ids = append(ids, t.Participants[i].UserID)
		}
	}
	return ids
}

// StaffIDs returns ids of staff with access to the ticket (never the reporter).
func (t *Ticket) StaffIDs() []string {
	var ids []string
	if t.HasAnalyst() {
		ids = append(ids, *t.AssignedAnalystID)
	}
	if t.HasAuthority() {
		ids = append(ids, *t.AssignedAuthorityID)
	}
	for i := range t.Participants {
		if t.Participants[i].IsActive && t.Participants[i].Role.Staff() {
			ids = append(ids, t.Participants[i].UserID)
		}
	}
	return ids
}
