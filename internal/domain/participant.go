package domain

import "time"

// Participant is one entry in a ticket's additional-participants list.
// Removal flips IsActive instead of deleting the entry; the list is
// append-only so the audit history survives.
type Participant struct {
	UserID     string     `json:"user_id"`
	Role       Role       `json:"role"`
	Notes      string     `json:"notes,omitempty"`
	CanMessage bool       `json:"can_message"`
	IsActive   bool       `json:"is_active"`
	AddedAt    time.Time  `json:"added_at"`
	RemovedAt  *time.Time `json:"removed_at,omitempty"`
}

// ParticipantView labels a participant for listing: the reporter and the two
// assigned slots are merged with the additional-participants arena.
type ParticipantView struct {
	UserID     string `json:"user_id"`
	Role       Role   `json:"role"`
	Slot       string `json:"slot"`
	CanMessage bool   `json:"can_message"`
}

const (
	SlotReporter   = "reporter"
	SlotAnalyst    = "assigned_analyst"
	SlotAuthority  = "assigned_authority"
	SlotAdditional = "additional"
)

// ListParticipants returns the union of reporter, assigned slots and active
// additional participants with role labels.
func (t *Ticket) ListParticipants() []ParticipantView {
	views := []ParticipantView{{
		UserID:     t.ReporterID,
		Role:       RoleReporter,
		Slot:       SlotReporter,
		CanMessage: true,
	}}
	if t.HasAnalyst() {
		views = append(views, ParticipantView{
			UserID:     *t.AssignedAnalystID,
			Role:       RoleAnalyst,
			Slot:       SlotAnalyst,
			CanMessage: true,
		})
	}
	if t.HasAuthority() {
		views = append(views, ParticipantView{
			UserID:     *t.AssignedAuthorityID,
			Role:       RoleAuthority,
			Slot:       SlotAuthority,
			CanMessage: true,
		})
	}
	for i := range t.Participants {
		p := &t.Participants[i]
		if !p.IsActive {
			continue
		}
		views = append(views, ParticipantView{
			UserID:     p.UserID,
			Role:       p.Role,
			Slot:       SlotAdditional,
			CanMessage: p.CanMessage,
		})
	}
	return views
}
