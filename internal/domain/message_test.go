package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func pairwiseTicket() *Ticket {
	analystID := "ana-1"
	authorityID := "aut-1"
	return &Ticket{
		ID:                  "t-1",
		ReporterID:          "rep-1",
		AssignedAnalystID:   &analystID,
		AssignedAuthorityID: &authorityID,
		Participants: []Participant{
			{UserID: "obs-1", Role: RoleAuthority, IsActive: true},
		},
	}
}

func TestVisibleToPairwiseThreadsBindToAssignedParties(t *testing.T) {
	ticket := pairwiseTicket()
	msg := &Message{Thread: ThreadReporterAnalyst}

	assert.True(t, msg.VisibleTo(ticket, "rep-1", RoleReporter))
	assert.True(t, msg.VisibleTo(ticket, "ana-1", RoleAnalyst))
	// Role alone is not enough: an unassigned analyst stays out.
	assert.False(t, msg.VisibleTo(ticket, "ana-2", RoleAnalyst))
	// The assigned authority never sees the reporter channel.
	assert.False(t, msg.VisibleTo(ticket, "aut-1", RoleAuthority))

	msg = &Message{Thread: ThreadAuthorityAnalyst}
	assert.True(t, msg.VisibleTo(ticket, "aut-1", RoleAuthority))
	assert.True(t, msg.VisibleTo(ticket, "ana-1", RoleAnalyst))
	// An additional authority participant holds the role but not the slot.
	assert.False(t, msg.VisibleTo(ticket, "obs-1", RoleAuthority))
	assert.False(t, msg.VisibleTo(ticket, "rep-1", RoleReporter))
}

func TestVisibleToInternalIsStaffOnly(t *testing.T) {
	ticket := pairwiseTicket()
	msg := &Message{Thread: ThreadInternal}

	assert.False(t, msg.VisibleTo(ticket, "rep-1", RoleReporter))
	assert.True(t, msg.VisibleTo(ticket, "ana-1", RoleAnalyst))
	assert.True(t, msg.VisibleTo(ticket, "obs-1", RoleAuthority))
	assert.True(t, msg.VisibleTo(ticket, "adm-1", RoleAdmin))
}

func TestVisibleToAllThread(t *testing.T) {
	ticket := pairwiseTicket()
	msg := &Message{Thread: ThreadAll, SenderRole: RoleSystem, SenderID: SystemSenderID}

	assert.True(t, msg.System())
	for _, reader := range []struct {
		id   string
		role Role
	}{
		{"rep-1", RoleReporter},
		{"ana-1", RoleAnalyst},
		{"aut-1", RoleAuthority},
		{"obs-1", RoleAuthority},
	} {
		assert.True(t, msg.VisibleTo(ticket, reader.id, reader.role), reader.id)
	}
}

func TestListParticipantsMergesSlotsAndArena(t *testing.T) {
	ticket := pairwiseTicket()
	removed := Participant{UserID: "old-1", Role: RoleAnalyst, IsActive: false}
	ticket.Participants = append(ticket.Participants, removed)

	views := ticket.ListParticipants()
	assert.Len(t, views, 4)

	slots := map[string]string{}
	for _, v := range views {
		slots[v.UserID] = v.Slot
	}
	assert.Equal(t, SlotReporter, slots["rep-1"])
	assert.Equal(t, SlotAnalyst, slots["ana-1"])
	assert.Equal(t, SlotAuthority, slots["aut-1"])
	assert.Equal(t, SlotAdditional, slots["obs-1"])
	assert.NotContains(t, slots, "old-1")
}
