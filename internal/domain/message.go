package domain

import "time"

// Thread identifies the visibility channel a message belongs to. Every
// message lands in exactly one of the four channels.
type Thread string

const (
	ThreadAll              Thread = "ALL"
	ThreadReporterAnalyst  Thread = "REPORTER_ANALYST"
	ThreadAuthorityAnalyst Thread = "AUTHORITY_ANALYST"
	ThreadInternal         Thread = "INTERNAL"
)

// ValidThread reports whether t names one of the four channels.
func ValidThread(t Thread) bool {
	switch t {
	case ThreadAll, ThreadReporterAnalyst, ThreadAuthorityAnalyst, ThreadInternal:
		return true
	}
	return false
}

// SystemSenderID is the sender id recorded on engine-authored audit messages.
const SystemSenderID = "system"

// Message is one immutable unit of communication within a ticket.
type Message struct {
	ID         string
	TicketID   string
	SenderID   string
	SenderRole Role
	Thread     Thread
	Content    string
	IsInternal bool
	CreatedAt  time.Time
}

// System reports whether the message is an engine-authored audit entry.
func (m *Message) System() bool {
	return m.SenderRole == RoleSystem
}

// VisibleTo decides whether the reader sees the message on the given ticket.
//
// Beyond the role's allowed-thread set, the two pairwise threads are
// restricted to the specific assigned parties: reporter_analyst is for the
// ticket's reporter and its assigned analyst only, authority_analyst for the
// assigned authority and assigned analyst only. The internal thread is open
// to any staff reader and never to the reporter. System messages ride the
// all thread and reach every active participant.
func (m *Message) VisibleTo(t *Ticket, readerID string, readerRole Role) bool {
	if !ThreadAllowed(readerRole, m.Thread) {
		return false
	}
	switch m.Thread {
	case ThreadAll:
		return true
	case ThreadReporterAnalyst:
		return readerID == t.ReporterID || t.IsAssignedAnalyst(readerID)
	case ThreadAuthorityAnalyst:
		return t.IsAssignedAuthority(readerID) || t.IsAssignedAnalyst(readerID)
	case ThreadInternal:
		return readerRole.Staff()
	}
	return false
}
