package domain

var allowedTransitions = map[TicketStatus][]TicketStatus{
	TicketStatusOpen:             {TicketStatusAssigned, TicketStatusInProgress},
	TicketStatusAssigned:         {TicketStatusInProgress, TicketStatusResolved, TicketStatusEscalated},
	TicketStatusInProgress:       {TicketStatusAwaitingResponse, TicketStatusResolved, TicketStatusEscalated},
	TicketStatusAwaitingResponse: {TicketStatusInProgress, TicketStatusResolved, TicketStatusEscalated},
	TicketStatusEscalated:        {TicketStatusInProgress, TicketStatusResolved},
	TicketStatusResolved:         {TicketStatusClosed},
	TicketStatusClosed:           {},
}

// ValidTransition reports whether the status change is legal. Closed is
// terminal: nothing leaves it.
func ValidTransition(current, next TicketStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// TransitionTargets returns the statuses reachable from current.
func TransitionTargets(current TicketStatus) []TicketStatus {
	return allowedTransitions[current]
}
