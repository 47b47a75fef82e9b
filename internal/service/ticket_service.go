package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hazardwatch/ticket-engine/internal/domain"
	"github.com/hazardwatch/ticket-engine/internal/events"
	"github.com/hazardwatch/ticket-engine/internal/repository"
	"github.com/hazardwatch/ticket-engine/internal/sla"
	apperrors "github.com/hazardwatch/ticket-engine/pkg/util"
)

// Actor identifies who is performing a facade operation.
type Actor struct {
	UserID string
	Role   domain.Role
}

func systemActor() Actor {
	return Actor{UserID: domain.SystemSenderID, Role: domain.RoleSystem}
}

// TicketService is the single entry point for ticket mutations and reads.
// Every mutation is serialized per ticket through the store's version check;
// a lost race surfaces as ConcurrentModification and the ticket row is never
// half-written.
type TicketService struct {
	tickets    repository.TicketRepository
	messages   repository.MessageRepository
	policy     sla.Policy
	dispatcher events.Dispatcher
	now        func() time.Time
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo  repository.TicketRepository
	MessageRepo repository.MessageRepository
	Policy      sla.Policy
	Dispatcher  events.Dispatcher
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	policy := deps.Policy
	if policy == nil {
		policy = sla.DefaultPolicy()
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		messages:   deps.MessageRepo,
		policy:     policy,
		dispatcher: deps.Dispatcher,
		now:        time.Now,
	}
}

// CreateTicketInput is the payload handed over by the report-verification
// subsystem; it is the sole creation path for tickets.
type CreateTicketInput struct {
	ReportID     string
	Title        string
	HazardType   string
	Location     domain.Location
	Description  string
	PriorityHint domain.TicketPriority
	ReporterID   string
	Metadata     domain.ReportMetadata
}

// CreateTicket opens a ticket for an accepted or flagged hazard report.
// Deadlines are derived from the priority table at creation time.
func (s *TicketService) CreateTicket(ctx context.Context, input CreateTicketInput) (*domain.Ticket, error) {
	if strings.TrimSpace(input.Title) == "" || input.ReporterID == "" {
		return nil, apperrors.NewValidationError("title and reporter_id required", nil)
	}
	priority := input.PriorityHint
	if !domain.ValidPriority(priority) {
		priority = domain.TicketPriorityMedium
	}

	now := s.now()
	responseDue, resolutionDue := s.policy.Deadlines(priority, now)

	ticket := &domain.Ticket{
		ExternalKey:   generateTicketKey(),
		ReportID:      input.ReportID,
		Title:         strings.TrimSpace(input.Title),
		HazardType:    input.HazardType,
		Location:      input.Location,
		Description:   strings.TrimSpace(input.Description),
		Status:        domain.TicketStatusOpen,
		Priority:      priority,
		ReporterID:    input.ReporterID,
		ResponseDue:   responseDue,
		ResolutionDue: resolutionDue,
		Metadata:      input.Metadata,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.NewStoreUnavailable(err)
	}

	if err := s.appendSystemMessage(ctx, ticket, fmt.Sprintf("ticket opened for hazard report %s with priority %s", ticket.ReportID, ticket.Priority)); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:            events.EventTicketCreated,
		TicketID:        ticket.ID,
		Actor:           events.SystemActor(),
		AffectedUserIDs: ticket.ParticipantIDs(),
		Payload: events.TicketCreatedPayload{
			ReportID:   ticket.ReportID,
			HazardType: ticket.HazardType,
			Priority:   ticket.Priority,
			Title:      ticket.Title,
		},
	})
	return ticket, nil
}

// ChangeStatus applies an explicit status transition requested by an actor.
func (s *TicketService) ChangeStatus(ctx context.Context, actor Actor, ticketID string, newStatus domain.TicketStatus, comment string) (*domain.Ticket, error) {
	if newStatus == domain.TicketStatusClosed {
		return s.Close(ctx, actor, ticketID, comment)
	}

	ticket, err := s.getForUpdate(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !domain.ValidTransition(ticket.Status, newStatus) {
		return nil, apperrors.NewInvalidTransition(string(ticket.Status), string(newStatus))
	}
	if newStatus == domain.TicketStatusResolved && !actor.Role.CanResolve() {
		return nil, apperrors.NewForbidden("only analyst or authority actors may resolve tickets")
	}

	oldStatus := ticket.Status
	now := s.now()
	ticket.Status = newStatus
	switch newStatus {
	case domain.TicketStatusResolved:
		if ticket.ResolvedAt == nil {
			ticket.ResolvedAt = &now
		}
		if strings.TrimSpace(comment) != "" {
			ticket.ResolutionNotes = strings.TrimSpace(comment)
		}
	case domain.TicketStatusEscalated:
		s.applyEscalationFlag(ticket, "status moved to escalated", nil, now)
	}

	if err := s.update(ctx, ticket); err != nil {
		return nil, err
	}

	if err := s.appendSystemMessage(ctx, ticket, statusChangeNote(actor, oldStatus, newStatus, comment)); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:            events.EventTicketStatusChanged,
		TicketID:        ticket.ID,
		Actor:           eventActor(actor),
		AffectedUserIDs: ticket.ParticipantIDs(),
		Payload: events.StatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: newStatus,
			Comment:   comment,
		},
	})
	return ticket, nil
}

// Escalate flags the ticket as escalated. The status is untouched: the flag
// signals urgency to humans without rewriting SLA commitments already
// communicated, so resolution_due stays as created. The first escalation
// stamps escalated_at; later ones only refresh reason and priority.
func (s *TicketService) Escalate(ctx context.Context, actor Actor, ticketID, reason string, newPriority *domain.TicketPriority) (*domain.Ticket, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, apperrors.NewValidationError("escalation reason required", nil)
	}
	ticket, err := s.getForUpdate(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status.Terminal() {
		return nil, apperrors.NewTicketClosed(ticket.ID)
	}

	oldPriority := ticket.Priority
	s.applyEscalationFlag(ticket, strings.TrimSpace(reason), newPriority, s.now())

	if err := s.update(ctx, ticket); err != nil {
		return nil, err
	}

	if err := s.appendSystemMessage(ctx, ticket, fmt.Sprintf("ticket escalated by %s: %s (priority %s)", actorLabel(actor), ticket.EscalationReason, ticket.Priority)); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:            events.EventTicketEscalated,
		TicketID:        ticket.ID,
		Actor:           eventActor(actor),
		AffectedUserIDs: ticket.ParticipantIDs(),
		Payload: events.EscalatedPayload{
			Reason:      ticket.EscalationReason,
			OldPriority: oldPriority,
			NewPriority: ticket.Priority,
		},
	})
	return ticket, nil
}

// EscalateOverdue lets the SLA monitor escalate breached tickets through the
// same serialized path as any other caller.
func (s *TicketService) EscalateOverdue(ctx context.Context, ticketID, reason string) error {
	_, err := s.Escalate(ctx, systemActor(), ticketID, reason, nil)
	return err
}

// applyEscalationFlag mutates the in-memory ticket; the caller persists it.
// Priority never moves downward and defaults to critical.
func (s *TicketService) applyEscalationFlag(ticket *domain.Ticket, reason string, newPriority *domain.TicketPriority, now time.Time) {
	target := domain.TicketPriorityCritical
	if newPriority != nil && domain.ValidPriority(*newPriority) {
		target = *newPriority
	}
	if !target.AtLeast(ticket.Priority) {
		target = ticket.Priority
	}
	ticket.Priority = target
	ticket.IsEscalated = true
	ticket.EscalationReason = reason
	if ticket.EscalatedAt == nil {
		ticket.EscalatedAt = &now
	}
}

// Close moves a resolved ticket to its terminal state. Only authority or
// admin actors may close, and only from resolved.
func (s *TicketService) Close(ctx context.Context, actor Actor, ticketID, resolutionNotes string) (*domain.Ticket, error) {
	if !actor.Role.CanClose() {
		return nil, apperrors.NewForbidden("only authority or admin actors may close tickets")
	}
	ticket, err := s.getForUpdate(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status != domain.TicketStatusResolved {
		return nil, apperrors.NewInvalidTransition(string(ticket.Status), string(domain.TicketStatusClosed))
	}

	notes := strings.TrimSpace(resolutionNotes)
	if notes == "" {
		notes = fmt.Sprintf("closed by %s without additional notes", actorLabel(actor))
	}
	now := s.now()
	ticket.Status = domain.TicketStatusClosed
	ticket.ResolutionNotes = notes
	if ticket.ClosedAt == nil {
		ticket.ClosedAt = &now
	}

	if err := s.update(ctx, ticket); err != nil {
		return nil, err
	}

	if err := s.appendSystemMessage(ctx, ticket, fmt.Sprintf("ticket closed by %s: %s", actorLabel(actor), notes)); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:            events.EventTicketClosed,
		TicketID:        ticket.ID,
		Actor:           eventActor(actor),
		AffectedUserIDs: ticket.ParticipantIDs(),
		Payload:         events.ClosedPayload{ResolutionNotes: notes},
	})
	return ticket, nil
}

// Assign fills the single analyst or authority slot. Assigning over an
// occupied slot fails; the slot must be cleared first.
func (s *TicketService) Assign(ctx context.Context, actor Actor, ticketID, userID string, role domain.Role) (*domain.Ticket, error) {
	if role != domain.RoleAnalyst && role != domain.RoleAuthority {
		return nil, apperrors.NewValidationError("assignable roles are analyst and authority", nil)
	}
	if userID == "" {
		return nil, apperrors.NewValidationError("user_id required", nil)
	}
	ticket, err := s.getForUpdate(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status.Terminal() {
		return nil, apperrors.NewTicketClosed(ticket.ID)
	}

	switch role {
	case domain.RoleAnalyst:
		if ticket.IsAssignedAnalyst(userID) {
			return ticket, nil
		}
		if ticket.HasAnalyst() {
			return nil, apperrors.NewAlreadyAssigned("analyst")
		}
		ticket.AssignedAnalystID = &userID
	case domain.RoleAuthority:
		if ticket.IsAssignedAuthority(userID) {
			return ticket, nil
		}
		if ticket.HasAuthority() {
			return nil, apperrors.NewAlreadyAssigned("authority")
		}
		ticket.AssignedAuthorityID = &userID
	}
	// Filling the first slot claims the work.
	if ticket.Status == domain.TicketStatusOpen {
		ticket.Status = domain.TicketStatusAssigned
	}

	if err := s.update(ctx, ticket); err != nil {
		return nil, err
	}

	if err := s.appendSystemMessage(ctx, ticket, fmt.Sprintf("%s %s assigned by %s", strings.ToLower(string(role)), userID, actorLabel(actor))); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:            events.EventTicketAssigned,
		TicketID:        ticket.ID,
		Actor:           eventActor(actor),
		AffectedUserIDs: ticket.ParticipantIDs(),
		Payload:         events.AssignedPayload{AssigneeID: userID, Role: role},
	})
	return ticket, nil
}

// Unassign clears the analyst or authority slot so it can be refilled.
func (s *TicketService) Unassign(ctx context.Context, actor Actor, ticketID string, role domain.Role) (*domain.Ticket, error) {
	if role != domain.RoleAnalyst && role != domain.RoleAuthority {
		return nil, apperrors.NewValidationError("assignable roles are analyst and authority", nil)
	}
	ticket, err := s.getForUpdate(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status.Terminal() {
		return nil, apperrors.NewTicketClosed(ticket.ID)
	}

	var cleared string
	switch role {
	case domain.RoleAnalyst:
		if !ticket.HasAnalyst() {
			return nil, apperrors.NewParticipantNotFound("")
		}
		cleared = *ticket.AssignedAnalystID
		ticket.AssignedAnalystID = nil
	case domain.RoleAuthority:
		if !ticket.HasAuthority() {
			return nil, apperrors.NewParticipantNotFound("")
		}
		cleared = *ticket.AssignedAuthorityID
		ticket.AssignedAuthorityID = nil
	}

	if err := s.update(ctx, ticket); err != nil {
		return nil, err
	}

	if err := s.appendSystemMessage(ctx, ticket, fmt.Sprintf("%s %s unassigned by %s", strings.ToLower(string(role)), cleared, actorLabel(actor))); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:            events.EventTicketAssigned,
		TicketID:        ticket.ID,
		Actor:           eventActor(actor),
		AffectedUserIDs: ticket.ParticipantIDs(),
		Payload:         events.AssignedPayload{AssigneeID: "", Role: role},
	})
	return ticket, nil
}

// AddParticipant appends a user to the additional-participants arena.
// Identity decides duplicates: the reporter, assigned slots and active
// additional entries all count.
func (s *TicketService) AddParticipant(ctx context.Context, actor Actor, ticketID, userID string, role domain.Role, notes string, canMessage bool) (*domain.Ticket, error) {
	if userID == "" {
		return nil, apperrors.NewValidationError("user_id required", nil)
	}
	ticket, err := s.getForUpdate(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status.Terminal() {
		return nil, apperrors.NewTicketClosed(ticket.ID)
	}
	if ticket.IsParticipant(userID) {
		return nil, apperrors.NewDuplicateParticipant(userID)
	}

	ticket.Participants = append(ticket.Participants, domain.Participant{
		UserID:     userID,
		Role:       role,
		Notes:      notes,
		CanMessage: canMessage,
		IsActive:   true,
		AddedAt:    s.now(),
	})

	if err := s.update(ctx, ticket); err != nil {
		return nil, err
	}

	if err := s.appendSystemMessage(ctx, ticket, fmt.Sprintf("participant %s (%s) added by %s", userID, role, actorLabel(actor))); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:            events.EventParticipantAdded,
		TicketID:        ticket.ID,
		Actor:           eventActor(actor),
		AffectedUserIDs: ticket.ParticipantIDs(),
		Payload:         events.ParticipantPayload{UserID: userID, Role: role},
	})
	return ticket, nil
}

// RemoveParticipant deactivates an additional participant. The entry stays
// in the arena for audit; only is_active flips.
func (s *TicketService) RemoveParticipant(ctx context.Context, actor Actor, ticketID, userID string) (*domain.Ticket, error) {
	ticket, err := s.getForUpdate(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status.Terminal() {
		return nil, apperrors.NewTicketClosed(ticket.ID)
	}

	entry := ticket.ActiveParticipant(userID)
	if entry == nil {
		return nil, apperrors.NewParticipantNotFound(userID)
	}
	now := s.now()
	entry.IsActive = false
	entry.RemovedAt = &now

	if err := s.update(ctx, ticket); err != nil {
		return nil, err
	}

	if err := s.appendSystemMessage(ctx, ticket, fmt.Sprintf("participant %s removed by %s", userID, actorLabel(actor))); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:            events.EventParticipantRemoved,
		TicketID:        ticket.ID,
		Actor:           eventActor(actor),
		AffectedUserIDs: ticket.ParticipantIDs(),
		Payload:         events.ParticipantPayload{UserID: userID, Role: entry.Role},
	})
	return ticket, nil
}

// SendMessageInput is the payload for posting to a ticket thread.
type SendMessageInput struct {
	Content    string
	Thread     domain.Thread
	IsInternal bool
}

// SendMessage validates thread access, persists the message and applies the
// thread-driven ticket side effects: the first-response stamp and the
// awaiting_response return transition.
func (s *TicketService) SendMessage(ctx context.Context, actor Actor, ticketID string, input SendMessageInput) (*domain.Message, error) {
	if strings.TrimSpace(input.Content) == "" {
		return nil, apperrors.NewValidationError("content required", nil)
	}
	thread := input.Thread
	if thread == "" {
		thread = domain.ThreadAll
	}
	if !domain.ValidThread(thread) {
		return nil, apperrors.NewValidationError("unknown thread", map[string]any{"thread": thread})
	}

	ticket, err := s.getForUpdate(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status.Terminal() {
		return nil, apperrors.NewTicketClosed(ticket.ID)
	}
	if err := s.checkSendAccess(ticket, actor, thread); err != nil {
		return nil, err
	}
	if input.IsInternal && !actor.Role.Staff() {
		return nil, apperrors.NewForbidden("internal notes are staff only")
	}

	now := s.now()
	msg := &domain.Message{
		TicketID:   ticket.ID,
		SenderID:   actor.UserID,
		SenderRole: actor.Role,
		Thread:     thread,
		Content:    strings.TrimSpace(input.Content),
		IsInternal: input.IsInternal || thread == domain.ThreadInternal,
	}

	oldStatus := ticket.Status
	firstResponse := false
	if ticket.FirstResponseAt == nil &&
		(ticket.IsAssignedAnalyst(actor.UserID) || ticket.IsAssignedAuthority(actor.UserID)) {
		ticket.FirstResponseAt = &now
		firstResponse = true
		// The first staff response puts a freshly claimed ticket to work.
		if ticket.Status == domain.TicketStatusOpen || ticket.Status == domain.TicketStatusAssigned {
			ticket.Status = domain.TicketStatusInProgress
		}
	}
	if ticket.Status == domain.TicketStatusAwaitingResponse &&
		(actor.UserID == ticket.ReporterID || ticket.IsAssignedAuthority(actor.UserID)) {
		ticket.Status = domain.TicketStatusInProgress
	}

	// The message is persisted first so a message-store failure leaves the
	// ticket untouched. The versioned update then serializes concurrent
	// sends and bumps updated_at.
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, apperrors.NewStoreUnavailable(err)
	}
	if err := s.update(ctx, ticket); err != nil {
		return nil, err
	}

	if ticket.Status != oldStatus {
		if err := s.appendSystemMessage(ctx, ticket, fmt.Sprintf("status moved to %s: response received from %s", ticket.Status, actorLabel(actor))); err != nil {
			return nil, err
		}
		s.publishEvent(ctx, events.Event{
			Type:            events.EventTicketStatusChanged,
			TicketID:        ticket.ID,
			Actor:           events.SystemActor(),
			AffectedUserIDs: ticket.ParticipantIDs(),
			Payload: events.StatusChangedPayload{
				OldStatus: oldStatus,
				NewStatus: ticket.Status,
				Comment:   "response received",
			},
		})
	}
	if firstResponse {
		s.publishEvent(ctx, events.Event{
			Type:            events.EventTicketFirstResponse,
			TicketID:        ticket.ID,
			Actor:           eventActor(actor),
			AffectedUserIDs: ticket.StaffIDs(),
		})
	}
	s.publishEvent(ctx, events.Event{
		Type:            events.EventTicketMessageAdded,
		TicketID:        ticket.ID,
		Actor:           eventActor(actor),
		AffectedUserIDs: s.messageAudience(ticket, msg),
		Payload: events.MessageAddedPayload{
			MessageID:      msg.ID,
			Thread:         msg.Thread,
			SenderRole:     msg.SenderRole,
			ContentPreview: stringPreview(msg.Content, 120),
		},
	})
	return msg, nil
}

// checkSendAccess enforces participant membership and the compose-time
// thread rules. The pairwise threads restrict senders to the specific
// assigned parties, not to anyone who happens to share the role.
func (s *TicketService) checkSendAccess(ticket *domain.Ticket, actor Actor, thread domain.Thread) error {
	if !ticket.IsParticipant(actor.UserID) && !actor.Role.Staff() {
		return apperrors.NewForbidden("sender is not a participant of this ticket")
	}
	if entry := ticket.ActiveParticipant(actor.UserID); entry != nil && !entry.CanMessage {
		return apperrors.NewForbidden("participant has no messaging capability")
	}
	if !domain.ThreadAllowed(actor.Role, thread) {
		return apperrors.NewThreadNotAllowed(string(actor.Role), string(thread))
	}
	switch thread {
	case domain.ThreadReporterAnalyst:
		if actor.UserID != ticket.ReporterID && !ticket.IsAssignedAnalyst(actor.UserID) {
			return apperrors.NewThreadNotAllowed(string(actor.Role), string(thread))
		}
	case domain.ThreadAuthorityAnalyst:
		if !ticket.IsAssignedAuthority(actor.UserID) && !ticket.IsAssignedAnalyst(actor.UserID) &&
			actor.Role != domain.RoleAdmin && actor.Role != domain.RoleAuthorityAdmin {
			return apperrors.NewThreadNotAllowed(string(actor.Role), string(thread))
		}
	}
	return nil
}

func (s *TicketService) messageAudience(ticket *domain.Ticket, msg *domain.Message) []string {
	switch msg.Thread {
	case domain.ThreadReporterAnalyst:
		audience := []string{ticket.ReporterID}
		if ticket.HasAnalyst() {
			audience = append(audience, *ticket.AssignedAnalystID)
		}
		return audience
	case domain.ThreadAuthorityAnalyst:
		var audience []string
		if ticket.HasAuthority() {
			audience = append(audience, *ticket.AssignedAuthorityID)
		}
		if ticket.HasAnalyst() {
			audience = append(audience, *ticket.AssignedAnalystID)
		}
		return audience
	case domain.ThreadInternal:
		return ticket.StaffIDs()
	default:
		return ticket.ParticipantIDs()
	}
}

// VisibleMessages returns the ticket's messages filtered for the reader.
func (s *TicketService) VisibleMessages(ctx context.Context, reader Actor, ticketID string) ([]domain.Message, error) {
	ticket, err := s.getForUpdate(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !ticket.IsParticipant(reader.UserID) && !reader.Role.Staff() {
		return nil, apperrors.NewForbidden("reader is not a participant of this ticket")
	}

	msgs, err := s.messages.ListByTicket(ctx, ticketID, domain.AllowedThreads(reader.Role))
	if err != nil {
		return nil, apperrors.NewStoreUnavailable(err)
	}
	visible := make([]domain.Message, 0, len(msgs))
	for i := range msgs {
		if msgs[i].VisibleTo(ticket, reader.UserID, reader.Role) {
			visible = append(visible, msgs[i])
		}
	}
	return visible, nil
}

// TicketSnapshot is what read operations hand to the UI boundary: the
// ticket, its labelled participants, the reader-filtered thread and the
// overdue flags derived at read time.
type TicketSnapshot struct {
	Ticket            *domain.Ticket
	Participants      []domain.ParticipantView
	Messages          []domain.Message
	ResponseOverdue   bool
	ResolutionOverdue bool
}

// GetTicket returns the snapshot for the reader. Reporters see only their
// own tickets; staff roles see any.
func (s *TicketService) GetTicket(ctx context.Context, reader Actor, ticketID string) (*TicketSnapshot, error) {
	ticket, err := s.getForUpdate(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !reader.Role.Staff() && !ticket.IsParticipant(reader.UserID) {
		return nil, apperrors.NewForbidden("access denied")
	}

	msgs, err := s.VisibleMessages(ctx, reader, ticketID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	return &TicketSnapshot{
		Ticket:            ticket,
		Participants:      ticket.ListParticipants(),
		Messages:          msgs,
		ResponseOverdue:   sla.ResponseOverdue(ticket, now),
		ResolutionOverdue: sla.ResolutionOverdue(ticket, now),
	}, nil
}

// ListReporterTickets returns paginated tickets for a reporter dashboard.
func (s *TicketService) ListReporterTickets(ctx context.Context, reporterID string, limit, offset int) ([]domain.Ticket, error) {
	tickets, err := s.tickets.ListWithFilter(ctx, repository.TicketFilter{
		ReporterID: &reporterID,
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		return nil, apperrors.NewStoreUnavailable(err)
	}
	return tickets, nil
}

// ListStaffTickets returns tickets for analyst/authority dashboards.
func (s *TicketService) ListStaffTickets(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	tickets, err := s.tickets.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.NewStoreUnavailable(err)
	}
	return tickets, nil
}

func (s *TicketService) getForUpdate(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.NewStoreUnavailable(err)
	}
	return ticket, nil
}

func (s *TicketService) update(ctx context.Context, ticket *domain.Ticket) error {
	err := s.tickets.Update(ctx, ticket)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrVersionConflict):
		return apperrors.NewConcurrentModification(ticket.ID)
	case errors.Is(err, pgx.ErrNoRows):
		return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticket.ID})
	default:
		return apperrors.NewStoreUnavailable(err)
	}
}

// appendSystemMessage writes the mandatory audit entry for a state-changing
// operation. Audit entries ride the all thread and are the one write still
// accepted after close. A failed audit write fails the whole operation: a
// mutation without its audit record must never look successful.
func (s *TicketService) appendSystemMessage(ctx context.Context, ticket *domain.Ticket, content string) error {
	err := s.messages.Create(ctx, &domain.Message{
		TicketID:   ticket.ID,
		SenderID:   domain.SystemSenderID,
		SenderRole: domain.RoleSystem,
		Thread:     domain.ThreadAll,
		Content:    content,
	})
	if err != nil {
		return apperrors.NewStoreUnavailable(err)
	}
	return nil
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func eventActor(actor Actor) events.Actor {
	return events.Actor{UserID: actor.UserID, Role: actor.Role}
}

func actorLabel(actor Actor) string {
	if actor.Role == domain.RoleSystem {
		return "system"
	}
	return fmt.Sprintf("%s %s", strings.ToLower(string(actor.Role)), actor.UserID)
}

func statusChangeNote(actor Actor, oldStatus, newStatus domain.TicketStatus, comment string) string {
	note := fmt.Sprintf("status changed from %s to %s by %s", oldStatus, newStatus, actorLabel(actor))
	if strings.TrimSpace(comment) != "" {
		note += ": " + strings.TrimSpace(comment)
	}
	return note
}

func generateTicketKey() string {
	return "HZT-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	if len(body) <= max {
		return body
	}
	if max <= 3 {
		return body[:max]
	}
	return body[:max-3] + "..."
}
