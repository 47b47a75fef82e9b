package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/hazardwatch/ticket-engine/internal/api/dto"
	"github.com/hazardwatch/ticket-engine/internal/domain"
	"github.com/hazardwatch/ticket-engine/internal/repository"
	"github.com/hazardwatch/ticket-engine/internal/service"
	apperrors "github.com/hazardwatch/ticket-engine/pkg/util"
)

// StaffTicketsHandler serves the mutation routes behind staff role guards:
// ticket intake, status changes, escalation, closing, assignment and
// participant management.
type StaffTicketsHandler struct {
	tickets *service.TicketService
}

// NewStaffTicketsHandler constructs the handler.
func NewStaffTicketsHandler(tickets *service.TicketService) *StaffTicketsHandler {
	return &StaffTicketsHandler{tickets: tickets}
}

// Create opens a ticket for an accepted hazard report. Called by the
// verification pipeline, not by citizens.
func (h *StaffTicketsHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}
	ticket, err := h.tickets.CreateTicket(c.UserContext(), req.ToInput())
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewTicketSummary(ticket, time.Now()))
}

// ChangeStatus applies an explicit transition.
func (h *StaffTicketsHandler) ChangeStatus(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var req dto.StatusChangeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}
	ticket, err := h.tickets.ChangeStatus(c.UserContext(), actor, c.Params("id"),
		domain.TicketStatus(strings.ToUpper(req.Status)), req.Comment)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTicketSummary(ticket, time.Now()))
}

// Escalate flags the ticket for urgent attention.
func (h *StaffTicketsHandler) Escalate(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var req dto.EscalateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}
	var priority *domain.TicketPriority
	if req.Priority != nil {
		p := domain.TicketPriority(strings.ToUpper(*req.Priority))
		priority = &p
	}
	ticket, err := h.tickets.Escalate(c.UserContext(), actor, c.Params("id"), req.Reason, priority)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTicketSummary(ticket, time.Now()))
}

// Close finalizes a resolved ticket.
func (h *StaffTicketsHandler) Close(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var req dto.CloseRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}
	ticket, err := h.tickets.Close(c.UserContext(), actor, c.Params("id"), req.ResolutionNotes)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTicketSummary(ticket, time.Now()))
}

// Assign fills the analyst or authority slot.
func (h *StaffTicketsHandler) Assign(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var req dto.AssignRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}
	ticket, err := h.tickets.Assign(c.UserContext(), actor, c.Params("id"),
		req.UserID, domain.Role(strings.ToUpper(req.Role)))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTicketSummary(ticket, time.Now()))
}

// Unassign clears a slot so it can be refilled.
func (h *StaffTicketsHandler) Unassign(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	ticket, err := h.tickets.Unassign(c.UserContext(), actor, c.Params("id"),
		domain.Role(strings.ToUpper(c.Params("role"))))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTicketSummary(ticket, time.Now()))
}

// AddParticipant appends a user to the ticket.
func (h *StaffTicketsHandler) AddParticipant(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var req dto.ParticipantRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}
	ticket, err := h.tickets.AddParticipant(c.UserContext(), actor, c.Params("id"),
		req.UserID, domain.Role(strings.ToUpper(req.Role)), req.Notes, req.CanMessage)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"participants": ticket.ListParticipants()})
}

// RemoveParticipant deactivates an additional participant.
func (h *StaffTicketsHandler) RemoveParticipant(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	ticket, err := h.tickets.RemoveParticipant(c.UserContext(), actor, c.Params("id"), c.Params("userId"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"participants": ticket.ListParticipants()})
}

// staffFilter builds the queue filter from query params.
func staffFilter(c *fiber.Ctx, limit, offset int) repository.TicketFilter {
	filter := repository.TicketFilter{Limit: limit, Offset: offset}

	if raw := c.Query("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			filter.Statuses = append(filter.Statuses, domain.TicketStatus(strings.ToUpper(strings.TrimSpace(s))))
		}
	}
	if raw := c.Query("priority"); raw != "" {
		for _, p := range strings.Split(raw, ",") {
			filter.Priorities = append(filter.Priorities, domain.TicketPriority(strings.ToUpper(strings.TrimSpace(p))))
		}
	}
	if assignee := c.Query("assignee_id"); assignee != "" {
		filter.AssigneeID = &assignee
	}
	return filter
}
