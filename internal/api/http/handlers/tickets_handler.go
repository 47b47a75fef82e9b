package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/hazardwatch/ticket-engine/internal/api/dto"
	"github.com/hazardwatch/ticket-engine/internal/auth"
	"github.com/hazardwatch/ticket-engine/internal/domain"
	"github.com/hazardwatch/ticket-engine/internal/service"
	apperrors "github.com/hazardwatch/ticket-engine/pkg/util"
)

// TicketsHandler serves the routes every authenticated participant can use:
// dashboards, the ticket snapshot and the message thread.
type TicketsHandler struct {
	tickets *service.TicketService
}

// NewTicketsHandler constructs the handler.
func NewTicketsHandler(tickets *service.TicketService) *TicketsHandler {
	return &TicketsHandler{tickets: tickets}
}

func requireActor(c *fiber.Ctx) (service.Actor, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return service.Actor{}, apperrors.NewUnauthorized("authentication required")
	}
	return service.Actor{UserID: principal.User.ID, Role: principal.Role}, nil
}

// List returns the caller's dashboard: reporters see their own tickets,
// staff see the filtered queue.
func (h *TicketsHandler) List(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}

	limit := c.QueryInt("limit", 50)
	offset := c.QueryInt("offset", 0)

	var tickets []domain.Ticket
	if actor.Role.Staff() {
		filter := staffFilter(c, limit, offset)
		tickets, err = h.tickets.ListStaffTickets(c.UserContext(), filter)
	} else {
		tickets, err = h.tickets.ListReporterTickets(c.UserContext(), actor.UserID, limit, offset)
	}
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"tickets": dto.NewTicketSummaries(tickets, time.Now())})
}

// Get returns the full snapshot with reader-filtered messages.
func (h *TicketsHandler) Get(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	snap, err := h.tickets.GetTicket(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTicketDetail(snap, time.Now()))
}

// ListMessages returns the thread as the reader may see it.
func (h *TicketsHandler) ListMessages(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	msgs, err := h.tickets.VisibleMessages(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	out := make([]dto.MessageResponse, 0, len(msgs))
	for i := range msgs {
		out = append(out, dto.NewMessageResponse(&msgs[i]))
	}
	return c.JSON(fiber.Map{"messages": out})
}

// SendMessage posts to a ticket thread.
func (h *TicketsHandler) SendMessage(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var req dto.SendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}

	msg, err := h.tickets.SendMessage(c.UserContext(), actor, c.Params("id"), service.SendMessageInput{
		Content:    req.Content,
		Thread:     domain.Thread(req.Thread),
		IsInternal: req.IsInternal,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewMessageResponse(msg))
}
