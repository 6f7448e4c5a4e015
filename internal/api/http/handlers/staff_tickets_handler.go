package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/service"
)

// StaffTicketsHandler handles assignment, status and queue endpoints.
type StaffTicketsHandler struct {
	tickets *service.TicketService
	queries *service.TicketQueryService
}

// NewStaffTicketsHandler constructs handler.
func NewStaffTicketsHandler(tickets *service.TicketService, queries *service.TicketQueryService) *StaffTicketsHandler {
	return &StaffTicketsHandler{tickets: tickets, queries: queries}
}

// AssignTicket PUT /api/tickets/:id/assign.
func (h *StaffTicketsHandler) AssignTicket(c *fiber.Ctx) error {
	var req dto.AssignTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	ticket, err := h.tickets.AssignTicket(c.UserContext(), auth.IdentityFromContext(c), service.AssignTicketCommand{
		TicketID:     c.Params("id"),
		TechnicianID: req.TechnicianID,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(service.TicketView{Ticket: *ticket})})
}

// ChangeStatus PUT /api/tickets/:id/status.
func (h *StaffTicketsHandler) ChangeStatus(c *fiber.Ctx) error {
	var req dto.ChangeStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	ticket, err := h.tickets.ChangeStatus(c.UserContext(), auth.IdentityFromContext(c), service.ChangeStatusCommand{
		TicketID: c.Params("id"),
		Status:   req.Status,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(service.TicketView{Ticket: *ticket})})
}

// ListUnassigned GET /api/tickets/unassigned.
func (h *StaffTicketsHandler) ListUnassigned(c *fiber.Ctx) error {
	views, err := h.queries.GetUnassignedTickets(c.UserContext(), auth.IdentityFromContext(c), parsePage(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummaries(views)})
}

// ListMyAssigned GET /api/tickets/my-assigned.
func (h *StaffTicketsHandler) ListMyAssigned(c *fiber.Ctx) error {
	views, err := h.queries.GetMyAssignedTickets(c.UserContext(), auth.IdentityFromContext(c), parsePage(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummaries(views)})
}

// ListTechnicianTickets GET /api/tickets/technician/:technicianId. Closed tickets are included
// unless include_closed=false.
func (h *StaffTicketsHandler) ListTechnicianTickets(c *fiber.Ctx) error {
	views, err := h.queries.GetTechnicianTickets(c.UserContext(), auth.IdentityFromContext(c),
		c.Params("technicianId"), c.QueryBool("include_closed", true), parsePage(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummaries(views)})
}
