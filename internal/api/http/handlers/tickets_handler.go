package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/service"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	maxPage         = 1_000_000
)

// TicketsHandler serves ticket endpoints open to every authenticated role. Ownership is enforced
// by the services.
type TicketsHandler struct {
	tickets *service.TicketService
	queries *service.TicketQueryService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(tickets *service.TicketService, queries *service.TicketQueryService) *TicketsHandler {
	return &TicketsHandler{tickets: tickets, queries: queries}
}

// CreateTicket POST /api/tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	ticket, err := h.tickets.CreateTicket(c.UserContext(), auth.IdentityFromContext(c), service.CreateTicketCommand{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Priority:    req.Priority,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketSummary(service.TicketView{Ticket: *ticket})})
}

// ListMyTickets GET /api/tickets/my-tickets.
func (h *TicketsHandler) ListMyTickets(c *fiber.Ctx) error {
	views, err := h.queries.GetMyTickets(c.UserContext(), auth.IdentityFromContext(c), parsePage(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummaries(views)})
}

// ListClientTickets GET /api/tickets/client/:clientId.
func (h *TicketsHandler) ListClientTickets(c *fiber.Ctx) error {
	views, err := h.queries.GetClientTickets(c.UserContext(), auth.IdentityFromContext(c), c.Params("clientId"), parsePage(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummaries(views)})
}

// GetTicket GET /api/tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	details, err := h.queries.GetTicketDetails(c.UserContext(), auth.IdentityFromContext(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(details)})
}

// GetTicketByNumber GET /api/tickets/by-number/:ticketNumber.
func (h *TicketsHandler) GetTicketByNumber(c *fiber.Ctx) error {
	details, err := h.queries.GetTicketByNumber(c.UserContext(), auth.IdentityFromContext(c), c.Params("ticketNumber"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(details)})
}

// AddMessage POST /api/tickets/:id/messages.
func (h *TicketsHandler) AddMessage(c *fiber.Ctx) error {
	var req dto.CreateMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	msg, err := h.tickets.AddMessage(c.UserContext(), auth.IdentityFromContext(c), service.AddMessageCommand{
		TicketID: c.Params("id"),
		Content:  req.Content,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketMessageResponse(msg)})
}

// ListMessages GET /api/tickets/:id/messages.
func (h *TicketsHandler) ListMessages(c *fiber.Ctx) error {
	msgs, err := h.queries.GetTicketMessages(c.UserContext(), auth.IdentityFromContext(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketMessageResponses(msgs)})
}

// ListHistory GET /api/tickets/:id/history.
func (h *TicketsHandler) ListHistory(c *fiber.Ctx) error {
	history, err := h.queries.GetTicketHistory(c.UserContext(), auth.IdentityFromContext(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": historyResponses(history)})
}

// CloseTicket PUT /api/tickets/:id/close.
func (h *TicketsHandler) CloseTicket(c *fiber.Ctx) error {
	var req dto.CloseTicketRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return invalidPayload()
		}
	}
	ticket, err := h.tickets.CloseTicket(c.UserContext(), auth.IdentityFromContext(c), service.CloseTicketCommand{
		TicketID:       c.Params("id"),
		ResolutionNote: req.ResolutionNote,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(service.TicketView{Ticket: *ticket})})
}

// ReopenTicket PUT /api/tickets/:id/reopen.
func (h *TicketsHandler) ReopenTicket(c *fiber.Ctx) error {
	var req dto.ReopenTicketRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return invalidPayload()
		}
	}
	ticket, err := h.tickets.ReopenTicket(c.UserContext(), auth.IdentityFromContext(c), service.ReopenTicketCommand{
		TicketID: c.Params("id"),
		Reason:   req.Reason,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(service.TicketView{Ticket: *ticket})})
}

func invalidPayload() error {
	return apperrors.NewValidationError("invalid payload", nil)
}

// parsePage reads page (1-based) and page_size; bad values fall back to defaults.
func parsePage(c *fiber.Ctx) service.Page {
	page := parseInt(c.Query("page"), 1)
	if page > maxPage {
		page = maxPage
	}
	pageSize := parseInt(c.Query("page_size"), defaultPageSize)
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return service.Page{Limit: pageSize, Offset: (page - 1) * pageSize}
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func ticketSummaries(views []service.TicketView) []dto.TicketSummary {
	items := make([]dto.TicketSummary, 0, len(views))
	for _, view := range views {
		items = append(items, ticketSummary(view))
	}
	return items
}

func ticketSummary(view service.TicketView) dto.TicketSummary {
	summary := dto.TicketSummary{
		ID:                   view.ID,
		TicketNumber:         view.TicketNumber,
		Title:                view.Title,
		Status:               view.Status,
		Priority:             view.Priority,
		Category:             view.Category,
		ClientID:             view.ClientID,
		AssignedTechnicianID: view.AssignedTechnicianID,
		AssignedAt:           view.AssignedAt,
		CreatedAt:            view.CreatedAt,
		UpdatedAt:            view.UpdatedAt,
		ClosedAt:             view.ClosedAt,
	}
	if view.Client != nil {
		summary.ClientName = view.Client.FullName
	}
	if view.Technician != nil {
		name := view.Technician.FullName
		summary.AssignedTechnicianName = &name
	}
	return summary
}

func ticketDetail(details *service.TicketDetails) dto.TicketDetailResponse {
	resp := dto.TicketDetailResponse{
		TicketSummary:  ticketSummary(details.TicketView),
		Description:    details.Description,
		ResolutionNote: details.ResolutionNote,
		ReopenReason:   details.ReopenReason,
		ReopenedAt:     details.ReopenedAt,
		Messages:       ticketMessageResponses(details.Messages),
	}
	if details.Client != nil {
		resp.ClientEmail = details.Client.Email
	}
	return resp
}

func ticketMessageResponses(msgs []domain.TicketMessage) []dto.TicketMessageResponse {
	items := make([]dto.TicketMessageResponse, 0, len(msgs))
	for i := range msgs {
		items = append(items, ticketMessageResponse(&msgs[i]))
	}
	return items
}

func ticketMessageResponse(msg *domain.TicketMessage) dto.TicketMessageResponse {
	return dto.TicketMessageResponse{
		ID:          msg.ID,
		TicketID:    msg.TicketID,
		AuthorID:    msg.AuthorID,
		AuthorName:  msg.AuthorName,
		AuthorEmail: msg.AuthorEmail,
		Content:     msg.Content,
		CreatedAt:   msg.CreatedAt,
	}
}

func historyResponses(entries []domain.TicketHistory) []dto.TicketHistoryResponse {
	resp := make([]dto.TicketHistoryResponse, 0, len(entries))
	for _, entry := range entries {
		resp = append(resp, dto.TicketHistoryResponse{
			ID:          entry.ID,
			ChangeType:  entry.ChangeType,
			ChangedByID: entry.ChangedByID,
			OldValue:    entry.OldValue,
			NewValue:    entry.NewValue,
			CreatedAt:   entry.CreatedAt,
		})
	}
	return resp
}
