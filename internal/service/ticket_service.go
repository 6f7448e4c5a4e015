package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/policy"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/internal/ticketnumber"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
	"github.com/spec-kit/helpdesk/pkg/util/validate"
)

const messagePreviewLength = 140

// TicketService runs the ticket lifecycle commands. Every command is one unit of work: the ticket
// is loaded, checked against the policy, mutated and written inside a single transaction, and
// events are published only after commit.
type TicketService struct {
	store   repository.Store
	numbers ticketnumber.Generator
	logger  *zap.Logger
	now     Clock
	events  publisher
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	Store      repository.Store
	Numbers    ticketnumber.Generator
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Clock      Clock
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := deps.Clock
	if now == nil {
		now = systemClock
	}
	return &TicketService{
		store:   deps.Store,
		numbers: deps.Numbers,
		logger:  logger,
		now:     now,
		events:  publisher{dispatcher: deps.Dispatcher, logger: logger, now: now},
	}
}

// CreateTicketCommand describes a new ticket. The owner is always the caller.
type CreateTicketCommand struct {
	Title       string `validate:"notblank,max=255"`
	Description string `validate:"max=10000"`
	Category    string `validate:"max=100"`
	Priority    string
}

// AssignTicketCommand hands a ticket to a technician.
type AssignTicketCommand struct {
	TicketID     string `validate:"notblank"`
	TechnicianID string `validate:"notblank"`
}

// ChangeStatusCommand moves a ticket to another working status.
type ChangeStatusCommand struct {
	TicketID string
	Status   string
}

// CloseTicketCommand closes a ticket with an optional resolution note.
type CloseTicketCommand struct {
	TicketID       string
	ResolutionNote string `validate:"max=1000"`
}

// ReopenTicketCommand reopens a closed ticket.
type ReopenTicketCommand struct {
	TicketID string
	Reason   string `validate:"max=1000"`
}

// AddMessageCommand appends a message to the ticket thread.
type AddMessageCommand struct {
	TicketID string
	Content  string `validate:"notblank,max=4000"`
}

// CreateTicket files a ticket for the caller.
func (s *TicketService) CreateTicket(ctx context.Context, caller domain.Identity, cmd CreateTicketCommand) (*domain.Ticket, error) {
	if err := policy.Authenticated(caller); err != nil {
		return nil, err
	}
	if err := policy.CanCreate(caller); err != nil {
		return nil, err
	}
	if err := validate.Struct(cmd); err != nil {
		return nil, err
	}
	priority, ok := domain.ParseTicketPriority(cmd.Priority)
	if !ok {
		return nil, apperrors.NewValidationError("invalid ticket priority", map[string]any{"priority": cmd.Priority})
	}

	var ticket *domain.Ticket
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		client, err := tx.Users().GetByID(ctx, caller.UserID)
		if err != nil {
			return mapRepoError(err, resourceUser, caller.UserID)
		}

		number, err := s.numbers.Next(ctx, tx.Tickets())
		if err != nil {
			return mapRepoError(err, resourceTicket, "")
		}

		now := s.now()
		ticket = &domain.Ticket{
			ID:           uuid.NewString(),
			TicketNumber: number,
			Title:        strings.TrimSpace(cmd.Title),
			Description:  strings.TrimSpace(cmd.Description),
			Category:     strings.TrimSpace(cmd.Category),
			Priority:     priority,
			Status:       domain.TicketStatusOpen,
			ClientID:     client.ID,
			CreatedAt:    now,
		}
		if err := tx.Tickets().Create(ctx, ticket); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return apperrors.NewConflict("ticket number already in use; retry the request",
					map[string]any{"ticket_number": number})
			}
			return mapRepoError(err, resourceTicket, ticket.ID)
		}
		return s.record(ctx, tx, caller, ticket.ID, domain.ChangeTypeCreated, nil, map[string]any{
			"status":        ticket.Status,
			"ticket_number": ticket.TicketNumber,
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("ticket created",
		zap.String("ticket_id", ticket.ID),
		zap.String("ticket_number", ticket.TicketNumber),
		zap.String("client_id", ticket.ClientID),
		zap.String("actor_id", caller.UserID))
	s.events.publish(ctx, []events.Event{{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    events.ActorFrom(caller),
		Payload: events.TicketCreatedPayload{
			TicketNumber: ticket.TicketNumber,
			ClientID:     ticket.ClientID,
			Priority:     ticket.Priority,
			Title:        ticket.Title,
		},
	}})
	return ticket, nil
}

// AssignTicket assigns the ticket to an active technician or admin and moves it to InProgress.
func (s *TicketService) AssignTicket(ctx context.Context, caller domain.Identity, cmd AssignTicketCommand) (*domain.Ticket, error) {
	if err := policy.Authenticated(caller); err != nil {
		return nil, err
	}
	if err := policy.CanAssign(caller); err != nil {
		return nil, err
	}
	if err := validate.Struct(cmd); err != nil {
		return nil, err
	}

	var (
		ticket   *domain.Ticket
		previous *string
	)
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		var err error
		ticket, err = loadTicket(ctx, tx, cmd.TicketID)
		if err != nil {
			return err
		}
		technician, err := tx.Users().GetByID(ctx, cmd.TechnicianID)
		if err != nil {
			return mapRepoError(err, resourceUser, cmd.TechnicianID)
		}
		if !technician.Role.IsStaff() || !technician.IsActive {
			return apperrors.NewValidationError("tickets can only be assigned to active technicians or admins",
				map[string]any{"technician_id": technician.ID, "role": technician.Role})
		}

		previous = ticket.AssignedTechnicianID
		oldStatus := ticket.Status
		if err := ticket.Assign(technician.ID, s.now()); err != nil {
			return err
		}
		if err := tx.Tickets().Update(ctx, ticket); err != nil {
			return mapRepoError(err, resourceTicket, ticket.ID)
		}
		return s.record(ctx, tx, caller, ticket.ID, domain.ChangeTypeAssignee,
			map[string]any{"technician_id": previous, "status": oldStatus},
			map[string]any{"technician_id": technician.ID, "status": ticket.Status})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("ticket assigned",
		zap.String("ticket_id", ticket.ID),
		zap.String("technician_id", *ticket.AssignedTechnicianID),
		zap.String("actor_id", caller.UserID))
	s.events.publish(ctx, []events.Event{{
		Type:     events.EventTicketAssigned,
		TicketID: ticket.ID,
		Actor:    events.ActorFrom(caller),
		Payload: events.TicketAssignedPayload{
			TechnicianID:         *ticket.AssignedTechnicianID,
			PreviousTechnicianID: previous,
		},
	}})
	return ticket, nil
}

// ChangeStatus moves the ticket between working statuses. The status string is parsed
// case-insensitively after the policy check.
func (s *TicketService) ChangeStatus(ctx context.Context, caller domain.Identity, cmd ChangeStatusCommand) (*domain.Ticket, error) {
	if err := policy.Authenticated(caller); err != nil {
		return nil, err
	}

	var (
		ticket    *domain.Ticket
		oldStatus domain.TicketStatus
	)
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		var err error
		ticket, err = loadTicket(ctx, tx, cmd.TicketID)
		if err != nil {
			return err
		}
		if err := policy.CanChangeStatus(caller, ticket); err != nil {
			return err
		}
		next, ok := domain.ParseTicketStatus(cmd.Status)
		if !ok {
			return apperrors.NewValidationError("invalid ticket status", map[string]any{"status": cmd.Status})
		}

		oldStatus = ticket.Status
		if err := ticket.ChangeStatus(next, s.now()); err != nil {
			return err
		}
		if err := tx.Tickets().Update(ctx, ticket); err != nil {
			return mapRepoError(err, resourceTicket, ticket.ID)
		}
		newValues := map[string]any{"status": ticket.Status}
		if ticket.Status == domain.TicketStatusClosed {
			newValues["resolution_note"] = *ticket.ResolutionNote
		}
		return s.record(ctx, tx, caller, ticket.ID, domain.ChangeTypeStatus,
			map[string]any{"status": oldStatus}, newValues)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("ticket status changed",
		zap.String("ticket_id", ticket.ID),
		zap.String("old_status", string(oldStatus)),
		zap.String("new_status", string(ticket.Status)),
		zap.String("actor_id", caller.UserID))
	s.events.publish(ctx, []events.Event{{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.ID,
		Actor:    events.ActorFrom(caller),
		Payload:  events.TicketStatusChangedPayload{OldStatus: oldStatus, NewStatus: ticket.Status},
	}})
	return ticket, nil
}

// CloseTicket closes the ticket. Closing an already closed ticket is a Conflict.
func (s *TicketService) CloseTicket(ctx context.Context, caller domain.Identity, cmd CloseTicketCommand) (*domain.Ticket, error) {
	if err := policy.Authenticated(caller); err != nil {
		return nil, err
	}

	var (
		ticket    *domain.Ticket
		oldStatus domain.TicketStatus
	)
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		var err error
		ticket, err = loadTicket(ctx, tx, cmd.TicketID)
		if err != nil {
			return err
		}
		if err := policy.CanClose(caller, ticket); err != nil {
			return err
		}
		if err := validate.Struct(cmd); err != nil {
			return err
		}

		oldStatus = ticket.Status
		if err := ticket.Close(strings.TrimSpace(cmd.ResolutionNote), s.now()); err != nil {
			return err
		}
		if err := tx.Tickets().Update(ctx, ticket); err != nil {
			return mapRepoError(err, resourceTicket, ticket.ID)
		}
		return s.record(ctx, tx, caller, ticket.ID, domain.ChangeTypeClosed,
			map[string]any{"status": oldStatus},
			map[string]any{"status": ticket.Status, "resolution_note": *ticket.ResolutionNote})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("ticket closed", zap.String("ticket_id", ticket.ID), zap.String("actor_id", caller.UserID))
	s.events.publish(ctx, []events.Event{{
		Type:     events.EventTicketClosed,
		TicketID: ticket.ID,
		Actor:    events.ActorFrom(caller),
		Payload:  events.TicketClosedPayload{OldStatus: oldStatus, ResolutionNote: *ticket.ResolutionNote},
	}})
	return ticket, nil
}

// ReopenTicket moves a closed ticket back to Open. Only Closed tickets can be reopened.
func (s *TicketService) ReopenTicket(ctx context.Context, caller domain.Identity, cmd ReopenTicketCommand) (*domain.Ticket, error) {
	if err := policy.Authenticated(caller); err != nil {
		return nil, err
	}

	var ticket *domain.Ticket
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		var err error
		ticket, err = loadTicket(ctx, tx, cmd.TicketID)
		if err != nil {
			return err
		}
		if err := policy.CanReopen(caller, ticket); err != nil {
			return err
		}
		if err := validate.Struct(cmd); err != nil {
			return err
		}

		if err := ticket.Reopen(strings.TrimSpace(cmd.Reason), s.now()); err != nil {
			return err
		}
		if err := tx.Tickets().Update(ctx, ticket); err != nil {
			return mapRepoError(err, resourceTicket, ticket.ID)
		}
		return s.record(ctx, tx, caller, ticket.ID, domain.ChangeTypeReopened,
			map[string]any{"status": domain.TicketStatusClosed},
			map[string]any{"status": ticket.Status, "reason": *ticket.ReopenReason})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("ticket reopened", zap.String("ticket_id", ticket.ID), zap.String("actor_id", caller.UserID))
	s.events.publish(ctx, []events.Event{{
		Type:     events.EventTicketReopened,
		TicketID: ticket.ID,
		Actor:    events.ActorFrom(caller),
		Payload:  events.TicketReopenedPayload{Reason: *ticket.ReopenReason},
	}})
	return ticket, nil
}

// AddMessage appends a message authored by the caller and bumps the ticket's updatedAt.
func (s *TicketService) AddMessage(ctx context.Context, caller domain.Identity, cmd AddMessageCommand) (*domain.TicketMessage, error) {
	if err := policy.Authenticated(caller); err != nil {
		return nil, err
	}

	var msg *domain.TicketMessage
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		ticket, err := loadTicket(ctx, tx, cmd.TicketID)
		if err != nil {
			return err
		}
		if err := policy.CanAddMessage(caller, ticket); err != nil {
			return err
		}
		if err := validate.Struct(cmd); err != nil {
			return err
		}
		author, err := tx.Users().GetByID(ctx, caller.UserID)
		if err != nil {
			return mapRepoError(err, resourceUser, caller.UserID)
		}

		now := s.now()
		msg = &domain.TicketMessage{
			ID:          uuid.NewString(),
			TicketID:    ticket.ID,
			AuthorID:    author.ID,
			Content:     strings.TrimSpace(cmd.Content),
			CreatedAt:   now,
			AuthorName:  author.FullName,
			AuthorEmail: author.Email,
		}
		if err := tx.Messages().Create(ctx, msg); err != nil {
			return mapRepoError(err, "message", msg.ID)
		}
		ticket.Touch(now)
		return mapRepoError(tx.Tickets().Update(ctx, ticket), resourceTicket, ticket.ID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("ticket message added", zap.String("ticket_id", msg.TicketID), zap.String("message_id", msg.ID))
	s.events.publish(ctx, []events.Event{{
		Type:     events.EventTicketMessageAdded,
		TicketID: msg.TicketID,
		Actor:    events.ActorFrom(caller),
		Payload: events.TicketMessageAddedPayload{
			MessageID:   msg.ID,
			AuthorID:    msg.AuthorID,
			BodyPreview: stringPreview(msg.Content, messagePreviewLength),
		},
	}})
	return msg, nil
}

// loadTicket is the single load path for ticket-scoped operations.
func loadTicket(ctx context.Context, store repository.Store, ticketID string) (*domain.Ticket, error) {
	if strings.TrimSpace(ticketID) == "" {
		return nil, apperrors.NewValidationError("ticket_id is required", nil)
	}
	ticket, err := store.Tickets().GetByID(ctx, ticketID)
	if err != nil {
		return nil, mapRepoError(err, resourceTicket, ticketID)
	}
	return ticket, nil
}

func (s *TicketService) record(ctx context.Context, tx repository.Store, caller domain.Identity, ticketID string,
	change domain.TicketChangeType, oldValue, newValue map[string]any) error {
	entry := &domain.TicketHistory{
		ID:          uuid.NewString(),
		TicketID:    ticketID,
		ChangedByID: caller.UserID,
		ChangeType:  change,
		OldValue:    oldValue,
		NewValue:    newValue,
		CreatedAt:   s.now(),
	}
	return mapRepoError(tx.History().Create(ctx, entry), "ticket history", ticketID)
}
