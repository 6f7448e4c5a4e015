package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/policy"
	"github.com/spec-kit/helpdesk/internal/repository"
)

// Page bounds list queries. A zero Limit returns everything.
type Page struct {
	Limit  int
	Offset int
}

// TicketView is a ticket with its client and assignee resolved. Either may be nil when the account
// no longer exists.
type TicketView struct {
	domain.Ticket
	Client     *domain.User
	Technician *domain.User
}

// TicketDetails is the full projection of a ticket, messages oldest first.
type TicketDetails struct {
	TicketView
	Messages []domain.TicketMessage
}

// TicketQueryService answers read queries. Ticket-scoped queries share the command path: load,
// then apply the view policy.
type TicketQueryService struct {
	store  repository.Store
	logger *zap.Logger
}

// NewTicketQueryService constructs the service.
func NewTicketQueryService(store repository.Store, logger *zap.Logger) *TicketQueryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketQueryService{store: store, logger: logger}
}

// GetTicketDetails returns the ticket with its participants and messages.
func (s *TicketQueryService) GetTicketDetails(ctx context.Context, caller domain.Identity, ticketID string) (*TicketDetails, error) {
	ticket, err := s.viewable(ctx, caller, func() (*domain.Ticket, error) {
		return loadTicket(ctx, s.store, ticketID)
	})
	if err != nil {
		return nil, err
	}
	return s.details(ctx, ticket)
}

// GetTicketByNumber is GetTicketDetails keyed by the human-readable number.
func (s *TicketQueryService) GetTicketByNumber(ctx context.Context, caller domain.Identity, number string) (*TicketDetails, error) {
	ticket, err := s.viewable(ctx, caller, func() (*domain.Ticket, error) {
		ticket, err := s.store.Tickets().GetByNumber(ctx, number)
		if err != nil {
			return nil, mapRepoError(err, resourceTicket, number)
		}
		return ticket, nil
	})
	if err != nil {
		return nil, err
	}
	return s.details(ctx, ticket)
}

// GetTicketMessages returns the thread oldest first with author name and email resolved.
func (s *TicketQueryService) GetTicketMessages(ctx context.Context, caller domain.Identity, ticketID string) ([]domain.TicketMessage, error) {
	ticket, err := s.viewable(ctx, caller, func() (*domain.Ticket, error) {
		return loadTicket(ctx, s.store, ticketID)
	})
	if err != nil {
		return nil, err
	}
	msgs, err := s.store.Messages().ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, mapRepoError(err, resourceTicket, ticket.ID)
	}
	return msgs, nil
}

// GetTicketHistory returns the audit trail oldest first.
func (s *TicketQueryService) GetTicketHistory(ctx context.Context, caller domain.Identity, ticketID string) ([]domain.TicketHistory, error) {
	ticket, err := s.viewable(ctx, caller, func() (*domain.Ticket, error) {
		return loadTicket(ctx, s.store, ticketID)
	})
	if err != nil {
		return nil, err
	}
	history, err := s.store.History().ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, mapRepoError(err, resourceTicket, ticket.ID)
	}
	return history, nil
}

// GetClientTickets lists a client's tickets newest first.
func (s *TicketQueryService) GetClientTickets(ctx context.Context, caller domain.Identity, clientID string, page Page) ([]TicketView, error) {
	if err := policy.Authenticated(caller); err != nil {
		return nil, err
	}
	if err := policy.CanListClientTickets(caller, clientID); err != nil {
		return nil, err
	}
	if err := s.userExists(ctx, clientID); err != nil {
		return nil, err
	}
	return s.list(ctx, repository.TicketFilter{ClientID: &clientID, Limit: page.Limit, Offset: page.Offset})
}

// GetMyTickets lists the caller's own tickets.
func (s *TicketQueryService) GetMyTickets(ctx context.Context, caller domain.Identity, page Page) ([]TicketView, error) {
	return s.GetClientTickets(ctx, caller, caller.UserID, page)
}

// GetTechnicianTickets lists tickets assigned to a technician, optionally including closed ones.
func (s *TicketQueryService) GetTechnicianTickets(ctx context.Context, caller domain.Identity, technicianID string, includeClosed bool, page Page) ([]TicketView, error) {
	if err := policy.Authenticated(caller); err != nil {
		return nil, err
	}
	if err := policy.CanListTechnicianTickets(caller, technicianID); err != nil {
		return nil, err
	}
	if err := s.userExists(ctx, technicianID); err != nil {
		return nil, err
	}
	filter := repository.TicketFilter{AssignedTechnicianID: &technicianID, Limit: page.Limit, Offset: page.Offset}
	if !includeClosed {
		filter.ExcludeStatuses = []domain.TicketStatus{domain.TicketStatusClosed}
	}
	return s.list(ctx, filter)
}

// GetMyAssignedTickets lists the caller's open assignments. Staff only.
func (s *TicketQueryService) GetMyAssignedTickets(ctx context.Context, caller domain.Identity, page Page) ([]TicketView, error) {
	if err := policy.Authenticated(caller); err != nil {
		return nil, err
	}
	if err := policy.CanListAssigned(caller); err != nil {
		return nil, err
	}
	return s.GetTechnicianTickets(ctx, caller, caller.UserID, false, page)
}

// GetUnassignedTickets lists tickets no technician owns. Staff only.
func (s *TicketQueryService) GetUnassignedTickets(ctx context.Context, caller domain.Identity, page Page) ([]TicketView, error) {
	if err := policy.Authenticated(caller); err != nil {
		return nil, err
	}
	if err := policy.CanListUnassigned(caller); err != nil {
		return nil, err
	}
	return s.list(ctx, repository.TicketFilter{Unassigned: true, Limit: page.Limit, Offset: page.Offset})
}

func (s *TicketQueryService) userExists(ctx context.Context, id string) error {
	if _, err := s.store.Users().GetByID(ctx, id); err != nil {
		return mapRepoError(err, resourceUser, id)
	}
	return nil
}

func (s *TicketQueryService) viewable(ctx context.Context, caller domain.Identity, load func() (*domain.Ticket, error)) (*domain.Ticket, error) {
	if err := policy.Authenticated(caller); err != nil {
		return nil, err
	}
	ticket, err := load()
	if err != nil {
		return nil, err
	}
	if err := policy.CanView(caller, ticket); err != nil {
		return nil, err
	}
	return ticket, nil
}

func (s *TicketQueryService) details(ctx context.Context, ticket *domain.Ticket) (*TicketDetails, error) {
	users := newUserResolver(s.store.Users())
	view, err := users.view(ctx, ticket)
	if err != nil {
		return nil, err
	}
	msgs, err := s.store.Messages().ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, mapRepoError(err, resourceTicket, ticket.ID)
	}
	return &TicketDetails{TicketView: view, Messages: msgs}, nil
}

func (s *TicketQueryService) list(ctx context.Context, filter repository.TicketFilter) ([]TicketView, error) {
	tickets, err := s.store.Tickets().List(ctx, filter)
	if err != nil {
		return nil, mapRepoError(err, resourceTicket, "")
	}
	users := newUserResolver(s.store.Users())
	views := make([]TicketView, 0, len(tickets))
	for i := range tickets {
		view, err := users.view(ctx, &tickets[i])
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

// userResolver memoizes user lookups for one query.
type userResolver struct {
	users repository.UserRepository
	seen  map[string]*domain.User
}

func newUserResolver(users repository.UserRepository) *userResolver {
	return &userResolver{users: users, seen: map[string]*domain.User{}}
}

func (r *userResolver) get(ctx context.Context, id string) (*domain.User, error) {
	if user, ok := r.seen[id]; ok {
		return user, nil
	}
	user, err := r.users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		user, err = nil, nil
	}
	if err != nil {
		return nil, mapRepoError(err, resourceUser, id)
	}
	r.seen[id] = user
	return user, nil
}

func (r *userResolver) view(ctx context.Context, ticket *domain.Ticket) (TicketView, error) {
	view := TicketView{Ticket: *ticket}
	client, err := r.get(ctx, ticket.ClientID)
	if err != nil {
		return view, err
	}
	view.Client = client
	if ticket.IsAssigned() {
		technician, err := r.get(ctx, *ticket.AssignedTechnicianID)
		if err != nil {
			return view, err
		}
		view.Technician = technician
	}
	return view, nil
}
