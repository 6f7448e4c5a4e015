package repository

import (
	"context"
	"errors"

	"github.com/spec-kit/helpdesk/internal/domain"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrVersionConflict is returned when an update lost an optimistic concurrency race.
	ErrVersionConflict = errors.New("record was modified concurrently")
	// ErrDuplicate is returned when a unique key (email, ticket number) is already taken.
	ErrDuplicate = errors.New("duplicate key")
)

// TicketFilter captures ticket listing parameters. Results are ordered newest first.
type TicketFilter struct {
	ClientID             *string
	AssignedTechnicianID *string
	Unassigned           bool
	Statuses             []domain.TicketStatus
	ExcludeStatuses      []domain.TicketStatus
	Limit                int
	Offset               int
}

// Matches reports whether ticket satisfies the filter predicate.
func (f TicketFilter) Matches(ticket *domain.Ticket) bool {
	if f.ClientID != nil && ticket.ClientID != *f.ClientID {
		return false
	}
	if f.AssignedTechnicianID != nil && (ticket.AssignedTechnicianID == nil || *ticket.AssignedTechnicianID != *f.AssignedTechnicianID) {
		return false
	}
	if f.Unassigned && ticket.IsAssigned() {
		return false
	}
	if len(f.Statuses) > 0 && !containsStatus(f.Statuses, ticket.Status) {
		return false
	}
	if containsStatus(f.ExcludeStatuses, ticket.Status) {
		return false
	}
	return true
}

func containsStatus(list []domain.TicketStatus, status domain.TicketStatus) bool {
	for _, s := range list {
		if s == status {
			return true
		}
	}
	return false
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	// Update writes the ticket if its Version still matches the stored one, then bumps Version.
	// UpdatedAt is stamped when the caller left it nil.
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	GetByNumber(ctx context.Context, number string) (*domain.Ticket, error)
	ExistsByNumber(ctx context.Context, number string) (bool, error)
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
}

// TicketMessageRepository manages ticket thread messages.
type TicketMessageRepository interface {
	Create(ctx context.Context, msg *domain.TicketMessage) error
	// ListByTicket returns messages oldest first with author name and email resolved.
	ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketMessage, error)
}

// UserRepository defines persistence access for accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	ListByRoles(ctx context.Context, roles []domain.Role, activeOnly bool) ([]domain.User, error)
}

// TicketHistoryRepository stores audit entries.
type TicketHistoryRepository interface {
	Create(ctx context.Context, history *domain.TicketHistory) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketHistory, error)
}

// Store groups the repositories that share one unit of work.
type Store interface {
	Tickets() TicketRepository
	Messages() TicketMessageRepository
	Users() UserRepository
	History() TicketHistoryRepository
	// WithinTx runs fn against a transactional view of the store. Writes become visible only
	// if fn returns nil and ctx is still live at commit time.
	WithinTx(ctx context.Context, fn func(tx Store) error) error
}
