// Package memory provides an in-process repository.Store used when no Postgres DSN is configured
// and by service tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
)

type state struct {
	tickets  map[string]domain.Ticket
	numbers  map[string]string
	users    map[string]domain.User
	emails   map[string]string
	messages []domain.TicketMessage
	history  []domain.TicketHistory
}

func newState() *state {
	return &state{
		tickets: map[string]domain.Ticket{},
		numbers: map[string]string{},
		users:   map[string]domain.User{},
		emails:  map[string]string{},
	}
}

func (s *state) clone() *state {
	out := newState()
	for k, v := range s.tickets {
		out.tickets[k] = cloneTicket(v)
	}
	for k, v := range s.numbers {
		out.numbers[k] = v
	}
	for k, v := range s.users {
		out.users[k] = v
	}
	for k, v := range s.emails {
		out.emails[k] = v
	}
	out.messages = append(out.messages, s.messages...)
	out.history = append(out.history, s.history...)
	return out
}

// Store keeps all records in memory. Transactions are serialized and applied atomically.
type Store struct {
	mu   *sync.RWMutex
	txMu *sync.Mutex
	data *state
	inTx bool
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{mu: &sync.RWMutex{}, txMu: &sync.Mutex{}, data: newState()}
}

func (s *Store) Tickets() repository.TicketRepository {
	return &ticketRepository{store: s}
}

func (s *Store) Messages() repository.TicketMessageRepository {
	return &messageRepository{store: s}
}

func (s *Store) Users() repository.UserRepository {
	return &userRepository{store: s}
}

func (s *Store) History() repository.TicketHistoryRepository {
	return &historyRepository{store: s}
}

// WithinTx runs fn against a private copy of the data and swaps it in when fn succeeds and ctx is
// still live. Base-store writes wait for the transaction to finish.
func (s *Store) WithinTx(ctx context.Context, fn func(tx repository.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	snapshot := s.data.clone()
	s.mu.RUnlock()

	tx := &Store{mu: &sync.RWMutex{}, txMu: &sync.Mutex{}, data: snapshot, inTx: true}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	s.data = snapshot
	s.mu.Unlock()
	return nil
}

// lockWrite serializes a write with open transactions on the base store, so a commit never
// drops it. Writes inside a transaction only touch the private copy.
func (s *Store) lockWrite() func() {
	if !s.inTx {
		s.txMu.Lock()
	}
	s.mu.Lock()
	return func() {
		s.mu.Unlock()
		if !s.inTx {
			s.txMu.Unlock()
		}
	}
}

type ticketRepository struct {
	store *Store
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer r.store.lockWrite()()

	data := r.store.data
	if _, ok := data.tickets[ticket.ID]; ok {
		return repository.ErrDuplicate
	}
	if _, ok := data.numbers[ticket.TicketNumber]; ok {
		return repository.ErrDuplicate
	}
	ticket.Version = 1
	data.tickets[ticket.ID] = cloneTicket(*ticket)
	data.numbers[ticket.TicketNumber] = ticket.ID
	return nil
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer r.store.lockWrite()()

	current, ok := r.store.data.tickets[ticket.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if current.Version != ticket.Version {
		return repository.ErrVersionConflict
	}
	if ticket.UpdatedAt == nil {
		ticket.Touch(time.Now().UTC())
	}
	ticket.Version++
	r.store.data.tickets[ticket.ID] = cloneTicket(*ticket)
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	ticket, ok := r.store.data.tickets[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := cloneTicket(ticket)
	return &out, nil
}

func (r *ticketRepository) GetByNumber(ctx context.Context, number string) (*domain.Ticket, error) {
	r.store.mu.RLock()
	id, ok := r.store.data.numbers[number]
	r.store.mu.RUnlock()
	if !ok {
		return nil, repository.ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *ticketRepository) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	_, ok := r.store.data.numbers[number]
	return ok, nil
}

func (r *ticketRepository) List(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	result := []domain.Ticket{}
	for _, ticket := range r.store.data.tickets {
		if filter.Matches(&ticket) {
			result = append(result, cloneTicket(ticket))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return paginate(result, filter.Offset, filter.Limit), nil
}

func paginate[T any](items []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return items[:0]
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

type messageRepository struct {
	store *Store
}

func (r *messageRepository) Create(ctx context.Context, msg *domain.TicketMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer r.store.lockWrite()()

	stored := *msg
	stored.AuthorName, stored.AuthorEmail = "", ""
	r.store.data.messages = append(r.store.data.messages, stored)
	return nil
}

func (r *messageRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	result := []domain.TicketMessage{}
	for _, msg := range r.store.data.messages {
		if msg.TicketID != ticketID {
			continue
		}
		if author, ok := r.store.data.users[msg.AuthorID]; ok {
			msg.AuthorName = author.FullName
			msg.AuthorEmail = author.Email
		}
		result = append(result, msg)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

type userRepository struct {
	store *Store
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer r.store.lockWrite()()

	email := strings.ToLower(user.Email)
	if _, ok := r.store.data.emails[email]; ok {
		return repository.ErrDuplicate
	}
	if _, ok := r.store.data.users[user.ID]; ok {
		return repository.ErrDuplicate
	}
	user.Email = email
	r.store.data.users[user.ID] = *user
	r.store.data.emails[email] = user.ID
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	user, ok := r.store.data.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.store.mu.RLock()
	id, ok := r.store.data.emails[strings.ToLower(email)]
	r.store.mu.RUnlock()
	if !ok {
		return nil, repository.ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *userRepository) ListByRoles(ctx context.Context, roles []domain.Role, activeOnly bool) ([]domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	wanted := make(map[domain.Role]bool, len(roles))
	for _, role := range roles {
		wanted[role] = true
	}
	result := []domain.User{}
	for _, user := range r.store.data.users {
		if !wanted[user.Role] || (activeOnly && !user.IsActive) {
			continue
		}
		result = append(result, user)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].FullName != result[j].FullName {
			return result[i].FullName < result[j].FullName
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

type historyRepository struct {
	store *Store
}

func (r *historyRepository) Create(ctx context.Context, history *domain.TicketHistory) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer r.store.lockWrite()()

	r.store.data.history = append(r.store.data.history, *history)
	return nil
}

func (r *historyRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketHistory, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	result := []domain.TicketHistory{}
	for _, entry := range r.store.data.history {
		if entry.TicketID == ticketID {
			result = append(result, entry)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func cloneTicket(t domain.Ticket) domain.Ticket {
	t.AssignedTechnicianID = clonePtr(t.AssignedTechnicianID)
	t.AssignedAt = clonePtr(t.AssignedAt)
	t.ResolutionNote = clonePtr(t.ResolutionNote)
	t.ClosedAt = clonePtr(t.ClosedAt)
	t.ReopenReason = clonePtr(t.ReopenReason)
	t.ReopenedAt = clonePtr(t.ReopenedAt)
	t.UpdatedAt = clonePtr(t.UpdatedAt)
	return t
}

func clonePtr[T any](v *T) *T {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}
