//go:build integration

package postgres

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/persistence"
	"github.com/spec-kit/helpdesk/internal/repository"
)

// newTestStore connects to TEST_PG_DSN, applies the migrations and empties every table.
func newTestStore(t *testing.T) (*Store, *pgxpool.Pool) {
	t.Helper()
	dsn := os.Getenv("TEST_PG_DSN")
	if dsn == "" {
		t.Skip("TEST_PG_DSN not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, persistence.RunMigrations(ctx, pool, filepath.Join("..", "..", "..", "migrations"), zap.NewNop()))
	_, err = pool.Exec(ctx, `TRUNCATE ticket_history, ticket_messages, tickets, users, ticket_number_counters`)
	require.NoError(t, err)
	return NewStore(pool), pool
}

func seedUser(t *testing.T, store *Store, name string, role domain.Role, active bool) *domain.User {
	t.Helper()
	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        name + "@Example.com",
		FullName:     name,
		PasswordHash: "hash",
		Role:         role,
		IsActive:     active,
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}
	require.NoError(t, store.Users().Create(context.Background(), user))
	return user
}

func newTicket(clientID, number string, created time.Time) *domain.Ticket {
	return &domain.Ticket{
		ID:           uuid.NewString(),
		TicketNumber: number,
		Title:        "Printer on fire",
		Priority:     domain.TicketPriorityHigh,
		Status:       domain.TicketStatusOpen,
		ClientID:     clientID,
		CreatedAt:    created,
	}
}

func TestUserRepository(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	carla := seedUser(t, store, "carla", domain.RoleClient, true)
	seedUser(t, store, "xavier", domain.RoleTechnician, true)
	seedUser(t, store, "retired", domain.RoleTechnician, false)
	seedUser(t, store, "ada", domain.RoleAdmin, true)

	got, err := store.Users().GetByEmail(ctx, "CARLA@example.com")
	require.NoError(t, err)
	assert.Equal(t, carla.ID, got.ID)
	assert.Equal(t, "carla@example.com", got.Email)

	dup := *carla
	dup.ID = uuid.NewString()
	assert.ErrorIs(t, store.Users().Create(ctx, &dup), repository.ErrDuplicate)

	_, err = store.Users().GetByID(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	staff, err := store.Users().ListByRoles(ctx, []domain.Role{domain.RoleTechnician, domain.RoleAdmin}, true)
	require.NoError(t, err)
	names := []string{}
	for _, u := range staff {
		names = append(names, u.FullName)
	}
	assert.Equal(t, []string{"ada", "xavier"}, names)
}

func TestTicketRepositoryVersioning(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	client := seedUser(t, store, "carla", domain.RoleClient, true)
	tech := seedUser(t, store, "xavier", domain.RoleTechnician, true)

	ticket := newTicket(client.ID, "TK-2026-00001", time.Now().UTC().Truncate(time.Microsecond))
	require.NoError(t, store.Tickets().Create(ctx, ticket))
	assert.EqualValues(t, 1, ticket.Version)

	dup := newTicket(client.ID, "TK-2026-00001", ticket.CreatedAt)
	assert.ErrorIs(t, store.Tickets().Create(ctx, dup), repository.ErrDuplicate)

	exists, err := store.Tickets().ExistsByNumber(ctx, "TK-2026-00001")
	require.NoError(t, err)
	assert.True(t, exists)

	stale, err := store.Tickets().GetByID(ctx, ticket.ID)
	require.NoError(t, err)

	require.NoError(t, ticket.Assign(tech.ID, time.Now().UTC()))
	require.NoError(t, store.Tickets().Update(ctx, ticket))
	assert.EqualValues(t, 2, ticket.Version)

	require.NoError(t, stale.Close("", time.Now().UTC()))
	assert.ErrorIs(t, store.Tickets().Update(ctx, stale), repository.ErrVersionConflict)

	missing := newTicket(client.ID, "TK-2026-00002", ticket.CreatedAt)
	missing.Version = 1
	assert.ErrorIs(t, store.Tickets().Update(ctx, missing), repository.ErrNotFound)

	byNumber, err := store.Tickets().GetByNumber(ctx, "TK-2026-00001")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusInProgress, byNumber.Status)
	require.NotNil(t, byNumber.AssignedTechnicianID)
	assert.Equal(t, tech.ID, *byNumber.AssignedTechnicianID)
}

func TestTicketRepositoryList(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	client := seedUser(t, store, "carla", domain.RoleClient, true)
	tech := seedUser(t, store, "xavier", domain.RoleTechnician, true)
	base := time.Now().UTC().Truncate(time.Second)

	older := newTicket(client.ID, "TK-2026-00001", base)
	newer := newTicket(client.ID, "TK-2026-00002", base.Add(time.Minute))
	closed := newTicket(client.ID, "TK-2026-00003", base.Add(2*time.Minute))
	for _, ticket := range []*domain.Ticket{older, newer, closed} {
		require.NoError(t, store.Tickets().Create(ctx, ticket))
	}
	require.NoError(t, closed.Assign(tech.ID, base))
	require.NoError(t, closed.Close("done", base))
	require.NoError(t, store.Tickets().Update(ctx, closed))

	all, err := store.Tickets().List(ctx, repository.TicketFilter{ClientID: &client.ID})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{closed.ID, newer.ID, older.ID}, []string{all[0].ID, all[1].ID, all[2].ID})

	page, err := store.Tickets().List(ctx, repository.TicketFilter{ClientID: &client.ID, Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, newer.ID, page[0].ID)

	unassigned, err := store.Tickets().List(ctx, repository.TicketFilter{Unassigned: true})
	require.NoError(t, err)
	assert.Len(t, unassigned, 2)

	active, err := store.Tickets().List(ctx, repository.TicketFilter{
		AssignedTechnicianID: &tech.ID,
		ExcludeStatuses:      []domain.TicketStatus{domain.TicketStatusClosed},
	})
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestWithinTxRollsBack(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	client := seedUser(t, store, "carla", domain.RoleClient, true)
	ticket := newTicket(client.ID, "TK-2026-00001", time.Now().UTC())

	boom := errors.New("boom")
	err := store.WithinTx(ctx, func(tx repository.Store) error {
		require.NoError(t, tx.Tickets().Create(ctx, ticket))
		require.NoError(t, tx.History().Create(ctx, &domain.TicketHistory{
			ID:          uuid.NewString(),
			TicketID:    ticket.ID,
			ChangedByID: client.ID,
			ChangeType:  domain.ChangeTypeCreated,
			NewValue:    map[string]any{"status": "OPEN"},
			CreatedAt:   time.Now().UTC(),
		}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = store.Tickets().GetByID(ctx, ticket.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestMessagesAndHistory(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	client := seedUser(t, store, "carla", domain.RoleClient, true)
	ticket := newTicket(client.ID, "TK-2026-00001", time.Now().UTC())
	require.NoError(t, store.Tickets().Create(ctx, ticket))

	base := time.Now().UTC().Truncate(time.Second)
	for i, content := range []string{"first", "second"} {
		require.NoError(t, store.Messages().Create(ctx, &domain.TicketMessage{
			ID:        uuid.NewString(),
			TicketID:  ticket.ID,
			AuthorID:  client.ID,
			Content:   content,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}
	msgs, err := store.Messages().ListByTicket(ctx, ticket.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "first", msgs[0].Content)
	assert.Equal(t, "carla", msgs[0].AuthorName)
	assert.Equal(t, "carla@example.com", msgs[0].AuthorEmail)

	require.NoError(t, store.History().Create(ctx, &domain.TicketHistory{
		ID:          uuid.NewString(),
		TicketID:    ticket.ID,
		ChangedByID: client.ID,
		ChangeType:  domain.ChangeTypeStatus,
		OldValue:    map[string]any{"status": "OPEN"},
		NewValue:    map[string]any{"status": "PENDING"},
		CreatedAt:   base,
	}))
	history, err := store.History().ListByTicket(ctx, ticket.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "PENDING", history[0].NewValue["status"])
}
