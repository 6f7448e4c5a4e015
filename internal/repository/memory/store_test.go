package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
)

var base = time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)

func seedTicket(t *testing.T, store *Store, id, number string, created time.Time) *domain.Ticket {
	t.Helper()
	ticket := &domain.Ticket{
		ID:           id,
		TicketNumber: number,
		Title:        "printer",
		ClientID:     "client-1",
		Status:       domain.TicketStatusOpen,
		Priority:     domain.TicketPriorityMedium,
		CreatedAt:    created,
	}
	require.NoError(t, store.Tickets().Create(context.Background(), ticket))
	return ticket
}

func TestTicketUpdateChecksVersion(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	seedTicket(t, store, "t-1", "TK-2026-00001", base)

	first, err := store.Tickets().GetByID(ctx, "t-1")
	require.NoError(t, err)
	second, err := store.Tickets().GetByID(ctx, "t-1")
	require.NoError(t, err)

	require.NoError(t, first.Assign("tech-1", base))
	require.NoError(t, store.Tickets().Update(ctx, first))
	assert.Equal(t, int64(2), first.Version)

	require.NoError(t, second.Assign("tech-2", base))
	err = store.Tickets().Update(ctx, second)
	assert.ErrorIs(t, err, repository.ErrVersionConflict)

	stored, err := store.Tickets().GetByID(ctx, "t-1")
	require.NoError(t, err)
	assert.Equal(t, "tech-1", *stored.AssignedTechnicianID)
}

func TestTicketReadsAreCopies(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	seedTicket(t, store, "t-1", "TK-2026-00001", base)

	loaded, err := store.Tickets().GetByID(ctx, "t-1")
	require.NoError(t, err)
	loaded.Title = "mutated"

	again, err := store.Tickets().GetByID(ctx, "t-1")
	require.NoError(t, err)
	assert.Equal(t, "printer", again.Title)
}

func TestTicketNumbersAreUnique(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	seedTicket(t, store, "t-1", "TK-2026-00001", base)

	dup := &domain.Ticket{ID: "t-2", TicketNumber: "TK-2026-00001"}
	assert.ErrorIs(t, store.Tickets().Create(ctx, dup), repository.ErrDuplicate)

	exists, err := store.Tickets().ExistsByNumber(ctx, "TK-2026-00001")
	require.NoError(t, err)
	assert.True(t, exists)

	byNumber, err := store.Tickets().GetByNumber(ctx, "TK-2026-00001")
	require.NoError(t, err)
	assert.Equal(t, "t-1", byNumber.ID)
}

func TestListFiltersAndOrdersNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	seedTicket(t, store, "t-1", "TK-2026-00001", base)
	seedTicket(t, store, "t-2", "TK-2026-00002", base.Add(time.Hour))
	closed := seedTicket(t, store, "t-3", "TK-2026-00003", base.Add(2*time.Hour))
	require.NoError(t, closed.Close("", base))
	require.NoError(t, store.Tickets().Update(ctx, closed))

	clientID := "client-1"
	all, err := store.Tickets().List(ctx, repository.TicketFilter{ClientID: &clientID})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"t-3", "t-2", "t-1"}, []string{all[0].ID, all[1].ID, all[2].ID})

	open, err := store.Tickets().List(ctx, repository.TicketFilter{
		Unassigned:      true,
		ExcludeStatuses: []domain.TicketStatus{domain.TicketStatusClosed},
	})
	require.NoError(t, err)
	assert.Len(t, open, 2)

	page, err := store.Tickets().List(ctx, repository.TicketFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "t-2", page[0].ID)
}

func TestWithinTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	boom := errors.New("boom")

	err := store.WithinTx(ctx, func(tx repository.Store) error {
		seedTicket(t, tx.(*Store), "t-1", "TK-2026-00001", base)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = store.Tickets().GetByID(ctx, "t-1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestWithinTxDiscardsWritesWhenContextEnds(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	store := NewStore()

	err := store.WithinTx(ctx, func(tx repository.Store) error {
		seedTicket(t, tx.(*Store), "t-1", "TK-2026-00001", base)
		cancel()
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)

	_, err = store.Tickets().GetByID(context.Background(), "t-1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestWithinTxCommits(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	err := store.WithinTx(ctx, func(tx repository.Store) error {
		seedTicket(t, tx.(*Store), "t-1", "TK-2026-00001", base)
		return tx.History().Create(ctx, &domain.TicketHistory{
			ID: "h-1", TicketID: "t-1", ChangeType: domain.ChangeTypeCreated, CreatedAt: base,
		})
	})
	require.NoError(t, err)

	history, err := store.History().ListByTicket(ctx, "t-1")
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestWithinTxKeepsConcurrentBaseWrites(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	written := make(chan error, 1)
	err := store.WithinTx(ctx, func(tx repository.Store) error {
		go func() {
			written <- store.Users().Create(ctx, &domain.User{ID: "u-1", Email: "late@example.com", Role: domain.RoleClient, IsActive: true})
		}()
		// give the base write a chance to run while the transaction is open
		time.Sleep(20 * time.Millisecond)
		seedTicket(t, tx.(*Store), "t-1", "TK-2026-00001", base)
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, <-written)

	_, err = store.Users().GetByID(ctx, "u-1")
	require.NoError(t, err)
	_, err = store.Tickets().GetByID(ctx, "t-1")
	require.NoError(t, err)
}

func TestListClampsNegativeOffset(t *testing.T) {
	store := NewStore()
	seedTicket(t, store, "t-1", "TK-2026-00001", base)

	tickets, err := store.Tickets().List(context.Background(), repository.TicketFilter{Limit: 10, Offset: -20})
	require.NoError(t, err)
	assert.Len(t, tickets, 1)
}

func TestMessagesResolveAuthor(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	require.NoError(t, store.Users().Create(ctx, &domain.User{
		ID: "client-1", Email: "Ana@Example.com", FullName: "Ana", Role: domain.RoleClient, IsActive: true,
	}))

	require.NoError(t, store.Messages().Create(ctx, &domain.TicketMessage{
		ID: "m-2", TicketID: "t-1", AuthorID: "client-1", Content: "second", CreatedAt: base.Add(time.Minute),
	}))
	require.NoError(t, store.Messages().Create(ctx, &domain.TicketMessage{
		ID: "m-1", TicketID: "t-1", AuthorID: "client-1", Content: "first", CreatedAt: base,
	}))

	msgs, err := store.Messages().ListByTicket(ctx, "t-1")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "first", msgs[0].Content)
	assert.Equal(t, "Ana", msgs[0].AuthorName)
	assert.Equal(t, "ana@example.com", msgs[0].AuthorEmail)
}

func TestUsersEmailIsUniqueCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	require.NoError(t, store.Users().Create(ctx, &domain.User{ID: "u-1", Email: "tech@example.com", Role: domain.RoleTechnician, IsActive: true}))

	err := store.Users().Create(ctx, &domain.User{ID: "u-2", Email: "TECH@example.com"})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	found, err := store.Users().GetByEmail(ctx, "Tech@Example.com")
	require.NoError(t, err)
	assert.Equal(t, "u-1", found.ID)
}
