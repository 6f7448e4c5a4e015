package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

var now = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func newOpenTicket() *Ticket {
	return &Ticket{
		ID:        "t-1",
		ClientID:  "client-1",
		Status:    TicketStatusOpen,
		Priority:  TicketPriorityMedium,
		CreatedAt: now.Add(-time.Hour),
	}
}

func TestParseTicketStatus(t *testing.T) {
	tests := []struct {
		in   string
		want TicketStatus
		ok   bool
	}{
		{"open", TicketStatusOpen, true},
		{"InProgress", TicketStatusInProgress, true},
		{"in progress", TicketStatusInProgress, true},
		{"IN_PROGRESS", TicketStatusInProgress, true},
		{"Pending", TicketStatusPending, true},
		{"RESOLVED", TicketStatusResolved, true},
		{"closed", TicketStatusClosed, true},
		{"Reopened", "", false},
		{"", "", false},
		{"done", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseTicketStatus(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestParseTicketPriorityDefaultsToMedium(t *testing.T) {
	got, ok := ParseTicketPriority("")
	require.True(t, ok)
	assert.Equal(t, TicketPriorityMedium, got)

	got, ok = ParseTicketPriority("urgent")
	require.True(t, ok)
	assert.Equal(t, TicketPriorityUrgent, got)

	_, ok = ParseTicketPriority("whenever")
	assert.False(t, ok)
}

func TestParseRoleAcceptsTechSupportAlias(t *testing.T) {
	for _, raw := range []string{"Technician", "TechSupport", "tech_support"} {
		role, ok := ParseRole(raw)
		require.True(t, ok, raw)
		assert.Equal(t, RoleTechnician, role)
	}
	_, ok := ParseRole("root")
	assert.False(t, ok)
}

func TestAssignSetsOwnerAndInProgress(t *testing.T) {
	ticket := newOpenTicket()

	require.NoError(t, ticket.Assign("tech-1", now))

	require.NotNil(t, ticket.AssignedTechnicianID)
	assert.Equal(t, "tech-1", *ticket.AssignedTechnicianID)
	assert.Equal(t, now, *ticket.AssignedAt)
	assert.Equal(t, TicketStatusInProgress, ticket.Status)
	assert.Equal(t, now, *ticket.UpdatedAt)
}

func TestAssignClosedTicketConflicts(t *testing.T) {
	ticket := newOpenTicket()
	require.NoError(t, ticket.Close("", now))

	err := ticket.Assign("tech-1", now)
	assert.True(t, apperrors.IsConflict(err))
	assert.Nil(t, ticket.AssignedTechnicianID)
}

func TestChangeStatusRules(t *testing.T) {
	t.Run("in progress requires assignee", func(t *testing.T) {
		ticket := newOpenTicket()
		err := ticket.ChangeStatus(TicketStatusInProgress, now)
		assert.True(t, apperrors.IsValidation(err))
		assert.Equal(t, TicketStatusOpen, ticket.Status)
	})

	t.Run("closed target applies close", func(t *testing.T) {
		ticket := newOpenTicket()
		require.NoError(t, ticket.ChangeStatus(TicketStatusClosed, now))
		assert.Equal(t, TicketStatusClosed, ticket.Status)
		require.NotNil(t, ticket.ClosedAt)
		require.NotNil(t, ticket.ResolutionNote)
		assert.Equal(t, DefaultResolutionNote, *ticket.ResolutionNote)

		err := ticket.ChangeStatus(TicketStatusClosed, now)
		assert.True(t, apperrors.IsConflict(err))
	})

	t.Run("closed ticket must be reopened first", func(t *testing.T) {
		ticket := newOpenTicket()
		require.NoError(t, ticket.Close("done", now))
		err := ticket.ChangeStatus(TicketStatusPending, now)
		assert.True(t, apperrors.IsConflict(err))
		assert.Equal(t, TicketStatusClosed, ticket.Status)
	})

	t.Run("working states move freely", func(t *testing.T) {
		ticket := newOpenTicket()
		require.NoError(t, ticket.Assign("tech-1", now))
		require.NoError(t, ticket.ChangeStatus(TicketStatusResolved, now))
		require.NoError(t, ticket.ChangeStatus(TicketStatusPending, now))
		assert.Equal(t, TicketStatusPending, ticket.Status)
	})
}

func TestCloseAndReopenKeepClosedAtInSync(t *testing.T) {
	ticket := newOpenTicket()

	require.NoError(t, ticket.Close("", now))
	assert.Equal(t, TicketStatusClosed, ticket.Status)
	require.NotNil(t, ticket.ClosedAt)
	assert.Equal(t, DefaultResolutionNote, *ticket.ResolutionNote)

	later := now.Add(time.Minute)
	err := ticket.Close("again", later)
	assert.True(t, apperrors.IsConflict(err))
	assert.Equal(t, now, *ticket.ClosedAt)
	assert.Equal(t, DefaultResolutionNote, *ticket.ResolutionNote)

	require.NoError(t, ticket.Reopen("still broken", later))
	assert.Equal(t, TicketStatusOpen, ticket.Status)
	assert.Nil(t, ticket.ClosedAt)
	assert.Equal(t, "still broken", *ticket.ReopenReason)
	assert.Equal(t, later, *ticket.ReopenedAt)
}

func TestReopenRequiresClosed(t *testing.T) {
	for _, status := range []TicketStatus{TicketStatusOpen, TicketStatusInProgress, TicketStatusPending, TicketStatusResolved} {
		ticket := newOpenTicket()
		ticket.Status = status
		err := ticket.Reopen("why", now)
		assert.True(t, apperrors.IsConflict(err), status)
		assert.Equal(t, status, ticket.Status)
		assert.Nil(t, ticket.ReopenedAt)
	}
}

func TestRoleCapabilities(t *testing.T) {
	assert.Equal(t, Capabilities{}, RoleClient.Capabilities())
	assert.True(t, RoleTechnician.Capabilities().CanAssign)
	assert.False(t, RoleTechnician.Capabilities().CanViewAny)
	assert.True(t, RoleAdmin.Capabilities().CanViewAny)
	assert.Equal(t, Capabilities{}, Role("ROOT").Capabilities())
}
