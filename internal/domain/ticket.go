package domain

import (
	"time"

	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "OPEN"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusPending    TicketStatus = "PENDING"
	TicketStatusResolved   TicketStatus = "RESOLVED"
	TicketStatusClosed     TicketStatus = "CLOSED"
)

// TicketPriority enumerates urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "LOW"
	TicketPriorityMedium TicketPriority = "MEDIUM"
	TicketPriorityHigh   TicketPriority = "HIGH"
	TicketPriorityUrgent TicketPriority = "URGENT"
)

// DefaultResolutionNote is stored when a ticket is closed without a note.
const DefaultResolutionNote = "Ticket closed without a resolution note."

// ParseTicketStatus parses a status name case-insensitively ("in progress", "InProgress" and
// "IN_PROGRESS" are equivalent).
func ParseTicketStatus(raw string) (TicketStatus, bool) {
	switch normalizeEnum(raw) {
	case "open":
		return TicketStatusOpen, true
	case "inprogress":
		return TicketStatusInProgress, true
	case "pending":
		return TicketStatusPending, true
	case "resolved":
		return TicketStatusResolved, true
	case "closed":
		return TicketStatusClosed, true
	}
	return "", false
}

// ParseTicketPriority parses a priority name case-insensitively. Empty input yields Medium.
func ParseTicketPriority(raw string) (TicketPriority, bool) {
	switch normalizeEnum(raw) {
	case "":
		return TicketPriorityMedium, true
	case "low":
		return TicketPriorityLow, true
	case "medium", "normal":
		return TicketPriorityMedium, true
	case "high":
		return TicketPriorityHigh, true
	case "urgent", "critical":
		return TicketPriorityUrgent, true
	}
	return "", false
}

// Ticket is the aggregate for support requests.
type Ticket struct {
	ID                   string
	TicketNumber         string
	Title                string
	Description          string
	Category             string
	Priority             TicketPriority
	Status               TicketStatus
	ClientID             string
	AssignedTechnicianID *string
	AssignedAt           *time.Time
	ResolutionNote       *string
	ClosedAt             *time.Time
	ReopenReason         *string
	ReopenedAt           *time.Time
	CreatedAt            time.Time
	UpdatedAt            *time.Time
	// Version is bumped by the store on every update and used for optimistic concurrency.
	Version int64
}

// IsAssigned reports whether a technician owns the ticket.
func (t *Ticket) IsAssigned() bool {
	return t.AssignedTechnicianID != nil && *t.AssignedTechnicianID != ""
}

// Touch stamps UpdatedAt.
func (t *Ticket) Touch(now time.Time) {
	t.UpdatedAt = &now
}

// Assign hands the ticket to technicianID and moves it to InProgress.
func (t *Ticket) Assign(technicianID string, now time.Time) error {
	if t.Status == TicketStatusClosed {
		return apperrors.NewConflict("closed tickets cannot be assigned; reopen the ticket first",
			map[string]any{"ticket_id": t.ID, "status": t.Status})
	}
	t.AssignedTechnicianID = &technicianID
	t.AssignedAt = &now
	t.Status = TicketStatusInProgress
	t.Touch(now)
	return nil
}

// ChangeStatus moves an open ticket between the working states. A Closed target is applied with
// Close and the default note; leaving Closed goes through Reopen so that ClosedAt always tracks
// the Closed status.
func (t *Ticket) ChangeStatus(next TicketStatus, now time.Time) error {
	if next == TicketStatusInProgress && !t.IsAssigned() {
		return apperrors.NewValidationError("ticket must be assigned to a technician before it can be in progress",
			map[string]any{"status": next})
	}
	if next == TicketStatusClosed {
		return t.Close("", now)
	}
	if t.Status == TicketStatusClosed {
		return apperrors.NewConflict("ticket is closed; reopen it before changing status",
			map[string]any{"ticket_id": t.ID, "status": t.Status})
	}
	t.Status = next
	t.Touch(now)
	return nil
}

// Close marks the ticket Closed with a resolution note.
func (t *Ticket) Close(note string, now time.Time) error {
	if t.Status == TicketStatusClosed {
		return apperrors.NewConflict("ticket is already closed", map[string]any{"ticket_id": t.ID})
	}
	if note == "" {
		note = DefaultResolutionNote
	}
	t.Status = TicketStatusClosed
	t.ResolutionNote = &note
	t.ClosedAt = &now
	t.Touch(now)
	return nil
}

// Reopen moves a Closed ticket back to Open.
func (t *Ticket) Reopen(reason string, now time.Time) error {
	if t.Status != TicketStatusClosed {
		return apperrors.NewConflict("only closed tickets can be reopened",
			map[string]any{"ticket_id": t.ID, "status": t.Status})
	}
	t.Status = TicketStatusOpen
	t.ReopenReason = &reason
	t.ReopenedAt = &now
	t.ClosedAt = nil
	t.Touch(now)
	return nil
}
