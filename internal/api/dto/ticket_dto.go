package dto

import (
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Priority    string `json:"priority"`
}

// AssignTicketRequest payload.
type AssignTicketRequest struct {
	TechnicianID string `json:"technician_id"`
}

// ChangeStatusRequest payload.
type ChangeStatusRequest struct {
	Status string `json:"status"`
}

// CloseTicketRequest payload.
type CloseTicketRequest struct {
	ResolutionNote string `json:"resolution_note"`
}

// ReopenTicketRequest payload.
type ReopenTicketRequest struct {
	Reason string `json:"reason"`
}

// CreateMessageRequest payload.
type CreateMessageRequest struct {
	Content string `json:"content"`
}

// TicketSummary response.
type TicketSummary struct {
	ID                     string                `json:"id"`
	TicketNumber           string                `json:"ticket_number"`
	Title                  string                `json:"title"`
	Status                 domain.TicketStatus   `json:"status"`
	Priority               domain.TicketPriority `json:"priority"`
	Category               string                `json:"category"`
	ClientID               string                `json:"client_id"`
	ClientName             string                `json:"client_name"`
	AssignedTechnicianID   *string               `json:"assigned_technician_id"`
	AssignedTechnicianName *string               `json:"assigned_technician_name"`
	AssignedAt             *time.Time            `json:"assigned_at"`
	CreatedAt              time.Time             `json:"created_at"`
	UpdatedAt              *time.Time            `json:"updated_at"`
	ClosedAt               *time.Time            `json:"closed_at"`
}

// TicketDetailResponse provides full ticket info.
type TicketDetailResponse struct {
	TicketSummary
	Description    string                  `json:"description"`
	ClientEmail    string                  `json:"client_email"`
	ResolutionNote *string                 `json:"resolution_note"`
	ReopenReason   *string                 `json:"reopen_reason"`
	ReopenedAt     *time.Time              `json:"reopened_at"`
	Messages       []TicketMessageResponse `json:"messages"`
}

// TicketMessageResponse represents a thread message.
type TicketMessageResponse struct {
	ID          string    `json:"id"`
	TicketID    string    `json:"ticket_id"`
	AuthorID    string    `json:"author_id"`
	AuthorName  string    `json:"author_name"`
	AuthorEmail string    `json:"author_email"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"created_at"`
}

// TicketHistoryResponse represents one audit entry.
type TicketHistoryResponse struct {
	ID          string                  `json:"id"`
	ChangeType  domain.TicketChangeType `json:"change_type"`
	ChangedByID string                  `json:"changed_by_id"`
	OldValue    map[string]any          `json:"old_value"`
	NewValue    map[string]any          `json:"new_value"`
	CreatedAt   time.Time               `json:"created_at"`
}
