package domain

import "time"

// TicketMessage captures one entry in a ticket thread. Messages are append-only.
type TicketMessage struct {
	ID        string
	TicketID  string
	AuthorID  string
	Content   string
	CreatedAt time.Time

	// Resolved on read; not persisted with the message.
	AuthorName  string
	AuthorEmail string
}
