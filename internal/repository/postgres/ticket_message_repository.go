package postgres

import (
	"context"

	"github.com/spec-kit/helpdesk/internal/domain"
)

type ticketMessageRepository struct {
	db dbtx
}

func (r *ticketMessageRepository) Create(ctx context.Context, msg *domain.TicketMessage) error {
	const query = `
        INSERT INTO ticket_messages (id, ticket_id, author_id, content, created_at)
        VALUES ($1,$2,$3,$4,$5)`
	_, err := r.db.Exec(ctx, query,
		msg.ID,
		msg.TicketID,
		msg.AuthorID,
		msg.Content,
		msg.CreatedAt,
	)
	return mapError(err)
}

func (r *ticketMessageRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketMessage, error) {
	const query = `
        SELECT m.id, m.ticket_id, m.author_id, m.content, m.created_at,
               COALESCE(u.full_name, ''), COALESCE(u.email, '')
        FROM ticket_messages m
        LEFT JOIN users u ON u.id = m.author_id
        WHERE m.ticket_id=$1
        ORDER BY m.created_at ASC, m.id`
	rows, err := r.db.Query(ctx, query, ticketID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	result := []domain.TicketMessage{}
	for rows.Next() {
		var msg domain.TicketMessage
		if err := rows.Scan(
			&msg.ID,
			&msg.TicketID,
			&msg.AuthorID,
			&msg.Content,
			&msg.CreatedAt,
			&msg.AuthorName,
			&msg.AuthorEmail,
		); err != nil {
			return nil, err
		}
		result = append(result, msg)
	}
	return result, rows.Err()
}
