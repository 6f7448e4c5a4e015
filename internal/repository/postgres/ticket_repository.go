package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
)

const ticketColumns = `id, ticket_number, title, description, category, priority, status, client_id,
               assigned_technician_id, assigned_at, resolution_note, closed_at, reopen_reason, reopened_at,
               created_at, updated_at, version`

type ticketRepository struct {
	db dbtx
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (id, ticket_number, title, description, category, priority, status, client_id,
            assigned_technician_id, assigned_at, created_at, version)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,1)
        RETURNING version`
	return mapError(r.db.QueryRow(ctx, query,
		ticket.ID,
		ticket.TicketNumber,
		ticket.Title,
		ticket.Description,
		ticket.Category,
		ticket.Priority,
		ticket.Status,
		ticket.ClientID,
		ticket.AssignedTechnicianID,
		ticket.AssignedAt,
		ticket.CreatedAt,
	).Scan(&ticket.Version))
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	if ticket.UpdatedAt == nil {
		ticket.Touch(time.Now().UTC())
	}
	const query = `
        UPDATE tickets SET title=$1, description=$2, category=$3, priority=$4, status=$5,
            assigned_technician_id=$6, assigned_at=$7, resolution_note=$8, closed_at=$9,
            reopen_reason=$10, reopened_at=$11, updated_at=$12, version=version+1
        WHERE id=$13 AND version=$14
        RETURNING version`
	err := r.db.QueryRow(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Category,
		ticket.Priority,
		ticket.Status,
		ticket.AssignedTechnicianID,
		ticket.AssignedAt,
		ticket.ResolutionNote,
		ticket.ClosedAt,
		ticket.ReopenReason,
		ticket.ReopenedAt,
		ticket.UpdatedAt,
		ticket.ID,
		ticket.Version,
	).Scan(&ticket.Version)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return mapError(err)
	}
	exists, existsErr := r.exists(ctx, "id", ticket.ID)
	if existsErr != nil {
		return existsErr
	}
	if exists {
		return repository.ErrVersionConflict
	}
	return repository.ErrNotFound
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *ticketRepository) GetByNumber(ctx context.Context, number string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE ticket_number=$1`
	return r.fetchSingle(ctx, query, number)
}

func (r *ticketRepository) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	return r.exists(ctx, "ticket_number", number)
}

func (r *ticketRepository) exists(ctx context.Context, column, value string) (bool, error) {
	query := fmt.Sprintf(`SELECT EXISTS(SELECT 1 FROM tickets WHERE %s=$1)`, column)
	var found bool
	if err := r.db.QueryRow(ctx, query, value).Scan(&found); err != nil {
		return false, mapError(err)
	}
	return found, nil
}

func (r *ticketRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Ticket, error) {
	ticket, err := scanTicket(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		return nil, mapError(err)
	}
	return ticket, nil
}

func (r *ticketRepository) List(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.ClientID != nil {
		args = append(args, *filter.ClientID)
		clauses = append(clauses, fmt.Sprintf("client_id=$%d", len(args)))
	}
	if filter.AssignedTechnicianID != nil {
		args = append(args, *filter.AssignedTechnicianID)
		clauses = append(clauses, fmt.Sprintf("assigned_technician_id=$%d", len(args)))
	}
	if filter.Unassigned {
		clauses = append(clauses, "assigned_technician_id IS NULL")
	}
	if len(filter.Statuses) > 0 {
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", placeholders(&args, filter.Statuses)))
	}
	if len(filter.ExcludeStatuses) > 0 {
		clauses = append(clauses, fmt.Sprintf("status NOT IN (%s)", placeholders(&args, filter.ExcludeStatuses)))
	}

	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY created_at DESC, id`,
		ticketColumns, strings.Join(clauses, " AND "))
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	result := []domain.Ticket{}
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

func placeholders(args *[]any, statuses []domain.TicketStatus) string {
	parts := make([]string, len(statuses))
	for i, status := range statuses {
		*args = append(*args, status)
		parts[i] = fmt.Sprintf("$%d", len(*args))
	}
	return strings.Join(parts, ",")
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := row.Scan(
		&ticket.ID,
		&ticket.TicketNumber,
		&ticket.Title,
		&ticket.Description,
		&ticket.Category,
		&ticket.Priority,
		&ticket.Status,
		&ticket.ClientID,
		&ticket.AssignedTechnicianID,
		&ticket.AssignedAt,
		&ticket.ResolutionNote,
		&ticket.ClosedAt,
		&ticket.ReopenReason,
		&ticket.ReopenedAt,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.Version,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}
