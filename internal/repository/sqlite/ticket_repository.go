package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
)

const ticketColumns = `id, requester_id, technician_id, subcategory_id, note, priority, status, opened_at, closed_at`

type ticketRepository struct {
	db DBTX
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	if ticket.ID == "" {
		ticket.ID = uuid.NewString()
	}
	const query = `
        INSERT INTO tickets (id, requester_id, technician_id, subcategory_id, note, priority, status, opened_at, closed_at)
        VALUES (?,?,?,?,?,?,?,?,?)`
	_, err := r.db.ExecContext(ctx, query,
		ticket.ID,
		ticket.RequesterID,
		ticket.TechnicianID,
		ticket.SubcategoryID,
		ticket.Note,
		string(ticket.Priority),
		string(ticket.Status),
		ticket.OpenedAt,
		ticket.ClosedAt,
	)
	return mapErr(err)
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	var ticket domain.Ticket
	row := r.db.QueryRowContext(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id=?`, id)
	if err := scanTicket(row, &ticket); err != nil {
		return nil, mapErr(err)
	}
	return &ticket, nil
}

// GetForUpdate is GetByID: the store's single connection already serializes
// transactions.
func (r *ticketRepository) GetForUpdate(ctx context.Context, id string) (*domain.Ticket, error) {
	return r.GetByID(ctx, id)
}

func (r *ticketRepository) Transition(ctx context.Context, tr repository.TicketTransition) error {
	const query = `
        UPDATE tickets SET status=?,
            technician_id=COALESCE(technician_id, ?),
            closed_at=COALESCE(closed_at, ?)
        WHERE id=? AND status=?`
	res, err := r.db.ExecContext(ctx, query, string(tr.To), tr.TechnicianID, tr.ClosedAt, tr.TicketID, string(tr.From))
	if err != nil {
		return mapErr(err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	var exists int
	err = r.db.QueryRowContext(ctx, `SELECT 1 FROM tickets WHERE id=?`, tr.TicketID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}
	if err != nil {
		return err
	}
	return repository.ErrStaleState
}

func (r *ticketRepository) CountByRequesterAndStatus(ctx context.Context, requesterID string, status domain.TicketStatus) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tickets WHERE requester_id=? AND status=?`,
		requesterID, string(status)).Scan(&count); err != nil {
		return 0, mapErr(err)
	}
	return count, nil
}

func (r *ticketRepository) List(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	where, args := filter.Where(func(int) string { return "?" })
	limit, offset := filter.Page()
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY %s LIMIT %d OFFSET %d`,
		ticketColumns, where, filter.OrderClause(), limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	result := []domain.Ticket{}
	for rows.Next() {
		var ticket domain.Ticket
		if err := scanTicket(rows, &ticket); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTicket(row scanner, ticket *domain.Ticket) error {
	return row.Scan(
		&ticket.ID,
		&ticket.RequesterID,
		&ticket.TechnicianID,
		&ticket.SubcategoryID,
		&ticket.Note,
		&ticket.Priority,
		&ticket.Status,
		&ticket.OpenedAt,
		&ticket.ClosedAt,
	)
}
