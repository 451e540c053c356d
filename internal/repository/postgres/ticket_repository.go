package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

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
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`
	_, err := r.db.Exec(ctx, query,
		ticket.ID,
		ticket.RequesterID,
		ticket.TechnicianID,
		ticket.SubcategoryID,
		ticket.Note,
		ticket.Priority,
		ticket.Status,
		ticket.OpenedAt,
		ticket.ClosedAt,
	)
	return mapErr(err)
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	var ticket domain.Ticket
	if err := scanTicket(r.db.QueryRow(ctx, query, id), &ticket); err != nil {
		return nil, mapErr(err)
	}
	return &ticket, nil
}

func (r *ticketRepository) GetForUpdate(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1 FOR UPDATE`
	var ticket domain.Ticket
	if err := scanTicket(r.db.QueryRow(ctx, query, id), &ticket); err != nil {
		return nil, mapErr(err)
	}
	return &ticket, nil
}

// Transition applies tr only while the ticket is still in tr.From. Technician
// and closed-at are write-once.
func (r *ticketRepository) Transition(ctx context.Context, tr repository.TicketTransition) error {
	const query = `
        UPDATE tickets SET status=$1,
            technician_id=COALESCE(technician_id, $2),
            closed_at=COALESCE(closed_at, $3)
        WHERE id=$4 AND status=$5`
	cmd, err := r.db.Exec(ctx, query, tr.To, tr.TechnicianID, tr.ClosedAt, tr.TicketID, tr.From)
	if err != nil {
		return mapErr(err)
	}
	if cmd.RowsAffected() > 0 {
		return nil
	}

	var exists int
	err = r.db.QueryRow(ctx, `SELECT 1 FROM tickets WHERE id=$1`, tr.TicketID).Scan(&exists)
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}
	if err != nil {
		return err
	}
	return repository.ErrStaleState
}

func (r *ticketRepository) CountByRequesterAndStatus(ctx context.Context, requesterID string, status domain.TicketStatus) (int, error) {
	const query = `SELECT COUNT(*) FROM tickets WHERE requester_id=$1 AND status=$2`
	var count int
	if err := r.db.QueryRow(ctx, query, requesterID, status).Scan(&count); err != nil {
		return 0, mapErr(err)
	}
	return count, nil
}

func (r *ticketRepository) List(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	where, args := filter.Where(func(n int) string { return fmt.Sprintf("$%d", n) })
	limit, offset := filter.Page()
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY %s LIMIT %d OFFSET %d`,
		ticketColumns, where, filter.OrderClause(), limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
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

func scanTicket(row pgx.Row, ticket *domain.Ticket) error {
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
