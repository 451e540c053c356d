package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/helpdesk/internal/domain"
)

type actionLogRepository struct {
	db DBTX
}

func (r *actionLogRepository) Append(ctx context.Context, entry *domain.ActionLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	const query = `
        INSERT INTO action_logs (id, ticket_id, actor_id, action_type, detail, created_at)
        VALUES ($1,$2,$3,$4,$5,$6)`
	_, err := r.db.Exec(ctx, query,
		entry.ID,
		entry.TicketID,
		entry.ActorID,
		entry.ActionType,
		entry.Detail,
		entry.CreatedAt,
	)
	return mapErr(err)
}

func (r *actionLogRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.ActionLog, error) {
	const query = `
        SELECT id, ticket_id, actor_id, action_type, detail, created_at
        FROM action_logs WHERE ticket_id=$1 ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query, ticketID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	result := []domain.ActionLog{}
	for rows.Next() {
		var entry domain.ActionLog
		if err := rows.Scan(
			&entry.ID,
			&entry.TicketID,
			&entry.ActorID,
			&entry.ActionType,
			&entry.Detail,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

// LatestAt returns the newest entry time, or nil when the ticket has none.
func (r *actionLogRepository) LatestAt(ctx context.Context, ticketID string) (*time.Time, error) {
	var latest *time.Time
	if err := r.db.QueryRow(ctx, `SELECT MAX(created_at) FROM action_logs WHERE ticket_id=$1`, ticketID).
		Scan(&latest); err != nil {
		return nil, mapErr(err)
	}
	return latest, nil
}
