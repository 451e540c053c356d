package sqlite

import (
	"context"
	"database/sql"
	"errors"
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
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO action_logs (id, ticket_id, actor_id, action_type, detail, created_at)
        VALUES (?,?,?,?,?,?)`,
		entry.ID,
		entry.TicketID,
		entry.ActorID,
		string(entry.ActionType),
		entry.Detail,
		entry.CreatedAt,
	)
	return mapErr(err)
}

func (r *actionLogRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.ActionLog, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT id, ticket_id, actor_id, action_type, detail, created_at
        FROM action_logs WHERE ticket_id=? ORDER BY created_at DESC`, ticketID)
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

// LatestAt reads the newest row rather than MAX() so the driver parses the
// declared DATETIME column.
func (r *actionLogRepository) LatestAt(ctx context.Context, ticketID string) (*time.Time, error) {
	var latest time.Time
	err := r.db.QueryRowContext(ctx,
		`SELECT created_at FROM action_logs WHERE ticket_id=? ORDER BY created_at DESC LIMIT 1`, ticketID).
		Scan(&latest)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &latest, nil
}
