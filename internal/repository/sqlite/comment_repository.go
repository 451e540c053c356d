package sqlite

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/spec-kit/helpdesk/internal/domain"
)

type commentRepository struct {
	db DBTX
}

func (r *commentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	if comment.ID == "" {
		comment.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO comments (id, ticket_id, author_id, body, created_at) VALUES (?,?,?,?,?)`,
		comment.ID, comment.TicketID, comment.AuthorID, comment.Body, comment.CreatedAt)
	return mapErr(err)
}

func (r *commentRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.Comment, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT id, ticket_id, author_id, body, created_at
        FROM comments WHERE ticket_id=? ORDER BY created_at ASC`, ticketID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()
	return scanComments(rows)
}

func scanComments(rows *sql.Rows) ([]domain.Comment, error) {
	result := []domain.Comment{}
	for rows.Next() {
		var comment domain.Comment
		if err := rows.Scan(&comment.ID, &comment.TicketID, &comment.AuthorID, &comment.Body, &comment.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, comment)
	}
	return result, rows.Err()
}
