package sqlite

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/spec-kit/helpdesk/internal/domain"
)

type attachmentRepository struct {
	db DBTX
}

func (r *attachmentRepository) Create(ctx context.Context, attachment *domain.Attachment) error {
	if attachment.ID == "" {
		attachment.ID = uuid.NewString()
	}
	uploader := sql.NullString{String: attachment.UploaderID, Valid: attachment.UploaderID != ""}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO attachments (id, ticket_id, path, uploader_id, uploaded_at) VALUES (?,?,?,?,?)`,
		attachment.ID, attachment.TicketID, attachment.Path, uploader, attachment.UploadedAt)
	return mapErr(err)
}

func (r *attachmentRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.Attachment, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT id, ticket_id, path, uploader_id, uploaded_at
        FROM attachments WHERE ticket_id=? ORDER BY uploaded_at ASC`, ticketID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	result := []domain.Attachment{}
	for rows.Next() {
		var (
			attachment domain.Attachment
			uploader   sql.NullString
		)
		if err := rows.Scan(&attachment.ID, &attachment.TicketID, &attachment.Path, &uploader, &attachment.UploadedAt); err != nil {
			return nil, err
		}
		attachment.UploaderID = uploader.String
		result = append(result, attachment)
	}
	return result, rows.Err()
}
