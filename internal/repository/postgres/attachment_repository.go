package postgres

import (
	"context"

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
	var uploader *string
	if attachment.UploaderID != "" {
		uploader = &attachment.UploaderID
	}
	const query = `
        INSERT INTO attachments (id, ticket_id, path, uploader_id, uploaded_at)
        VALUES ($1,$2,$3,$4,$5)`
	_, err := r.db.Exec(ctx, query,
		attachment.ID,
		attachment.TicketID,
		attachment.Path,
		uploader,
		attachment.UploadedAt,
	)
	return mapErr(err)
}

func (r *attachmentRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.Attachment, error) {
	const query = `
        SELECT id, ticket_id, path, uploader_id, uploaded_at
        FROM attachments WHERE ticket_id=$1 ORDER BY uploaded_at ASC`
	rows, err := r.db.Query(ctx, query, ticketID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	result := []domain.Attachment{}
	for rows.Next() {
		var (
			attachment domain.Attachment
			uploader   *string
		)
		if err := rows.Scan(
			&attachment.ID,
			&attachment.TicketID,
			&attachment.Path,
			&uploader,
			&attachment.UploadedAt,
		); err != nil {
			return nil, err
		}
		if uploader != nil {
			attachment.UploaderID = *uploader
		}
		result = append(result, attachment)
	}
	return result, rows.Err()
}
