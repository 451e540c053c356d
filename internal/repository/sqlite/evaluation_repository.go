package sqlite

import (
	"context"

	"github.com/google/uuid"

	"github.com/spec-kit/helpdesk/internal/domain"
)

type evaluationRepository struct {
	db DBTX
}

func (r *evaluationRepository) Create(ctx context.Context, evaluation *domain.Evaluation) error {
	if evaluation.ID == "" {
		evaluation.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO evaluations (id, ticket_id, evaluator_id, score, description, created_at)
        VALUES (?,?,?,?,?,?)`,
		evaluation.ID,
		evaluation.TicketID,
		evaluation.EvaluatorID,
		evaluation.Score,
		evaluation.Description,
		evaluation.CreatedAt,
	)
	return mapErr(err)
}

func (r *evaluationRepository) GetByTicket(ctx context.Context, ticketID string) (*domain.Evaluation, error) {
	var evaluation domain.Evaluation
	if err := r.db.QueryRowContext(ctx, `
        SELECT id, ticket_id, evaluator_id, score, description, created_at
        FROM evaluations WHERE ticket_id=?`, ticketID).Scan(
		&evaluation.ID,
		&evaluation.TicketID,
		&evaluation.EvaluatorID,
		&evaluation.Score,
		&evaluation.Description,
		&evaluation.CreatedAt,
	); err != nil {
		return nil, mapErr(err)
	}
	return &evaluation, nil
}
