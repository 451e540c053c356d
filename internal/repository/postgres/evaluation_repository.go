package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/spec-kit/helpdesk/internal/domain"
)

type evaluationRepository struct {
	db DBTX
}

// Create fails with repository.ErrDuplicate when the ticket already has an
// evaluation.
func (r *evaluationRepository) Create(ctx context.Context, evaluation *domain.Evaluation) error {
	if evaluation.ID == "" {
		evaluation.ID = uuid.NewString()
	}
	const query = `
        INSERT INTO evaluations (id, ticket_id, evaluator_id, score, description, created_at)
        VALUES ($1,$2,$3,$4,$5,$6)`
	_, err := r.db.Exec(ctx, query,
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
	const query = `
        SELECT id, ticket_id, evaluator_id, score, description, created_at
        FROM evaluations WHERE ticket_id=$1`
	var evaluation domain.Evaluation
	if err := r.db.QueryRow(ctx, query, ticketID).Scan(
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
