package sqlite

import (
	"context"

	"github.com/spec-kit/helpdesk/internal/domain"
)

type actionTypeRepository struct {
	db DBTX
}

func (r *actionTypeRepository) Upsert(ctx context.Context, def domain.ActionTypeDef) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO action_types (name, display_name) VALUES (?,?) ON CONFLICT (name) DO NOTHING`,
		string(def.Name), def.DisplayName)
	if err != nil {
		return false, mapErr(err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *actionTypeRepository) List(ctx context.Context) ([]domain.ActionTypeDef, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name, display_name FROM action_types ORDER BY name`)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	result := []domain.ActionTypeDef{}
	for rows.Next() {
		var def domain.ActionTypeDef
		if err := rows.Scan(&def.Name, &def.DisplayName); err != nil {
			return nil, err
		}
		result = append(result, def)
	}
	return result, rows.Err()
}
