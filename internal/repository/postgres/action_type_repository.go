package postgres

import (
	"context"

	"github.com/spec-kit/helpdesk/internal/domain"
)

type actionTypeRepository struct {
	db DBTX
}

// Upsert inserts def when absent and reports whether a row was created.
func (r *actionTypeRepository) Upsert(ctx context.Context, def domain.ActionTypeDef) (bool, error) {
	const query = `
        INSERT INTO action_types (name, display_name) VALUES ($1,$2)
        ON CONFLICT (name) DO NOTHING`
	cmd, err := r.db.Exec(ctx, query, def.Name, def.DisplayName)
	if err != nil {
		return false, mapErr(err)
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *actionTypeRepository) List(ctx context.Context) ([]domain.ActionTypeDef, error) {
	rows, err := r.db.Query(ctx, `SELECT name, display_name FROM action_types ORDER BY name`)
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
