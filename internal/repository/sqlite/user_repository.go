package sqlite

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
)

const userColumns = `id, username, name, email, password_hash, source, active, created_at, updated_at`

type userRepository struct {
	db DBTX
}

func (r *userRepository) Upsert(ctx context.Context, user *domain.User) error {
	now := time.Now().UTC()
	const query = `
        INSERT INTO users (id, username, name, email, password_hash, source, active, created_at, updated_at)
        VALUES (?,?,?,?,?,?,?,?,?)
        ON CONFLICT (username) DO UPDATE SET
            name=excluded.name,
            email=excluded.email,
            password_hash=CASE WHEN excluded.password_hash <> '' THEN excluded.password_hash ELSE users.password_hash END,
            source=excluded.source,
            active=excluded.active,
            updated_at=excluded.updated_at`
	id := user.ID
	if id == "" {
		id = uuid.NewString()
	}
	if _, err := r.db.ExecContext(ctx, query,
		id,
		user.Username,
		user.Name,
		user.Email,
		user.PasswordHash,
		string(user.Source),
		user.Active,
		now,
		now,
	); err != nil {
		return mapErr(err)
	}

	stored, err := r.GetByUsername(ctx, user.Username)
	if err != nil {
		return err
	}
	*user = *stored
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.fetchSingle(ctx, `SELECT `+userColumns+` FROM users WHERE id=?`, id)
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.fetchSingle(ctx, `SELECT `+userColumns+` FROM users WHERE username=?`, username)
}

func (r *userRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.User, error) {
	var user domain.User
	if err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.Username,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Source,
		&user.Active,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, mapErr(err)
	}
	return &user, nil
}

func (r *userRepository) SetPassword(ctx context.Context, userID, hash string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET password_hash=?, updated_at=? WHERE id=?`,
		hash, time.Now().UTC(), userID)
	if err != nil {
		return mapErr(err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *userRepository) Groups(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT group_name FROM user_groups WHERE user_id=? ORDER BY group_name`, userID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	groups := []string{}
	for rows.Next() {
		var group string
		if err := rows.Scan(&group); err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}
	return groups, rows.Err()
}

func (r *userRepository) ReplaceGroups(ctx context.Context, userID string, groups []string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM user_groups WHERE user_id=?`, userID); err != nil {
		return mapErr(err)
	}
	for _, group := range groups {
		if err := r.AddGroup(ctx, userID, group); err != nil {
			return err
		}
	}
	return nil
}

func (r *userRepository) AddGroup(ctx context.Context, userID, group string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_groups (user_id, group_name) VALUES (?,?) ON CONFLICT (user_id, group_name) DO NOTHING`,
		userID, group)
	return mapErr(err)
}

func (r *userRepository) RemoveGroup(ctx context.Context, userID, group string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM user_groups WHERE user_id=? AND group_name=?`, userID, group)
	return mapErr(err)
}
