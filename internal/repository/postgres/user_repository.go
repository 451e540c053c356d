package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
)

type userRepository struct {
	db DBTX
}

// Upsert inserts the user or refreshes the directory attributes of the
// existing row with the same username. The password hash is only replaced
// when a new one is supplied.
func (r *userRepository) Upsert(ctx context.Context, user *domain.User) error {
	now := time.Now().UTC()
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	const query = `
        INSERT INTO users (id, username, name, email, password_hash, source, active, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$8)
        ON CONFLICT (username) DO UPDATE SET
            name=EXCLUDED.name,
            email=EXCLUDED.email,
            password_hash=CASE WHEN EXCLUDED.password_hash <> '' THEN EXCLUDED.password_hash ELSE users.password_hash END,
            source=EXCLUDED.source,
            active=EXCLUDED.active,
            updated_at=EXCLUDED.updated_at
        RETURNING id, password_hash, created_at, updated_at`
	return mapErr(r.db.QueryRow(ctx, query,
		user.ID,
		user.Username,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Source,
		user.Active,
		now,
	).Scan(&user.ID, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt))
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	const query = `
        SELECT id, username, name, email, password_hash, source, active, created_at, updated_at
        FROM users WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	const query = `
        SELECT id, username, name, email, password_hash, source, active, created_at, updated_at
        FROM users WHERE username=$1`
	return r.fetchSingle(ctx, query, username)
}

func (r *userRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.User, error) {
	var user domain.User
	if err := r.db.QueryRow(ctx, query, arg).Scan(
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
	const query = `UPDATE users SET password_hash=$1, updated_at=$2 WHERE id=$3`
	cmd, err := r.db.Exec(ctx, query, hash, time.Now().UTC(), userID)
	if err != nil {
		return mapErr(err)
	}
	if cmd.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *userRepository) Groups(ctx context.Context, userID string) ([]string, error) {
	const query = `SELECT group_name FROM user_groups WHERE user_id=$1 ORDER BY group_name`
	rows, err := r.db.Query(ctx, query, userID)
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

// ReplaceGroups mirrors the directory's group set onto the user.
func (r *userRepository) ReplaceGroups(ctx context.Context, userID string, groups []string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM user_groups WHERE user_id=$1`, userID); err != nil {
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
	const query = `
        INSERT INTO user_groups (user_id, group_name) VALUES ($1,$2)
        ON CONFLICT (user_id, group_name) DO NOTHING`
	_, err := r.db.Exec(ctx, query, userID, group)
	return mapErr(err)
}

func (r *userRepository) RemoveGroup(ctx context.Context, userID, group string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM user_groups WHERE user_id=$1 AND group_name=$2`, userID, group)
	return mapErr(err)
}
