// Package postgres implements the ticket store on PostgreSQL with pgx.
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk/internal/repository"
)

// DBTX is satisfied by *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store is the pgx-backed repository.Store.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wraps pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Repos returns repositories bound to the pool.
func (s *Store) Repos() repository.Repositories {
	return newRepositories(s.pool)
}

// WithinTx runs fn in a transaction, committing on nil and rolling back otherwise.
func (s *Store) WithinTx(ctx context.Context, fn func(repository.Repositories) error) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(newRepositories(tx))
	})
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.pool == nil {
		return errors.New("postgres pool not configured")
	}
	return s.pool.Ping(ctx)
}

// Close is a no-op; the pool is owned by persistence.Postgres.
func (s *Store) Close() error {
	return nil
}

func newRepositories(db DBTX) repository.Repositories {
	return repository.Repositories{
		Users:       &userRepository{db: db},
		Categories:  &categoryRepository{db: db},
		ActionTypes: &actionTypeRepository{db: db},
		Tickets:     &ticketRepository{db: db},
		Comments:    &commentRepository{db: db},
		Attachments: &attachmentRepository{db: db},
		Evaluations: &evaluationRepository{db: db},
		ActionLogs:  &actionLogRepository{db: db},
	}
}

const uniqueViolation = "23505"

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return repository.ErrDuplicate
	}
	return err
}
