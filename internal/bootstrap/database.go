// Package bootstrap opens the configured ticket store for the server and the
// admin CLI.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/persistence"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/internal/repository/postgres"
	"github.com/spec-kit/helpdesk/internal/repository/sqlite"
)

// Database is an open ticket store plus the *sql.DB goose migrates.
type Database struct {
	Driver string
	Store  repository.Store
	SQL    *sql.DB
	close  func()
}

// Close releases the underlying connections.
func (d *Database) Close() {
	if d != nil && d.close != nil {
		d.close()
	}
}

// Migrate applies pending migrations.
func (d *Database) Migrate() error {
	return persistence.Migrate(d.SQL, d.Driver)
}

// OpenDatabase connects to the driver selected in cfg.
func OpenDatabase(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*Database, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		sqlDB := persistence.SQLFromPool(pg.PoolHandle())
		return &Database{
			Driver: cfg.Driver,
			Store:  postgres.NewStore(pg.PoolHandle()),
			SQL:    sqlDB,
			close: func() {
				_ = sqlDB.Close()
				pg.Close()
			},
		}, nil
	case config.DriverSQLite:
		db, err := persistence.OpenSQLite(cfg.SQLitePath, logger)
		if err != nil {
			return nil, err
		}
		return &Database{
			Driver: cfg.Driver,
			Store:  sqlite.NewStore(db),
			SQL:    db,
			close:  func() { _ = db.Close() },
		}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}
