package sqlite

import (
	"testing"

	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/persistence"
)

// NewTestStore creates a migrated in-memory store that is closed when the
// test ends.
func NewTestStore(t testing.TB) *Store {
	t.Helper()

	db, err := persistence.OpenSQLiteMemory()
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := persistence.Migrate(db, config.DriverSQLite); err != nil {
		db.Close()
		t.Fatalf("failed to migrate test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return NewStore(db)
}
