package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/roombooking/internal/persistence/docstore"
	"github.com/example/roombooking/internal/persistence/sqlstore"
)

// SQLiteHarness provides repositories backed by a migrated temporary SQLite
// database.
type SQLiteHarness struct {
	DB          *sqlstore.DB
	Documents   *docstore.Repository
	Credentials *sqlstore.CredentialRepository
	Sessions    *sqlstore.SessionRepository
}

// Close releases the database. It is also registered with tb.Cleanup.
func (h *SQLiteHarness) Close() {
	if h != nil && h.DB != nil {
		_ = h.DB.Close()
		h.DB = nil
	}
}

// Deps returns service dependencies backed by the harness database.
func (h *SQLiteHarness) Deps() ServiceDeps {
	return ServiceDeps{Users: h.Documents, Rooms: h.Documents, Bookings: h.Documents}
}

// NewSQLiteHarness opens and migrates a database in a temporary directory.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	ctx := context.Background()
	db, err := sqlstore.Open(ctx, sqlstore.TempFileTestConfig(filepath.Join(tb.TempDir(), "roombooking.db")))
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}
	if _, err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		tb.Fatalf("failed to migrate storage: %v", err)
	}

	harness := &SQLiteHarness{
		DB:          db,
		Documents:   docstore.NewRepository(sqlstore.NewDocumentStore(db)),
		Credentials: sqlstore.NewCredentialRepository(db),
		Sessions:    sqlstore.NewSessionRepository(db),
	}
	tb.Cleanup(harness.Close)
	return harness
}
