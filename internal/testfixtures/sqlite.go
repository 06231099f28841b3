package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/callboard/internal/persistence"
	"github.com/example/callboard/internal/persistence/sqlite"
)

// SQLiteHarness provides repository access backed by a temporary SQLite
// database for integration-style persistence tests. The plan catalog is
// seeded so user rows can reference it immediately.
type SQLiteHarness struct {
	DB       *sqlite.DB
	Users    persistence.UserRepository
	Plans    persistence.PlanRepository
	Counters persistence.CounterRepository
	Commands persistence.CommandRepository
	Sessions persistence.SessionRepository
	Activity persistence.ActivityRepository

	cleanup func()
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness constructs a SQLiteHarness using a temporary file that is
// migrated and seeded automatically. Callers may optionally invoke Close, but
// the helper also registers a cleanup callback with the provided testing.TB.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	dir := tb.TempDir()
	path := filepath.Join(dir, "callboard.db")

	db, err := sqlite.Open(path)
	if err != nil {
		tb.Fatalf("failed to open database: %v", err)
	}

	ctx := context.Background()
	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		tb.Fatalf("failed to migrate database: %v", err)
	}
	if err := db.SeedPlans(ctx); err != nil {
		_ = db.Close()
		tb.Fatalf("failed to seed plan catalog: %v", err)
	}

	harness := &SQLiteHarness{
		DB:       db,
		Users:    sqlite.NewUserRepository(db),
		Plans:    sqlite.NewPlanRepository(db),
		Counters: sqlite.NewCounterRepository(db),
		Commands: sqlite.NewCommandRepository(db),
		Sessions: sqlite.NewSessionRepository(db),
		Activity: sqlite.NewActivityRepository(db),
		cleanup: func() {
			_ = db.Close()
		},
	}

	tb.Cleanup(harness.Close)
	return harness
}
