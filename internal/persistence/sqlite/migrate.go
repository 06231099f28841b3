package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// schemaMigration is a versioned batch of DDL statements. Versions must be
// strictly increasing; applied versions are recorded in schema_migrations
// and never re-run.
type schemaMigration struct {
	Version    int
	Name       string
	Statements []string
}

var schemaMigrations = []schemaMigration{
	{
		Version: 1,
		Name:    "initial schema",
		Statements: []string{
			`CREATE TABLE IF NOT EXISTS plans (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				price REAL NOT NULL DEFAULT 0,
				features TEXT NOT NULL DEFAULT '[]',
				voice_enabled INTEGER NOT NULL DEFAULT 0,
				multi_counter INTEGER NOT NULL DEFAULT 0,
				ads_enabled INTEGER NOT NULL DEFAULT 0,
				created_at TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS users (
				id TEXT PRIMARY KEY,
				email TEXT NOT NULL UNIQUE,
				password_hash TEXT NOT NULL,
				restaurant_name TEXT NOT NULL,
				logo_url TEXT,
				plan_id TEXT NOT NULL DEFAULT 'basic' REFERENCES plans(id),
				brand_color TEXT NOT NULL DEFAULT '#3b82f6',
				voice_settings TEXT,
				is_active INTEGER NOT NULL DEFAULT 1,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS counters (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				name TEXT NOT NULL,
				color TEXT NOT NULL DEFAULT '#3b82f6',
				is_active INTEGER NOT NULL DEFAULT 1,
				position INTEGER NOT NULL DEFAULT 1,
				created_at TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS commands (
				id TEXT PRIMARY KEY,
				number TEXT NOT NULL,
				message TEXT,
				user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				counter_id TEXT REFERENCES counters(id) ON DELETE SET NULL,
				status TEXT NOT NULL DEFAULT 'active'
					CHECK (status IN ('active', 'completed', 'cancelled')),
				is_announced INTEGER NOT NULL DEFAULT 0,
				priority INTEGER NOT NULL DEFAULT 0,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL,
				announced_at TEXT
			)`,
			`CREATE TABLE IF NOT EXISTS sessions (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				token TEXT NOT NULL UNIQUE,
				expires_at TEXT NOT NULL,
				created_at TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS activity_log (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				action TEXT NOT NULL,
				details TEXT NOT NULL DEFAULT '{}',
				created_at TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_commands_user_status
				ON commands(user_id, status)`,
			`CREATE INDEX IF NOT EXISTS idx_counters_user_position
				ON counters(user_id, position)`,
			`CREATE INDEX IF NOT EXISTS idx_sessions_token ON sessions(token)`,
		},
	},
	{
		Version: 2,
		Name:    "unique active command number per tenant",
		Statements: []string{
			// Backs the per-tenant "one active call per number" invariant
			// at commit time; the service still runs a friendly pre-check.
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_commands_active_number
				ON commands(user_id, number) WHERE status = 'active'`,
		},
	},
}

// Migrate applies all pending schema migrations in order.
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.sql.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TEXT NOT NULL
	)`); err != nil {
		return fmt.Errorf("initialize schema_migrations: %w", err)
	}

	var current sql.NullInt64
	if err := db.sql.QueryRowContext(ctx, `SELECT MAX(version) FROM schema_migrations`).Scan(&current); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	for _, migration := range schemaMigrations {
		if current.Valid && migration.Version <= int(current.Int64) {
			continue
		}

		err := db.withTx(ctx, func(tx *sql.Tx) error {
			for _, statement := range migration.Statements {
				if _, err := tx.ExecContext(ctx, statement); err != nil {
					return fmt.Errorf("migration %d (%s): %w", migration.Version, migration.Name, err)
				}
			}
			_, err := tx.ExecContext(ctx,
				`INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, ?)`,
				migration.Version, migration.Name, formatTime(time.Now()),
			)
			return err
		})
		if err != nil {
			return err
		}
	}

	return nil
}
