package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// Migrate runs all schema migrations. Every statement is idempotent so the
// full list is replayed on each open.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			// Tolerate "duplicate column name" errors from ALTER TABLE
			// since the migration system re-runs all statements.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS categories (
		id                TEXT PRIMARY KEY,
		name              TEXT NOT NULL,
		hourly_rate_cents INTEGER CHECK(hourly_rate_cents IS NULL OR hourly_rate_cents >= 0),
		updated_at        TEXT NOT NULL
	)`,

	// category_id is deliberately not a foreign key: categories belong to an
	// external catalog and may disappear independently.
	`CREATE TABLE IF NOT EXISTS tasks (
		id          TEXT PRIMARY KEY,
		user_id     TEXT NOT NULL,
		title       TEXT NOT NULL DEFAULT '',
		category_id TEXT,
		created_at  TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_tasks_user ON tasks(user_id)`,

	`CREATE TABLE IF NOT EXISTS sessions (
		id                TEXT PRIMARY KEY,
		task_id           TEXT NOT NULL,
		user_id           TEXT NOT NULL,
		category_id       TEXT,
		started_at        TEXT NOT NULL,
		ended_at          TEXT,
		hourly_rate_cents INTEGER,
		earnings_cents    INTEGER,
		is_active         INTEGER NOT NULL DEFAULT 1 CHECK(is_active IN (0, 1)),
		notes             TEXT NOT NULL DEFAULT '',
		created_at        TEXT NOT NULL,
		CHECK((ended_at IS NULL) = (is_active = 1)),
		CHECK(ended_at IS NULL OR ended_at >= started_at),
		CHECK(earnings_cents IS NULL OR (ended_at IS NOT NULL AND hourly_rate_cents IS NOT NULL))
	)`,

	// At most one active session per user.
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_sessions_one_active ON sessions(user_id) WHERE is_active = 1`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_user_ended ON sessions(user_id, ended_at)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_user_started ON sessions(user_id, started_at)`,

	`CREATE TABLE IF NOT EXISTS session_pauses (
		id         TEXT PRIMARY KEY,
		session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		paused_at  TEXT NOT NULL,
		resumed_at TEXT,
		CHECK(resumed_at IS NULL OR resumed_at >= paused_at)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_pauses_session ON session_pauses(session_id)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_pauses_one_open ON session_pauses(session_id) WHERE resumed_at IS NULL`,

	`CREATE TABLE IF NOT EXISTS ledgers (
		user_id                 TEXT PRIMARY KEY,
		target_cents            INTEGER NOT NULL DEFAULT 0,
		current_balance_cents   INTEGER NOT NULL DEFAULT 0,
		lifetime_earnings_cents INTEGER NOT NULL DEFAULT 0,
		lifetime_seconds        INTEGER NOT NULL DEFAULT 0,
		current_streak_days     INTEGER NOT NULL DEFAULT 0,
		best_streak_days        INTEGER NOT NULL DEFAULT 0,
		last_earning_date       TEXT,
		updated_at              TEXT NOT NULL
	)`,
}
