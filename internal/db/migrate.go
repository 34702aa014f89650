package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// Migrate runs all schema migrations. Statements are idempotent; ALTER TABLE
// additions tolerate re-runs.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS drafts (
		id                TEXT PRIMARY KEY,
		session_id        TEXT NOT NULL,
		stage             TEXT NOT NULL
		                  CHECK(stage IN ('awaiting_issue','awaiting_date','awaiting_duration',
		                                  'awaiting_comment','ready_to_submit','committed')),
		issue_id          INTEGER NOT NULL DEFAULT 0,
		issue_name        TEXT NOT NULL DEFAULT '',
		spent_on          TEXT,
		hours             REAL NOT NULL DEFAULT 0 CHECK(hours >= 0),
		comment           TEXT NOT NULL DEFAULT '',
		candidates        TEXT NOT NULL DEFAULT '[]',
		prompt_message_id TEXT NOT NULL DEFAULT '',
		committed         INTEGER NOT NULL DEFAULT 0,
		external_id       TEXT NOT NULL DEFAULT '',
		started_at        TEXT NOT NULL,
		updated_at        TEXT NOT NULL
	)`,

	// At most one non-committed draft per session; committed rows pile up
	// as the audit trail.
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_drafts_active
		ON drafts(session_id) WHERE committed = 0`,

	`CREATE INDEX IF NOT EXISTS idx_drafts_session ON drafts(session_id)`,

	`CREATE TABLE IF NOT EXISTS identity_links (
		session_id    TEXT PRIMARY KEY,
		api_key       TEXT NOT NULL,
		tracker_login TEXT NOT NULL DEFAULT '',
		linked_at     TEXT NOT NULL,
		updated_at    TEXT NOT NULL
	)`,
}
