package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dpogorelov/trackbot/internal/db"
	"github.com/dpogorelov/trackbot/internal/domain"
)

// SQLiteLinkRepo implements LinkRepo against SQLite.
type SQLiteLinkRepo struct {
	db db.DBTX
}

func NewSQLiteLinkRepo(dbtx db.DBTX) *SQLiteLinkRepo {
	return &SQLiteLinkRepo{db: dbtx}
}

func (r *SQLiteLinkRepo) Get(ctx context.Context, sessionID string) (*domain.IdentityLink, error) {
	query := `SELECT session_id, api_key, tracker_login, linked_at, updated_at
		FROM identity_links WHERE session_id = ?`
	row := r.db.QueryRowContext(ctx, query, sessionID)

	var l domain.IdentityLink
	var linkedAtStr, updatedAtStr string
	err := row.Scan(&l.SessionID, &l.APIKey, &l.TrackerLogin, &linkedAtStr, &updatedAtStr)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("identity link: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("scanning identity link: %w", err)
	}

	if l.LinkedAt, err = time.Parse(time.RFC3339, linkedAtStr); err != nil {
		return nil, fmt.Errorf("parsing linked_at: %w", err)
	}
	if l.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return &l, nil
}

func (r *SQLiteLinkRepo) Upsert(ctx context.Context, l *domain.IdentityLink) error {
	l.UpdatedAt = time.Now().UTC()
	if l.LinkedAt.IsZero() {
		l.LinkedAt = l.UpdatedAt
	}

	query := `INSERT INTO identity_links (session_id, api_key, tracker_login, linked_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			api_key = excluded.api_key,
			tracker_login = excluded.tracker_login,
			updated_at = excluded.updated_at`
	_, err := r.db.ExecContext(ctx, query,
		l.SessionID,
		l.APIKey,
		l.TrackerLogin,
		l.LinkedAt.Format(time.RFC3339),
		l.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upserting identity link: %w", err)
	}
	return nil
}

func (r *SQLiteLinkRepo) Delete(ctx context.Context, sessionID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM identity_links WHERE session_id = ?`, sessionID)
	if err != nil {
		return fmt.Errorf("deleting identity link: %w", err)
	}
	return nil
}
