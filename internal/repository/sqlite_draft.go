package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dpogorelov/trackbot/internal/db"
	"github.com/dpogorelov/trackbot/internal/domain"
)

// SQLiteDraftRepo implements DraftRepo against SQLite. It accepts a DBTX so
// the submission gate can run the same queries inside a transaction.
type SQLiteDraftRepo struct {
	db db.DBTX
}

func NewSQLiteDraftRepo(dbtx db.DBTX) *SQLiteDraftRepo {
	return &SQLiteDraftRepo{db: dbtx}
}

const draftColumns = `id, session_id, stage, issue_id, issue_name, spent_on, hours,
	comment, candidates, prompt_message_id, committed, external_id, started_at, updated_at`

func (r *SQLiteDraftRepo) Create(ctx context.Context, d *domain.Draft) error {
	candidates, err := marshalCandidates(d.Candidates)
	if err != nil {
		return err
	}

	query := `INSERT INTO drafts (` + draftColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query,
		d.ID,
		d.SessionID,
		string(d.Stage),
		d.IssueID,
		d.IssueName,
		nullableDateToString(d.SpentOn),
		d.Hours,
		d.Comment,
		candidates,
		d.PromptMessageID,
		boolToInt(d.Committed),
		d.ExternalID,
		d.StartedAt.Format(time.RFC3339),
		d.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		// The partial unique index on (session_id) WHERE committed = 0
		// enforces one active draft per session.
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("draft for session %s: %w", d.SessionID, domain.ErrAlreadyActive)
		}
		return fmt.Errorf("inserting draft: %w", err)
	}
	return nil
}

func (r *SQLiteDraftRepo) GetActive(ctx context.Context, sessionID string) (*domain.Draft, error) {
	query := `SELECT ` + draftColumns + ` FROM drafts
		WHERE session_id = ? AND committed = 0`
	row := r.db.QueryRowContext(ctx, query, sessionID)
	return r.scanDraft(row)
}

func (r *SQLiteDraftRepo) Save(ctx context.Context, d *domain.Draft) error {
	candidates, err := marshalCandidates(d.Candidates)
	if err != nil {
		return err
	}
	d.UpdatedAt = time.Now().UTC()

	// The committed = 0 guard makes a persisted committed draft immutable:
	// the one legal write that sets the flag matches the pre-state, every
	// later write misses the row.
	query := `UPDATE drafts SET
			stage = ?, issue_id = ?, issue_name = ?, spent_on = ?, hours = ?,
			comment = ?, candidates = ?, prompt_message_id = ?, committed = ?,
			external_id = ?, updated_at = ?
		WHERE id = ? AND committed = 0`
	res, err := r.db.ExecContext(ctx, query,
		string(d.Stage),
		d.IssueID,
		d.IssueName,
		nullableDateToString(d.SpentOn),
		d.Hours,
		d.Comment,
		candidates,
		d.PromptMessageID,
		boolToInt(d.Committed),
		d.ExternalID,
		d.UpdatedAt.Format(time.RFC3339),
		d.ID,
	)
	if err != nil {
		return fmt.Errorf("updating draft: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking draft update: %w", err)
	}
	if affected == 0 {
		var committed int
		err := r.db.QueryRowContext(ctx,
			`SELECT committed FROM drafts WHERE id = ?`, d.ID).Scan(&committed)
		switch {
		case err == sql.ErrNoRows:
			return fmt.Errorf("draft %s: %w", d.ID, domain.ErrNotFound)
		case err != nil:
			return fmt.Errorf("checking draft state: %w", err)
		case intToBool(committed):
			return fmt.Errorf("draft %s: %w", d.ID, domain.ErrInvalidState)
		}
	}
	return nil
}

func (r *SQLiteDraftRepo) DeleteActive(ctx context.Context, sessionID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM drafts WHERE session_id = ? AND committed = 0`, sessionID)
	if err != nil {
		return fmt.Errorf("deleting draft: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking draft delete: %w", err)
	}
	if affected == 0 {
		var committed int
		err := r.db.QueryRowContext(ctx,
			`SELECT committed FROM drafts WHERE session_id = ?
			 ORDER BY updated_at DESC LIMIT 1`, sessionID).Scan(&committed)
		switch {
		case err == sql.ErrNoRows:
			return fmt.Errorf("draft for session %s: %w", sessionID, domain.ErrNotFound)
		case err != nil:
			return fmt.Errorf("checking draft state: %w", err)
		case intToBool(committed):
			return fmt.Errorf("draft for session %s: %w", sessionID, domain.ErrInvalidState)
		default:
			return fmt.Errorf("draft for session %s: %w", sessionID, domain.ErrNotFound)
		}
	}
	return nil
}

func (r *SQLiteDraftRepo) SetPromptMessage(ctx context.Context, sessionID, messageID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE drafts SET prompt_message_id = ? WHERE session_id = ? AND committed = 0`,
		messageID, sessionID)
	if err != nil {
		return fmt.Errorf("recording prompt message: %w", err)
	}
	return nil
}

func (r *SQLiteDraftRepo) ListCommitted(ctx context.Context, sessionID string, limit int) ([]*domain.Draft, error) {
	query := `SELECT ` + draftColumns + ` FROM drafts
		WHERE session_id = ? AND committed = 1
		ORDER BY updated_at DESC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, query, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing committed drafts: %w", err)
	}
	defer rows.Close()
	return r.scanDrafts(rows)
}

func (r *SQLiteDraftRepo) scanDraft(row *sql.Row) (*domain.Draft, error) {
	var d domain.Draft
	var stage, candidates, startedAtStr, updatedAtStr string
	var spentOn sql.NullString
	var committed int

	err := row.Scan(
		&d.ID, &d.SessionID, &stage, &d.IssueID, &d.IssueName, &spentOn, &d.Hours,
		&d.Comment, &candidates, &d.PromptMessageID, &committed, &d.ExternalID,
		&startedAtStr, &updatedAtStr,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("draft: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("scanning draft: %w", err)
	}

	return r.populateDraft(&d, stage, candidates, spentOn, startedAtStr, updatedAtStr, committed)
}

func (r *SQLiteDraftRepo) scanDrafts(rows *sql.Rows) ([]*domain.Draft, error) {
	var drafts []*domain.Draft
	for rows.Next() {
		var d domain.Draft
		var stage, candidates, startedAtStr, updatedAtStr string
		var spentOn sql.NullString
		var committed int

		err := rows.Scan(
			&d.ID, &d.SessionID, &stage, &d.IssueID, &d.IssueName, &spentOn, &d.Hours,
			&d.Comment, &candidates, &d.PromptMessageID, &committed, &d.ExternalID,
			&startedAtStr, &updatedAtStr,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning draft row: %w", err)
		}

		draft, err := r.populateDraft(&d, stage, candidates, spentOn, startedAtStr, updatedAtStr, committed)
		if err != nil {
			return nil, err
		}
		drafts = append(drafts, draft)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating drafts: %w", err)
	}
	return drafts, nil
}

func (r *SQLiteDraftRepo) populateDraft(d *domain.Draft, stage, candidates string, spentOn sql.NullString, startedAtStr, updatedAtStr string, committed int) (*domain.Draft, error) {
	if !domain.ValidStages[stage] {
		return nil, fmt.Errorf("draft %s: unknown stage %q", d.ID, stage)
	}
	d.Stage = domain.Stage(stage)
	d.Committed = intToBool(committed)
	d.SpentOn = parseNullableDate(spentOn)

	var err error
	if d.Candidates, err = unmarshalCandidates(candidates); err != nil {
		return nil, fmt.Errorf("draft %s: %w", d.ID, err)
	}
	if d.StartedAt, err = time.Parse(time.RFC3339, startedAtStr); err != nil {
		return nil, fmt.Errorf("parsing started_at: %w", err)
	}
	if d.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return d, nil
}
