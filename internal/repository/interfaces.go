package repository

import (
	"context"

	"github.com/dpogorelov/trackbot/internal/domain"
)

// DraftRepo is the draft store. All operations are atomic with respect to a
// single session id; cross-session transactions are never needed.
type DraftRepo interface {
	// Create inserts a new active draft. Fails with domain.ErrAlreadyActive
	// if a non-committed draft already exists for the session.
	Create(ctx context.Context, d *domain.Draft) error

	// GetActive returns the session's non-committed draft, or
	// domain.ErrNotFound.
	GetActive(ctx context.Context, sessionID string) (*domain.Draft, error)

	// Save persists the draft's current fields. Idempotent. Refuses with
	// domain.ErrInvalidState to touch a row already persisted as committed.
	Save(ctx context.Context, d *domain.Draft) error

	// DeleteActive removes the session's non-committed draft (cancellation).
	// Fails with domain.ErrInvalidState when the session's latest draft is
	// committed, domain.ErrNotFound when there is none at all.
	DeleteActive(ctx context.Context, sessionID string) error

	// SetPromptMessage records the chat message id currently showing the
	// wizard prompt. Delivery bookkeeping only; a missing active draft is
	// not an error.
	SetPromptMessage(ctx context.Context, sessionID, messageID string) error

	// ListCommitted returns the session's committed audit rows, newest
	// first.
	ListCommitted(ctx context.Context, sessionID string, limit int) ([]*domain.Draft, error)
}

// LinkRepo stores chat-identity to tracker-credential links.
type LinkRepo interface {
	Get(ctx context.Context, sessionID string) (*domain.IdentityLink, error)
	Upsert(ctx context.Context, l *domain.IdentityLink) error
	Delete(ctx context.Context, sessionID string) error
}
