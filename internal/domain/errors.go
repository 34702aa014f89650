package domain

import "errors"

var (
	// ErrInvalidInteraction means the input does not fit the session's
	// current stage. The prompt is re-shown; nothing changes.
	ErrInvalidInteraction = errors.New("interaction does not match current stage")

	// ErrAlreadyActive means an entry command arrived while a non-committed
	// draft already exists for the session.
	ErrAlreadyActive = errors.New("an entry is already in progress")

	// ErrNotFound means no draft exists for the session. Treated as an
	// already-cancelled session.
	ErrNotFound = errors.New("not found")

	// ErrNotLinked means the session has no verified tracker credential.
	ErrNotLinked = errors.New("chat identity is not linked to the tracker")

	// ErrInvalidState means an attempted mutation of a committed draft.
	// A programming-level error: logged and rejected, never recovered.
	ErrInvalidState = errors.New("draft is already committed")
)
