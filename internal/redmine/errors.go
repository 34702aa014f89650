package redmine

import "errors"

var (
	// ErrAuth indicates the API key was rejected (invalid or expired).
	// The user has to re-link before retrying.
	ErrAuth = errors.New("redmine rejected the api key")

	// ErrRemote indicates any other tracker failure: network trouble,
	// server errors, remote validation. Transient from the wizard's point
	// of view; the draft stays retryable.
	ErrRemote = errors.New("redmine request failed")
)
