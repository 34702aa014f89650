package service

import "sync"

// sessionLocks serializes wizard transitions per session id. The chat
// platform may deliver two interactions for one user back to back (a
// double-tapped button); load-validate-mutate-persist must not interleave
// for the same session. Different sessions never contend.
type sessionLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{locks: make(map[string]*sync.Mutex)}
}

// Acquire locks the session's mutex and returns the release function.
// Locks are allocated lazily and never reclaimed; the population is bounded
// by the number of distinct users.
func (l *sessionLocks) Acquire(sessionID string) func() {
	l.mu.Lock()
	m, ok := l.locks[sessionID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[sessionID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
