package domain

import "time"

// IdentityLink maps a chat session id to a tracker credential. The wizard
// only reads it; the linking flow writes it after verifying the key against
// the tracker.
type IdentityLink struct {
	SessionID    string
	APIKey       string
	TrackerLogin string
	LinkedAt     time.Time
	UpdatedAt    time.Time
}

// Valid reports whether the link carries a usable credential.
func (l *IdentityLink) Valid() bool {
	return l != nil && l.APIKey != ""
}
