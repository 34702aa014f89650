package domain

import "time"

// Draft is one user's in-progress (or committed) time entry. Exactly one
// non-committed draft may exist per session at a time; committed drafts are
// kept as immutable audit rows.
type Draft struct {
	ID        string
	SessionID string
	Stage     Stage

	IssueID   int64
	IssueName string
	SpentOn   *time.Time
	Hours     float64
	Comment   string

	// Candidates is the issue list the user was shown when the wizard
	// started. Selections resolve against this list, never against a
	// recomputed one.
	Candidates []IssueRef

	// PromptMessageID is the chat message currently showing the wizard
	// prompt, edited in place as the draft advances.
	PromptMessageID string

	Committed  bool
	ExternalID string

	StartedAt time.Time
	UpdatedAt time.Time
}

// ApplyHoursDelta adds a signed duration quantum to the running total,
// clamping at zero. The presentation layer only offers negative quanta with
// magnitude at most the current total, but the clamp holds regardless.
func (d *Draft) ApplyHoursDelta(delta float64) {
	d.Hours += delta
	if d.Hours < 0 {
		d.Hours = 0
	}
}

// ResetHours sets the running total back to exactly zero.
func (d *Draft) ResetHours() {
	d.Hours = 0
}

// CandidateByID resolves an issue id against the stored candidate list.
func (d *Draft) CandidateByID(id int64) (IssueRef, bool) {
	for _, c := range d.Candidates {
		if c.ID == id {
			return c, true
		}
	}
	return IssueRef{}, false
}
