package testutil

import (
	"time"

	"github.com/dpogorelov/trackbot/internal/domain"
	"github.com/google/uuid"
)

// DraftOption mutates a test draft.
type DraftOption func(*domain.Draft)

func WithStage(s domain.Stage) DraftOption {
	return func(d *domain.Draft) {
		d.Stage = s
	}
}

func WithIssue(id int64, name string) DraftOption {
	return func(d *domain.Draft) {
		d.IssueID = id
		d.IssueName = name
	}
}

func WithSpentOn(t time.Time) DraftOption {
	return func(d *domain.Draft) {
		d.SpentOn = &t
	}
}

func WithHours(h float64) DraftOption {
	return func(d *domain.Draft) {
		d.Hours = h
	}
}

func WithComment(c string) DraftOption {
	return func(d *domain.Draft) {
		d.Comment = c
	}
}

func WithCandidates(refs ...domain.IssueRef) DraftOption {
	return func(d *domain.Draft) {
		d.Candidates = refs
	}
}

func WithCommitted(externalID string) DraftOption {
	return func(d *domain.Draft) {
		d.Stage = domain.StageCommitted
		d.Committed = true
		d.ExternalID = externalID
	}
}

// NewTestDraft builds a fresh draft at the issue stage for the session.
func NewTestDraft(sessionID string, opts ...DraftOption) *domain.Draft {
	now := time.Now().UTC()
	d := &domain.Draft{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Stage:     domain.StageAwaitingIssue,
		Candidates: []domain.IssueRef{
			{ID: 1, Name: "Education"},
			{ID: 2, Name: "Task 2"},
		},
		StartedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// NewTestLink builds an identity link with a verified-looking credential.
func NewTestLink(sessionID string) *domain.IdentityLink {
	now := time.Now().UTC()
	return &domain.IdentityLink{
		SessionID:    sessionID,
		APIKey:       "test-api-key-" + sessionID,
		TrackerLogin: "tester",
		LinkedAt:     now,
		UpdatedAt:    now,
	}
}
