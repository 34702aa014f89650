package domain

// Stage is the wizard position persisted with each draft. Stages advance in
// strict linear order with no skipping and no going backward; cancellation
// deletes the draft rather than recording a stage.
type Stage string

const (
	StageAwaitingIssue    Stage = "awaiting_issue"
	StageAwaitingDate     Stage = "awaiting_date"
	StageAwaitingDuration Stage = "awaiting_duration"
	StageAwaitingComment  Stage = "awaiting_comment"
	StageReadyToSubmit    Stage = "ready_to_submit"
	StageCommitted        Stage = "committed"
)

// ValidStages is the canonical set of accepted stage strings.
var ValidStages = map[string]bool{
	"awaiting_issue":    true,
	"awaiting_date":     true,
	"awaiting_duration": true,
	"awaiting_comment":  true,
	"ready_to_submit":   true,
	"committed":         true,
}

// Next returns the stage that follows s in the wizard order.
func (s Stage) Next() Stage {
	switch s {
	case StageAwaitingIssue:
		return StageAwaitingDate
	case StageAwaitingDate:
		return StageAwaitingDuration
	case StageAwaitingDuration:
		return StageAwaitingComment
	case StageAwaitingComment:
		return StageReadyToSubmit
	case StageReadyToSubmit:
		return StageCommitted
	}
	return s
}

// Terminal reports whether no further transitions are possible.
func (s Stage) Terminal() bool {
	return s == StageCommitted
}
