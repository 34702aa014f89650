package domain

// Interaction is one inbound user input, already parsed into a tagged
// variant by the transport layer. The wizard dispatches on the session's
// persisted stage, not on the payload shape: a variant arriving at the wrong
// stage is rejected, never misapplied to another field.
type Interaction interface {
	isInteraction()
}

// StartEntry begins a new wizard session (the /track command).
type StartEntry struct{}

// CancelEntry abandons the active draft from any non-committed stage.
type CancelEntry struct{}

// SelectIssue picks an issue from the session's stored candidate list.
type SelectIssue struct {
	IssueID int64
}

// SelectDate picks a day as an offset from wall-clock today (0 = today,
// -1 = yesterday). Resolved at selection time, not wizard start.
type SelectDate struct {
	Offset int
}

// AddHours applies one signed duration quantum to the running total.
type AddHours struct {
	Delta float64
}

// ResetHours zeroes the running total.
type ResetHours struct{}

// FinishHours accepts the accumulated total and moves on to the comment.
type FinishHours struct{}

// SetComment stores free-form comment text verbatim.
type SetComment struct {
	Text string
}

// SkipComment submits with the configured default comment instead.
type SkipComment struct{}

// ConfirmSubmit is the final confirmation that fires the submission gate.
type ConfirmSubmit struct{}

func (StartEntry) isInteraction()    {}
func (CancelEntry) isInteraction()   {}
func (SelectIssue) isInteraction()   {}
func (SelectDate) isInteraction()    {}
func (AddHours) isInteraction()      {}
func (ResetHours) isInteraction()    {}
func (FinishHours) isInteraction()   {}
func (SetComment) isInteraction()    {}
func (SkipComment) isInteraction()   {}
func (ConfirmSubmit) isInteraction() {}

// HourQuanta are the duration increments offered while accumulating.
var HourQuanta = []float64{0.1, 0.5, 1, 2, 4, 8}
