package domain

// IssueRef is a selectable tracker issue. Read-mostly: the wizard shows it
// and records the selection, it never mutates the tracker's issue.
type IssueRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
