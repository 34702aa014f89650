package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dpogorelov/trackbot/internal/domain"
)

// Fixed-language prompt strings. Localization is out of scope; a deployment
// that needs another language swaps this table.
const (
	msgChooseIssue   = "Which issue did you work on?"
	msgChooseDate    = "Which day is this for?"
	msgChooseHours   = "Add time in hourly steps, then press Done."
	msgAskComment    = "Add a comment, or skip it."
	msgConfirm       = "Submit this entry?"
	msgCommitted     = "Logged. Tracker entry #%s."
	msgCancelled     = "Entry cancelled. /track starts a new one."
	msgUnknownOption = "That option is not on the list, pick one below."

	// MsgWrongStage is shown when an interaction does not fit the
	// dialogue's current step.
	MsgWrongStage = "That does not fit the current step."

	// MsgAlreadyActive is shown when /track arrives mid-dialogue.
	MsgAlreadyActive = "Finish or cancel your current entry first."
	// MsgNotLinked is shown when no verified credential exists.
	MsgNotLinked = "Link your tracker account first: /link <api-key>."
	// MsgAuthFailed is shown when the tracker rejects the stored key.
	MsgAuthFailed = "The tracker rejected your key. Re-link with /link, then confirm again."
	// MsgRemoteFailed is shown on transient tracker failures.
	MsgRemoteFailed = "The tracker did not accept the entry. Try confirming again."
	// MsgGenericFailure is shown when nothing more specific applies.
	MsgGenericFailure = "Something went wrong, the entry was not changed."

	btnCancel  = "Cancel"
	btnReset   = "Reset"
	btnDone    = "Done"
	btnSkip    = "Skip"
	btnConfirm = "Submit"

	defaultCommentFallback = "Logged via trackbot"
)

// draftSummary renders the fields collected so far, shown above every
// prompt so the user always sees the entry taking shape.
func draftSummary(d *domain.Draft) string {
	var lines []string
	if d.IssueName != "" {
		lines = append(lines, "Issue — "+d.IssueName)
	}
	if d.SpentOn != nil {
		lines = append(lines, "Date — "+d.SpentOn.Format("2006-01-02"))
	}
	if d.Stage == domain.StageAwaitingDuration || d.Hours > 0 ||
		d.Stage == domain.StageAwaitingComment || d.Stage == domain.StageReadyToSubmit ||
		d.Stage == domain.StageCommitted {
		lines = append(lines, "Hours — "+formatHours(d.Hours))
	}
	if d.Comment != "" {
		lines = append(lines, "Comment — "+d.Comment)
	}
	if len(lines) == 0 {
		return "Nothing collected yet."
	}
	return strings.Join(lines, "\n")
}

func formatHours(h float64) string {
	return strconv.FormatFloat(h, 'f', -1, 64)
}

func cancelRow() []Button {
	return []Button{{Label: btnCancel, Payload: domain.EncodePayload(domain.CancelEntry{})}}
}

func issuePrompt(d *domain.Draft) *Reply {
	buttons := make([][]Button, 0, len(d.Candidates)+1)
	for _, c := range d.Candidates {
		buttons = append(buttons, []Button{{
			Label:   c.Name,
			Payload: domain.EncodePayload(domain.SelectIssue{IssueID: c.ID}),
		}})
	}
	buttons = append(buttons, cancelRow())
	return &Reply{
		Text:          draftSummary(d) + "\n\n" + msgChooseIssue,
		Buttons:       buttons,
		EditMessageID: d.PromptMessageID,
	}
}

// datePrompt offers today, yesterday and the prior days of the window. The
// offsets, not the dates, travel in the payload: each one is resolved
// against wall-clock today when the user actually taps it.
func datePrompt(d *domain.Draft, windowDays int, now time.Time) *Reply {
	var buttons [][]Button
	var row []Button
	for offset := 0; offset >= -windowDays; offset-- {
		row = append(row, Button{
			Label:   dateLabel(offset, now),
			Payload: domain.EncodePayload(domain.SelectDate{Offset: offset}),
		})
		if len(row) == 2 {
			buttons = append(buttons, row)
			row = nil
		}
	}
	if len(row) > 0 {
		buttons = append(buttons, row)
	}
	buttons = append(buttons, cancelRow())
	return &Reply{
		Text:          draftSummary(d) + "\n\n" + msgChooseDate,
		Buttons:       buttons,
		EditMessageID: d.PromptMessageID,
	}
}

func dateLabel(offset int, now time.Time) string {
	switch offset {
	case 0:
		return "Today"
	case -1:
		return "Yesterday"
	}
	day := now.AddDate(0, 0, offset)
	return day.Format("Jan 2 (Mon)")
}

// durationPrompt offers the positive quanta always and each negative
// quantum only while its magnitude fits in the current total.
func durationPrompt(d *domain.Draft) *Reply {
	var row []Button
	var buttons [][]Button
	flush := func() {
		if len(row) > 0 {
			buttons = append(buttons, row)
			row = nil
		}
	}

	for _, q := range domain.HourQuanta {
		row = append(row, Button{
			Label:   "+" + formatHours(q),
			Payload: domain.EncodePayload(domain.AddHours{Delta: q}),
		})
		if len(row) == 4 {
			flush()
		}
	}
	flush()
	for _, q := range domain.HourQuanta {
		if q > d.Hours {
			continue
		}
		row = append(row, Button{
			Label:   "-" + formatHours(q),
			Payload: domain.EncodePayload(domain.AddHours{Delta: -q}),
		})
		if len(row) == 4 {
			flush()
		}
	}
	flush()

	buttons = append(buttons, []Button{
		{Label: btnReset, Payload: domain.EncodePayload(domain.ResetHours{})},
		{Label: btnDone, Payload: domain.EncodePayload(domain.FinishHours{})},
	})
	buttons = append(buttons, cancelRow())

	return &Reply{
		Text:          draftSummary(d) + "\n\n" + msgChooseHours,
		Buttons:       buttons,
		EditMessageID: d.PromptMessageID,
	}
}

func commentPrompt(d *domain.Draft) *Reply {
	return &Reply{
		Text: draftSummary(d) + "\n\n" + msgAskComment,
		Buttons: [][]Button{
			{{Label: btnSkip, Payload: domain.EncodePayload(domain.SkipComment{})}},
			cancelRow(),
		},
		AcceptsText:   true,
		EditMessageID: d.PromptMessageID,
	}
}

func confirmPrompt(d *domain.Draft) *Reply {
	return &Reply{
		Text: draftSummary(d) + "\n\n" + msgConfirm,
		Buttons: [][]Button{
			{{Label: btnConfirm, Payload: domain.EncodePayload(domain.ConfirmSubmit{})}},
			cancelRow(),
		},
		EditMessageID: d.PromptMessageID,
	}
}

func committedReply(d *domain.Draft) *Reply {
	return &Reply{
		Text:          draftSummary(d) + "\n\n" + fmt.Sprintf(msgCommitted, d.ExternalID),
		EditMessageID: d.PromptMessageID,
		Done:          true,
	}
}

func cancelledReply(messageID string) *Reply {
	return &Reply{
		Text:          msgCancelled,
		EditMessageID: messageID,
		Done:          true,
	}
}
