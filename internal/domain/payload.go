package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Button payloads are the wire form of interactions: the wizard encodes
// them when it builds a prompt, the transport decodes whatever the chat
// platform echoes back. Free-text messages and slash commands never go
// through this codec.

const (
	payloadTrack       = "track"
	payloadCancel      = "cancel"
	payloadReset       = "reset"
	payloadHoursDone   = "hours_done"
	payloadCommentSkip = "comment_skip"
	payloadConfirm     = "confirm"

	payloadIssuePrefix = "issue:"
	payloadDatePrefix  = "date:"
	payloadDeltaPrefix = "delta:"
)

// EncodePayload renders an interaction as a button payload string.
func EncodePayload(in Interaction) string {
	switch in := in.(type) {
	case StartEntry:
		return payloadTrack
	case CancelEntry:
		return payloadCancel
	case SelectIssue:
		return payloadIssuePrefix + strconv.FormatInt(in.IssueID, 10)
	case SelectDate:
		return payloadDatePrefix + strconv.Itoa(in.Offset)
	case AddHours:
		return payloadDeltaPrefix + strconv.FormatFloat(in.Delta, 'f', -1, 64)
	case ResetHours:
		return payloadReset
	case FinishHours:
		return payloadHoursDone
	case SkipComment:
		return payloadCommentSkip
	case ConfirmSubmit:
		return payloadConfirm
	}
	return ""
}

// ParsePayload decodes a button payload back into a typed interaction.
// Unknown or malformed payloads fail with ErrInvalidInteraction.
func ParsePayload(s string) (Interaction, error) {
	switch s {
	case payloadTrack:
		return StartEntry{}, nil
	case payloadCancel:
		return CancelEntry{}, nil
	case payloadReset:
		return ResetHours{}, nil
	case payloadHoursDone:
		return FinishHours{}, nil
	case payloadCommentSkip:
		return SkipComment{}, nil
	case payloadConfirm:
		return ConfirmSubmit{}, nil
	}

	switch {
	case strings.HasPrefix(s, payloadIssuePrefix):
		id, err := strconv.ParseInt(strings.TrimPrefix(s, payloadIssuePrefix), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("payload %q: %w", s, ErrInvalidInteraction)
		}
		return SelectIssue{IssueID: id}, nil
	case strings.HasPrefix(s, payloadDatePrefix):
		offset, err := strconv.Atoi(strings.TrimPrefix(s, payloadDatePrefix))
		if err != nil {
			return nil, fmt.Errorf("payload %q: %w", s, ErrInvalidInteraction)
		}
		return SelectDate{Offset: offset}, nil
	case strings.HasPrefix(s, payloadDeltaPrefix):
		delta, err := strconv.ParseFloat(strings.TrimPrefix(s, payloadDeltaPrefix), 64)
		if err != nil {
			return nil, fmt.Errorf("payload %q: %w", s, ErrInvalidInteraction)
		}
		return AddHours{Delta: delta}, nil
	}

	return nil, fmt.Errorf("payload %q: %w", s, ErrInvalidInteraction)
}
