package service

import (
	"context"

	"github.com/dpogorelov/trackbot/internal/domain"
)

// Button is one tappable option under a prompt. Payload round-trips through
// the chat platform and comes back as a button interaction.
type Button struct {
	Label   string
	Payload string
}

// Reply is the wizard's answer to one interaction: the text to show, the
// buttons to offer, and how to deliver it.
type Reply struct {
	Text    string
	Buttons [][]Button

	// Notice is an optional warning line shown above the prompt, e.g.
	// after a rejected selection.
	Notice string

	// AcceptsText marks prompts that take typed input (the comment
	// stage); transports must not guess this from the rendered text.
	AcceptsText bool

	// EditMessageID, when set, asks the transport to edit that chat
	// message in place instead of sending a new one.
	EditMessageID string

	// Done marks the end of the dialogue (committed or cancelled); the
	// transport stops tracking the prompt message afterwards.
	Done bool
}

// WizardService drives the guided time-entry dialogue. All methods are safe
// for concurrent use; interactions for one session are serialized
// internally.
type WizardService interface {
	// Handle routes one parsed interaction against the session's current
	// stage and returns the next prompt. Interactions that do not fit the
	// stage fail with domain.ErrInvalidInteraction and change nothing.
	Handle(ctx context.Context, sessionID string, in domain.Interaction) (*Reply, error)

	// Prompt re-renders the prompt for the session's current stage.
	// Idempotent; used after rejected input and when resuming after a
	// restart.
	Prompt(ctx context.Context, sessionID string) (*Reply, error)

	// RecordPromptMessage stores the chat message id showing the live
	// prompt so later replies can edit it in place.
	RecordPromptMessage(ctx context.Context, sessionID, messageID string) error

	// Recent lists the session's committed entries, newest first.
	Recent(ctx context.Context, sessionID string, limit int) ([]*domain.Draft, error)
}

// LinkService is the thin credential-linking flow: verify a key against the
// tracker, remember it for the session.
type LinkService interface {
	Link(ctx context.Context, sessionID, apiKey string) (*domain.IdentityLink, error)
	Status(ctx context.Context, sessionID string) (*domain.IdentityLink, error)
	Unlink(ctx context.Context, sessionID string) error
}
