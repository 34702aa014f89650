package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dpogorelov/trackbot/internal/domain"
	"github.com/dpogorelov/trackbot/internal/redmine"
	"github.com/dpogorelov/trackbot/internal/service"
)

const (
	msgHelp = "I log your work time to the tracker.\n\n" +
		"/link <api-key> — connect your tracker account\n" +
		"/track — log a time entry\n" +
		"/cancel — drop the entry in progress\n" +
		"/recent — your latest logged entries\n" +
		"/status — linked account\n" +
		"/unlink — forget your key"
	msgNoActiveEntry = "No entry in progress. /track starts one."
	msgLinkUsage     = "Send your tracker API key: /link <api-key>."
	msgUnlinked      = "Your key was removed."
	msgNoRecent      = "Nothing logged yet."
)

// Bot routes inbound chat updates to the wizard and link services and
// pushes their replies back through the transport.
type Bot struct {
	wizard    service.WizardService
	linker    service.LinkService
	transport Transport
	log       *slog.Logger
}

func New(wizard service.WizardService, linker service.LinkService, transport Transport, log *slog.Logger) *Bot {
	if log == nil {
		log = slog.Default()
	}
	return &Bot{wizard: wizard, linker: linker, transport: transport, log: log}
}

// HandleUpdate processes one inbound update end to end, including the
// outbound reply. User-level rejections (wrong button, missing link) are
// answered in chat and reported as nil; the returned error means the
// update could not be served at all.
func (b *Bot) HandleUpdate(ctx context.Context, upd Update) error {
	if upd.SessionID == "" {
		return fmt.Errorf("update without session id")
	}

	if upd.Payload != "" {
		in, err := domain.ParsePayload(upd.Payload)
		if err != nil {
			// A payload this bot never issued; ignore it beyond a log line.
			b.log.Warn("unparseable payload", "session", upd.SessionID, "payload", upd.Payload)
			return nil
		}
		return b.handleInteraction(ctx, upd.SessionID, in)
	}

	if name, args, ok := command(upd.Text); ok {
		return b.handleCommand(ctx, upd.SessionID, name, args)
	}

	// Free text is only meaningful as the entry's comment. It is stored
	// verbatim; trimming is just the emptiness check.
	if strings.TrimSpace(upd.Text) == "" {
		return nil
	}
	return b.handleInteraction(ctx, upd.SessionID, domain.SetComment{Text: upd.Text})
}

func (b *Bot) handleCommand(ctx context.Context, sessionID, name, args string) error {
	switch name {
	case "track":
		return b.handleInteraction(ctx, sessionID, domain.StartEntry{})
	case "cancel":
		return b.handleInteraction(ctx, sessionID, domain.CancelEntry{})
	case "link":
		return b.handleLink(ctx, sessionID, args)
	case "unlink":
		if err := b.linker.Unlink(ctx, sessionID); err != nil {
			return b.sendFailure(ctx, sessionID, err)
		}
		return b.transport.SendNotice(ctx, sessionID, msgUnlinked)
	case "status":
		return b.handleStatus(ctx, sessionID)
	case "recent":
		return b.handleRecent(ctx, sessionID)
	default:
		return b.transport.SendNotice(ctx, sessionID, msgHelp)
	}
}

func (b *Bot) handleLink(ctx context.Context, sessionID, apiKey string) error {
	if apiKey == "" {
		return b.transport.SendNotice(ctx, sessionID, msgLinkUsage)
	}
	link, err := b.linker.Link(ctx, sessionID, apiKey)
	if err != nil {
		return b.sendFailure(ctx, sessionID, err)
	}
	return b.transport.SendNotice(ctx, sessionID, "Linked as "+link.TrackerLogin+". /track logs an entry.")
}

func (b *Bot) handleStatus(ctx context.Context, sessionID string) error {
	link, err := b.linker.Status(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return b.transport.SendNotice(ctx, sessionID, service.MsgNotLinked)
		}
		return b.sendFailure(ctx, sessionID, err)
	}
	return b.transport.SendNotice(ctx, sessionID, "Linked as "+link.TrackerLogin+".")
}

func (b *Bot) handleRecent(ctx context.Context, sessionID string) error {
	entries, err := b.wizard.Recent(ctx, sessionID, 5)
	if err != nil {
		return b.sendFailure(ctx, sessionID, err)
	}
	if len(entries) == 0 {
		return b.transport.SendNotice(ctx, sessionID, msgNoRecent)
	}
	lines := make([]string, 0, len(entries))
	for _, d := range entries {
		day := ""
		if d.SpentOn != nil {
			day = d.SpentOn.Format("2006-01-02")
		}
		lines = append(lines, fmt.Sprintf("%s — %s — %gh (#%s)", day, d.IssueName, d.Hours, d.ExternalID))
	}
	return b.transport.SendNotice(ctx, sessionID, strings.Join(lines, "\n"))
}

func (b *Bot) handleInteraction(ctx context.Context, sessionID string, in domain.Interaction) error {
	reply, err := b.wizard.Handle(ctx, sessionID, in)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInteraction) {
			if reply != nil {
				// Rejected option: the wizard re-rendered the prompt with
				// a notice, nothing in the draft changed.
				return b.sendPrompt(ctx, sessionID, reply)
			}
			// Wrong-stage input: show the current step again.
			prompt, perr := b.wizard.Prompt(ctx, sessionID)
			if perr != nil {
				return b.sendFailure(ctx, sessionID, perr)
			}
			prompt.Notice = service.MsgWrongStage
			return b.sendPrompt(ctx, sessionID, prompt)
		}
		return b.sendFailure(ctx, sessionID, err)
	}
	return b.sendPrompt(ctx, sessionID, reply)
}

// sendPrompt pushes a reply and, while the dialogue is still open, records
// which chat message shows the live prompt so the next reply edits it.
func (b *Bot) sendPrompt(ctx context.Context, sessionID string, reply *service.Reply) error {
	messageID, err := b.transport.SendPrompt(ctx, sessionID, reply)
	if err != nil {
		return fmt.Errorf("delivering prompt: %w", err)
	}
	if reply.Done || messageID == "" {
		return nil
	}
	if err := b.wizard.RecordPromptMessage(ctx, sessionID, messageID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("recording prompt message: %w", err)
	}
	return nil
}

// sendFailure answers an error in the user's language. Only transport
// failures propagate; everything else was already communicated.
func (b *Bot) sendFailure(ctx context.Context, sessionID string, err error) error {
	text, known := FailureText(err)
	if !known {
		b.log.Error("update failed", "session", sessionID, "error", err)
	}
	return b.transport.SendNotice(ctx, sessionID, text)
}

// FailureText maps a service error to the line shown to the user. The
// second return reports whether the error was a recognized user-level
// condition rather than an internal failure.
func FailureText(err error) (string, bool) {
	switch {
	case errors.Is(err, domain.ErrNotLinked):
		return service.MsgNotLinked, true
	case errors.Is(err, domain.ErrAlreadyActive):
		return service.MsgAlreadyActive, true
	case errors.Is(err, domain.ErrNotFound):
		return msgNoActiveEntry, true
	case errors.Is(err, redmine.ErrAuth):
		return service.MsgAuthFailed, true
	case errors.Is(err, redmine.ErrRemote):
		return service.MsgRemoteFailed, true
	default:
		return service.MsgGenericFailure, false
	}
}
