package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dpogorelov/trackbot/internal/db"
	"github.com/dpogorelov/trackbot/internal/domain"
	"github.com/dpogorelov/trackbot/internal/redmine"
	"github.com/dpogorelov/trackbot/internal/repository"
	"github.com/google/uuid"
)

// WizardConfig carries the deployment knobs of the dialogue.
type WizardConfig struct {
	// GeneralIssues are always offered, ahead of the tracker's open
	// issues. They double as the fallback when the tracker is down.
	GeneralIssues []domain.IssueRef

	// DateWindowDays is how many days before today the date menu reaches.
	DateWindowDays int

	// DefaultComment is stored when the user skips the comment.
	DefaultComment string
}

func (c WizardConfig) withDefaults() WizardConfig {
	if c.DateWindowDays <= 0 {
		c.DateWindowDays = 7
	}
	if c.DefaultComment == "" {
		c.DefaultComment = defaultCommentFallback
	}
	return c
}

type wizardService struct {
	drafts   repository.DraftRepo
	links    repository.LinkRepo
	tracker  redmine.Client
	uow      db.UnitOfWork
	cfg      WizardConfig
	locks    *sessionLocks
	observer UseCaseObserver
	now      func() time.Time
}

// NewWizardService wires the dialogue state machine over its stores and the
// tracker client.
func NewWizardService(drafts repository.DraftRepo, links repository.LinkRepo, tracker redmine.Client, uow db.UnitOfWork, cfg WizardConfig, observers ...UseCaseObserver) WizardService {
	var observer UseCaseObserver = NoopUseCaseObserver{}
	for _, o := range observers {
		if o != nil {
			observer = o
			break
		}
	}
	return &wizardService{
		drafts:   drafts,
		links:    links,
		tracker:  tracker,
		uow:      uow,
		cfg:      cfg.withDefaults(),
		locks:    newSessionLocks(),
		observer: observer,
		now:      time.Now,
	}
}

func (s *wizardService) Handle(ctx context.Context, sessionID string, in domain.Interaction) (*Reply, error) {
	release := s.locks.Acquire(sessionID)
	defer release()

	start := s.now()
	reply, err := s.dispatch(ctx, sessionID, in)
	s.observer.ObserveUseCase(ctx, UseCaseEvent{
		Name:      interactionName(in),
		SessionID: sessionID,
		Duration:  s.now().Sub(start),
		Success:   err == nil,
		Err:       err,
	})
	return reply, err
}

func (s *wizardService) Prompt(ctx context.Context, sessionID string) (*Reply, error) {
	release := s.locks.Acquire(sessionID)
	defer release()

	draft, err := s.drafts.GetActive(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.promptFor(draft), nil
}

func (s *wizardService) RecordPromptMessage(ctx context.Context, sessionID, messageID string) error {
	return s.drafts.SetPromptMessage(ctx, sessionID, messageID)
}

func (s *wizardService) Recent(ctx context.Context, sessionID string, limit int) ([]*domain.Draft, error) {
	return s.drafts.ListCommitted(ctx, sessionID, limit)
}

// dispatch is the session router: entry and cancel work from any state,
// everything else is validated against the persisted stage.
func (s *wizardService) dispatch(ctx context.Context, sessionID string, in domain.Interaction) (*Reply, error) {
	switch in.(type) {
	case domain.StartEntry:
		return s.startEntry(ctx, sessionID)
	case domain.CancelEntry:
		return s.cancelEntry(ctx, sessionID)
	}

	draft, err := s.drafts.GetActive(ctx, sessionID)
	if err != nil {
		if _, confirm := in.(domain.ConfirmSubmit); confirm && errors.Is(err, domain.ErrNotFound) {
			// A re-tapped Submit after the draft already committed (or a
			// duplicate delivery): answer with the stored outcome, never
			// with a second external write.
			if committed, lerr := s.drafts.ListCommitted(ctx, sessionID, 1); lerr == nil && len(committed) == 1 {
				return committedReply(committed[0]), nil
			}
		}
		return nil, err
	}
	return s.advance(ctx, draft, in)
}

func (s *wizardService) startEntry(ctx context.Context, sessionID string) (*Reply, error) {
	// An in-flight draft refuses a second /track before any credential
	// or tracker work happens; the unique index backstops the race.
	if _, err := s.drafts.GetActive(ctx, sessionID); err == nil {
		return nil, domain.ErrAlreadyActive
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	link, err := s.credential(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	candidates, err := s.buildCandidates(ctx, link.APIKey)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	draft := &domain.Draft{
		ID:         uuid.New().String(),
		SessionID:  sessionID,
		Stage:      domain.StageAwaitingIssue,
		Candidates: candidates,
		StartedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.drafts.Create(ctx, draft); err != nil {
		return nil, err
	}
	return issuePrompt(draft), nil
}

// buildCandidates assembles the issue list shown for this session: the
// configured general issues first, then the user's open issues from the
// tracker. When the tracker is unreachable the general list alone serves as
// the static fallback.
func (s *wizardService) buildCandidates(ctx context.Context, apiKey string) ([]domain.IssueRef, error) {
	candidates := make([]domain.IssueRef, 0, len(s.cfg.GeneralIssues))
	seen := make(map[int64]bool)
	for _, ref := range s.cfg.GeneralIssues {
		if !seen[ref.ID] {
			candidates = append(candidates, ref)
			seen[ref.ID] = true
		}
	}

	open, err := s.tracker.ListOpenIssues(ctx, apiKey)
	if err != nil {
		if errors.Is(err, redmine.ErrAuth) {
			return nil, err
		}
		if len(candidates) == 0 {
			return nil, err
		}
		return candidates, nil
	}
	for _, ref := range open {
		if !seen[ref.ID] {
			candidates = append(candidates, ref)
			seen[ref.ID] = true
		}
	}
	return candidates, nil
}

func (s *wizardService) cancelEntry(ctx context.Context, sessionID string) (*Reply, error) {
	draft, err := s.drafts.GetActive(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := s.drafts.DeleteActive(ctx, sessionID); err != nil {
		return nil, err
	}
	return cancelledReply(draft.PromptMessageID), nil
}

// advance applies one interaction to the draft's current stage. The draft is
// persisted before the returned prompt reaches the user, so re-displaying
// a prompt after a crash never repeats a transition.
func (s *wizardService) advance(ctx context.Context, draft *domain.Draft, in domain.Interaction) (*Reply, error) {
	switch draft.Stage {
	case domain.StageAwaitingIssue:
		sel, ok := in.(domain.SelectIssue)
		if !ok {
			return nil, s.wrongStage(draft, in)
		}
		ref, ok := draft.CandidateByID(sel.IssueID)
		if !ok {
			// Not on the list the user was shown: reject and re-prompt.
			reply := issuePrompt(draft)
			reply.Notice = msgUnknownOption
			return reply, domain.ErrInvalidInteraction
		}
		draft.IssueID = ref.ID
		draft.IssueName = ref.Name
		draft.Stage = domain.StageAwaitingDate
		if err := s.drafts.Save(ctx, draft); err != nil {
			return nil, err
		}
		return datePrompt(draft, s.cfg.DateWindowDays, s.now()), nil

	case domain.StageAwaitingDate:
		sel, ok := in.(domain.SelectDate)
		if !ok {
			return nil, s.wrongStage(draft, in)
		}
		if sel.Offset > 0 || sel.Offset < -s.cfg.DateWindowDays {
			reply := datePrompt(draft, s.cfg.DateWindowDays, s.now())
			reply.Notice = msgUnknownOption
			return reply, domain.ErrInvalidInteraction
		}
		// Offsets count from today at selection time, not wizard start.
		day := s.now().AddDate(0, 0, sel.Offset)
		spentOn := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
		draft.SpentOn = &spentOn
		draft.Stage = domain.StageAwaitingDuration
		if err := s.drafts.Save(ctx, draft); err != nil {
			return nil, err
		}
		return durationPrompt(draft), nil

	case domain.StageAwaitingDuration:
		switch in := in.(type) {
		case domain.AddHours:
			if !validQuantum(in.Delta) {
				reply := durationPrompt(draft)
				reply.Notice = msgUnknownOption
				return reply, domain.ErrInvalidInteraction
			}
			draft.ApplyHoursDelta(in.Delta)
		case domain.ResetHours:
			draft.ResetHours()
		case domain.FinishHours:
			// Zero hours is a legal logged duration.
			draft.Stage = domain.StageAwaitingComment
		default:
			return nil, s.wrongStage(draft, in)
		}
		if err := s.drafts.Save(ctx, draft); err != nil {
			return nil, err
		}
		if draft.Stage == domain.StageAwaitingComment {
			return commentPrompt(draft), nil
		}
		return durationPrompt(draft), nil

	case domain.StageAwaitingComment:
		switch in := in.(type) {
		case domain.SetComment:
			draft.Comment = in.Text
		case domain.SkipComment:
			draft.Comment = s.cfg.DefaultComment
		default:
			return nil, s.wrongStage(draft, in)
		}
		draft.Stage = domain.StageReadyToSubmit
		if err := s.drafts.Save(ctx, draft); err != nil {
			return nil, err
		}
		return confirmPrompt(draft), nil

	case domain.StageReadyToSubmit:
		if _, ok := in.(domain.ConfirmSubmit); !ok {
			return nil, s.wrongStage(draft, in)
		}
		return s.commit(ctx, draft)
	}

	return nil, fmt.Errorf("draft %s in stage %s: %w", draft.ID, draft.Stage, domain.ErrInvalidState)
}

// commit is the submission gate: at most one external write per draft,
// guarded by the persisted committed flag.
func (s *wizardService) commit(ctx context.Context, draft *domain.Draft) (*Reply, error) {
	if draft.Committed {
		// Re-confirmation of an already-committed draft: no second
		// external write, just the stored outcome.
		return committedReply(draft), nil
	}

	if draft.SpentOn == nil {
		return nil, fmt.Errorf("draft %s ready to submit without a date: %w", draft.ID, domain.ErrInvalidState)
	}

	link, err := s.credential(ctx, draft.SessionID)
	if err != nil {
		return nil, err
	}

	externalID, err := s.tracker.CreateTimeEntry(ctx, link.APIKey, redmine.TimeEntry{
		IssueID: draft.IssueID,
		SpentOn: *draft.SpentOn,
		Hours:   draft.Hours,
		Comment: draft.Comment,
	})
	if err != nil {
		// Draft untouched: still ready_to_submit, committed false, so the
		// user's next confirmation is a fresh single attempt.
		return nil, err
	}

	draft.Stage = domain.StageCommitted
	draft.Committed = true
	draft.ExternalID = externalID
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return repository.NewSQLiteDraftRepo(tx).Save(ctx, draft)
	})
	if err != nil {
		return nil, err
	}
	return committedReply(draft), nil
}

func (s *wizardService) credential(ctx context.Context, sessionID string) (*domain.IdentityLink, error) {
	link, err := s.links.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotLinked
		}
		return nil, err
	}
	if !link.Valid() {
		return nil, domain.ErrNotLinked
	}
	return link, nil
}

func (s *wizardService) promptFor(draft *domain.Draft) *Reply {
	switch draft.Stage {
	case domain.StageAwaitingIssue:
		return issuePrompt(draft)
	case domain.StageAwaitingDate:
		return datePrompt(draft, s.cfg.DateWindowDays, s.now())
	case domain.StageAwaitingDuration:
		return durationPrompt(draft)
	case domain.StageAwaitingComment:
		return commentPrompt(draft)
	default:
		return confirmPrompt(draft)
	}
}

func (s *wizardService) wrongStage(draft *domain.Draft, in domain.Interaction) error {
	return fmt.Errorf("%s at stage %s: %w", interactionName(in), draft.Stage, domain.ErrInvalidInteraction)
}

func validQuantum(delta float64) bool {
	if delta < 0 {
		delta = -delta
	}
	for _, q := range domain.HourQuanta {
		if delta == q {
			return true
		}
	}
	return false
}

func interactionName(in domain.Interaction) string {
	switch in.(type) {
	case domain.StartEntry:
		return "wizard_start"
	case domain.CancelEntry:
		return "wizard_cancel"
	case domain.SelectIssue:
		return "wizard_select_issue"
	case domain.SelectDate:
		return "wizard_select_date"
	case domain.AddHours:
		return "wizard_add_hours"
	case domain.ResetHours:
		return "wizard_reset_hours"
	case domain.FinishHours:
		return "wizard_finish_hours"
	case domain.SetComment:
		return "wizard_set_comment"
	case domain.SkipComment:
		return "wizard_skip_comment"
	case domain.ConfirmSubmit:
		return "wizard_confirm"
	}
	return "wizard_unknown"
}
