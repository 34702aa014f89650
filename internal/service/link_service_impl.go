package service

import (
	"context"
	"time"

	"github.com/dpogorelov/trackbot/internal/domain"
	"github.com/dpogorelov/trackbot/internal/redmine"
	"github.com/dpogorelov/trackbot/internal/repository"
)

type linkService struct {
	links    repository.LinkRepo
	tracker  redmine.Client
	observer UseCaseObserver
	now      func() time.Time
}

// NewLinkService wires the credential-linking flow: a key is verified
// against the tracker before it is stored.
func NewLinkService(links repository.LinkRepo, tracker redmine.Client, observers ...UseCaseObserver) LinkService {
	var observer UseCaseObserver = NoopUseCaseObserver{}
	for _, o := range observers {
		if o != nil {
			observer = o
			break
		}
	}
	return &linkService{links: links, tracker: tracker, observer: observer, now: time.Now}
}

func (s *linkService) Link(ctx context.Context, sessionID, apiKey string) (*domain.IdentityLink, error) {
	start := s.now()
	link, err := s.link(ctx, sessionID, apiKey)
	s.observer.ObserveUseCase(ctx, UseCaseEvent{
		Name:      "link_credential",
		SessionID: sessionID,
		Duration:  s.now().Sub(start),
		Success:   err == nil,
		Err:       err,
	})
	return link, err
}

func (s *linkService) link(ctx context.Context, sessionID, apiKey string) (*domain.IdentityLink, error) {
	login, err := s.tracker.VerifyCredential(ctx, apiKey)
	if err != nil {
		return nil, err
	}

	link := &domain.IdentityLink{
		SessionID:    sessionID,
		APIKey:       apiKey,
		TrackerLogin: login,
	}
	if err := s.links.Upsert(ctx, link); err != nil {
		return nil, err
	}
	return link, nil
}

func (s *linkService) Status(ctx context.Context, sessionID string) (*domain.IdentityLink, error) {
	return s.links.Get(ctx, sessionID)
}

func (s *linkService) Unlink(ctx context.Context, sessionID string) error {
	return s.links.Delete(ctx, sessionID)
}
