package sessions

import (
	"context"
	"log/slog"
	"path/filepath"

	"maxbot/app/client/pg"

	"github.com/samber/do"
)

var statsFilePath = filepath.Join("data", "sessions.json")

// Service tracks qualification sessions and answers the "does a lead
// already exist for this session" question the lead gate asks.
type Service struct {
	repo Repo
}

func New(di *do.Injector) (*Service, error) {
	ctx := do.MustInvoke[context.Context](di)
	pgClient := do.MustInvoke[*pg.Client](di)

	if pgClient.Enabled() {
		repo, err := newPGRepo(ctx, pgClient.Pool)
		if err != nil {
			return nil, err
		}

		return &Service{repo: repo}, nil
	}

	repo, err := newFileRepo(statsFilePath)
	if err != nil {
		return nil, err
	}

	slog.Info("Session tracking running on file backend only")

	return &Service{repo: repo}, nil
}

// Ensure returns the user's current session, starting one on first contact.
func (s *Service) Ensure(ctx context.Context, userID int64, username, firstName string) (*Session, error) {
	session, err := s.repo.Active(ctx, userID)
	if err != nil {
		return nil, err
	}

	if session != nil {
		return session, nil
	}

	return s.repo.Start(ctx, userID, username, firstName)
}

// StartNew opens a fresh session, used on explicit conversation reset.
func (s *Service) StartNew(ctx context.Context, userID int64, username, firstName string) (*Session, error) {
	return s.repo.Start(ctx, userID, username, firstName)
}

func (s *Service) AddMessage(ctx context.Context, key string, intent string) error {
	return s.repo.AddMessage(ctx, key, intent)
}

func (s *Service) ConvertToLead(ctx context.Context, key string, leadID string) error {
	return s.repo.ConvertToLead(ctx, key, leadID)
}

// FindLead reports the lead already recorded for a session key, "" when
// none. This is the durable half of the lead gate's double check.
func (s *Service) FindLead(ctx context.Context, key string) (string, error) {
	return s.repo.FindLead(ctx, key)
}

func (s *Service) Totals(ctx context.Context) (Totals, error) {
	return s.repo.Totals(ctx)
}
