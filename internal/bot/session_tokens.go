package bot

import (
	"context"

	"github.com/UnknownOlympus/registrar/internal/models"
	"github.com/UnknownOlympus/registrar/internal/repository"
)

// sessionTokens exposes the stored tokens of one chat to the backend client.
type sessionTokens struct {
	repo       repository.Interface
	telegramID int64
}

func (s *sessionTokens) Tokens(ctx context.Context) (models.Tokens, error) {
	session, err := s.repo.GetSession(ctx, s.telegramID)
	if err != nil {
		return models.Tokens{}, err
	}
	return session.Tokens, nil
}

func (s *sessionTokens) SaveTokens(ctx context.Context, tokens models.Tokens) error {
	return s.repo.UpdateTokens(ctx, s.telegramID, tokens)
}

// loginTokens holds the fresh token pair while the login is verified, before anything is stored.
type loginTokens struct {
	tokens models.Tokens
}

func (l *loginTokens) Tokens(context.Context) (models.Tokens, error) {
	return l.tokens, nil
}

func (l *loginTokens) SaveTokens(_ context.Context, tokens models.Tokens) error {
	l.tokens = tokens
	return nil
}
