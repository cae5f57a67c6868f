package repository

import (
	"context"

	"github.com/UnknownOlympus/registrar/internal/models"
)

type Repository struct {
	db Database
}

// Interface defines the repository operations behind administrator sessions and chat preferences.
type Interface interface {
	SaveSession(ctx context.Context, session models.AdminSession) error
	GetSession(ctx context.Context, telegramID int64) (models.AdminSession, error)
	UpdateTokens(ctx context.Context, telegramID int64, tokens models.Tokens) error
	DeleteSession(ctx context.Context, telegramID int64) error
	IsAuthenticated(ctx context.Context, telegramID int64) (bool, error)
	GetLanguage(ctx context.Context, telegramID int64) (string, error)
	SetLanguage(ctx context.Context, telegramID int64, language string) error
}

// NewRepository creates a new instance of Repository with the provided Database.
// It returns a pointer to the newly created Repository.
func NewRepository(db Database) *Repository {
	return &Repository{db: db}
}
