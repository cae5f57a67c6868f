package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/UnknownOlympus/registrar/internal/models"
	"github.com/jackc/pgx/v5"
)

// ErrSessionNotFound is returned when the chat has no stored administrator session.
var ErrSessionNotFound = errors.New("admin session not found")

// SaveSession stores the session of a chat, replacing the previous one.
func (r *Repository) SaveSession(ctx context.Context, session models.AdminSession) error {
	query := `
		INSERT INTO admin_sessions (telegram_id, user_id, phone_number, access_token, refresh_token)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (telegram_id) DO UPDATE SET
			user_id = EXCLUDED.user_id,
			phone_number = EXCLUDED.phone_number,
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			updated_at = now()`

	_, err := r.db.Exec(ctx, query,
		session.TelegramID,
		session.UserID,
		session.PhoneNumber,
		session.Tokens.AccessToken,
		session.Tokens.RefreshToken,
	)
	if err != nil {
		return fmt.Errorf("failed to save admin session: %w", err)
	}
	return nil
}

// GetSession returns the stored session of a chat or ErrSessionNotFound.
func (r *Repository) GetSession(ctx context.Context, telegramID int64) (models.AdminSession, error) {
	query := `
		SELECT telegram_id, user_id, phone_number, access_token, refresh_token, created_at, updated_at
		FROM admin_sessions WHERE telegram_id = $1`

	var session models.AdminSession
	err := r.db.QueryRow(ctx, query, telegramID).Scan(
		&session.TelegramID,
		&session.UserID,
		&session.PhoneNumber,
		&session.Tokens.AccessToken,
		&session.Tokens.RefreshToken,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.AdminSession{}, ErrSessionNotFound
		}
		return models.AdminSession{}, fmt.Errorf("failed to get admin session: %w", err)
	}
	return session, nil
}

// UpdateTokens replaces the token pair of an existing session.
func (r *Repository) UpdateTokens(ctx context.Context, telegramID int64, tokens models.Tokens) error {
	cmdTag, err := r.db.Exec(ctx,
		"UPDATE admin_sessions SET access_token = $1, refresh_token = $2, updated_at = now() WHERE telegram_id = $3",
		tokens.AccessToken, tokens.RefreshToken, telegramID,
	)
	if err != nil {
		return fmt.Errorf("failed to update tokens: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// DeleteSession removes the session of a chat. Deleting a missing session is not an error.
func (r *Repository) DeleteSession(ctx context.Context, telegramID int64) error {
	_, err := r.db.Exec(ctx, "DELETE FROM admin_sessions WHERE telegram_id = $1", telegramID)
	if err != nil {
		return fmt.Errorf("failed to delete admin session: %w", err)
	}
	return nil
}

// IsAuthenticated reports whether the chat has a stored session.
func (r *Repository) IsAuthenticated(ctx context.Context, telegramID int64) (bool, error) {
	var exists bool

	err := r.db.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM admin_sessions WHERE telegram_id = $1)", telegramID).
		Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check admin session: %w", err)
	}
	return exists, nil
}
