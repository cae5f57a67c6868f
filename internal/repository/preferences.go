package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// GetLanguage returns the language chosen in the chat, or an empty string if none was chosen.
func (r *Repository) GetLanguage(ctx context.Context, telegramID int64) (string, error) {
	var language string

	err := r.db.QueryRow(ctx, "SELECT language FROM chat_preferences WHERE telegram_id = $1", telegramID).
		Scan(&language)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get chat language: %w", err)
	}
	return language, nil
}

// SetLanguage stores the language chosen in the chat.
func (r *Repository) SetLanguage(ctx context.Context, telegramID int64, language string) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO chat_preferences (telegram_id, language) VALUES ($1, $2)
		ON CONFLICT (telegram_id) DO UPDATE SET language = EXCLUDED.language`,
		telegramID, language,
	)
	if err != nil {
		return fmt.Errorf("failed to set chat language: %w", err)
	}
	return nil
}
