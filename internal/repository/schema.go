package repository

import (
	"context"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS admin_sessions (
		telegram_id BIGINT PRIMARY KEY,
		user_id BIGINT NOT NULL,
		phone_number TEXT NOT NULL,
		access_token TEXT NOT NULL,
		refresh_token TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS chat_preferences (
		telegram_id BIGINT PRIMARY KEY,
		language VARCHAR(8) NOT NULL
	)`,
}

// Migrate creates the tables used by the bot. It is safe to run repeatedly.
func Migrate(ctx context.Context, db Database) error {
	for _, stmt := range schema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
