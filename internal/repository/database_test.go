package repository_test

import (
	"strings"
	"testing"
	"time"

	"github.com/UnknownOlympus/registrar/internal/config"
	"github.com/UnknownOlympus/registrar/internal/models"
	"github.com/UnknownOlympus/registrar/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestDatabase_Integration(t *testing.T) {
	t.Parallel()
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}

	ctx := t.Context()
	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("test:pass@word"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")
	t.Cleanup(func() {
		if termErr := pgContainer.Terminate(ctx); termErr != nil {
			t.Errorf("failed to terminate postgres container: %v", termErr)
		}
	})

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	port, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dbpool, err := repository.NewDatabase(ctx, config.PostgresConfig{
		Host: host, Port: port.Port(), User: "testuser", Password: "test:pass@word", Name: "testdb",
	})
	require.NoError(t, err, "password is escaped in the connection string")
	defer dbpool.Close()

	require.NoError(t, repository.Migrate(ctx, dbpool))
	require.NoError(t, repository.Migrate(ctx, dbpool), "migrations are idempotent")

	repo := repository.NewRepository(dbpool)
	session := models.AdminSession{
		TelegramID:  1001,
		UserID:      7,
		PhoneNumber: "+77011234567",
		Tokens:      models.Tokens{AccessToken: "access", RefreshToken: "refresh"},
	}
	require.NoError(t, repo.SaveSession(ctx, session))

	stored, err := repo.GetSession(ctx, session.TelegramID)
	require.NoError(t, err)
	assert.Equal(t, session.Tokens, stored.Tokens)
	assert.Equal(t, session.UserID, stored.UserID)
	assert.False(t, stored.CreatedAt.IsZero())

	rotated := models.Tokens{AccessToken: "access-2", RefreshToken: "refresh-2"}
	require.NoError(t, repo.UpdateTokens(ctx, session.TelegramID, rotated))
	stored, err = repo.GetSession(ctx, session.TelegramID)
	require.NoError(t, err)
	assert.Equal(t, rotated, stored.Tokens)

	require.NoError(t, repo.SetLanguage(ctx, session.TelegramID, "en"))
	require.NoError(t, repo.SetLanguage(ctx, session.TelegramID, "ru"))
	language, err := repo.GetLanguage(ctx, session.TelegramID)
	require.NoError(t, err)
	assert.Equal(t, "ru", language)

	require.NoError(t, repo.DeleteSession(ctx, session.TelegramID))
	_, err = repo.GetSession(ctx, session.TelegramID)
	require.ErrorIs(t, err, repository.ErrSessionNotFound)
}

func TestNewDatabase_ParseConfigError(t *testing.T) {
	t.Parallel()
	dbpool, err := repository.NewDatabase(t.Context(), config.PostgresConfig{
		Host: "localhost", Port: "invalid-port", User: "user", Password: "pass", Name: "db",
	})

	require.Error(t, err, "Expected an error for invalid database URL, but got nil")
	require.Nil(t, dbpool, "Expected nil dbpool, got: %v", dbpool)
	require.ErrorContains(t, err, "failed to parse database config")
}

func TestNewDatabase_ConnectionError(t *testing.T) {
	t.Parallel()
	dbpool, err := repository.NewDatabase(t.Context(), config.PostgresConfig{
		Host: "nonexistent-host", Port: "5432", User: "user", Password: "pass", Name: "db",
	})

	require.Error(t, err, "Expected an error for connection failure, but got nil")
	if dbpool != nil {
		dbpool.Close()
		t.Errorf("Expected nil dbpool, got: %v", err)
	}

	expectedErr := "unable to create connection to PostgreSQL" // Error from NewWithConfig
	expectedErr2 := "failed to ping PostgreSQL DB"             // Error from Ping
	expectedErr3 := "no such host"                             // DNS error

	if !strings.Contains(err.Error(), expectedErr) &&
		!strings.Contains(err.Error(), expectedErr2) &&
		!strings.Contains(err.Error(), expectedErr3) {
		t.Errorf(
			"Expected error to contain '%s' or '%s' or '%s', got: %v",
			expectedErr,
			expectedErr2,
			expectedErr3,
			err,
		)
	}
}
