package bot

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/UnknownOlympus/registrar/internal/i18n"
	"github.com/UnknownOlympus/registrar/internal/metrics"
	"github.com/UnknownOlympus/registrar/internal/models"
	"github.com/UnknownOlympus/registrar/internal/repository"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

// newTestBot returns a bot without a Telegram connection, enough for rendering and state logic.
func newTestBot(t *testing.T) *Bot {
	t.Helper()

	localizer, err := i18n.NewLocalizer()
	require.NoError(t, err)

	return &Bot{
		log:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		repo:         newFakeRepo(),
		metrics:      metrics.NewMetrics(prometheus.NewRegistry()),
		stateManager: NewStateManager(),
		menus:        NewMenuBuilder(localizer),
		localizer:    localizer,
		pageSize:     10,
	}
}

var errFakeRepo = errors.New("fake repository failure")

// fakeRepo keeps sessions and languages in memory.
type fakeRepo struct {
	mu        sync.Mutex
	sessions  map[int64]models.AdminSession
	languages map[int64]string
	fail      bool
}

var _ repository.Interface = (*fakeRepo)(nil)

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		sessions:  make(map[int64]models.AdminSession),
		languages: make(map[int64]string),
	}
}

func (r *fakeRepo) SaveSession(_ context.Context, session models.AdminSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errFakeRepo
	}
	r.sessions[session.TelegramID] = session
	return nil
}

func (r *fakeRepo) GetSession(_ context.Context, telegramID int64) (models.AdminSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return models.AdminSession{}, errFakeRepo
	}
	session, ok := r.sessions[telegramID]
	if !ok {
		return models.AdminSession{}, repository.ErrSessionNotFound
	}
	return session, nil
}

func (r *fakeRepo) UpdateTokens(_ context.Context, telegramID int64, tokens models.Tokens) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errFakeRepo
	}
	session, ok := r.sessions[telegramID]
	if !ok {
		return repository.ErrSessionNotFound
	}
	session.Tokens = tokens
	r.sessions[telegramID] = session
	return nil
}

func (r *fakeRepo) DeleteSession(_ context.Context, telegramID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errFakeRepo
	}
	delete(r.sessions, telegramID)
	return nil
}

func (r *fakeRepo) IsAuthenticated(_ context.Context, telegramID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return false, errFakeRepo
	}
	_, ok := r.sessions[telegramID]
	return ok, nil
}

func (r *fakeRepo) GetLanguage(_ context.Context, telegramID int64) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return "", errFakeRepo
	}
	return r.languages[telegramID], nil
}

func (r *fakeRepo) SetLanguage(_ context.Context, telegramID int64, language string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errFakeRepo
	}
	r.languages[telegramID] = language
	return nil
}
