package backend_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/UnknownOlympus/registrar/internal/client/backend"
	"github.com/UnknownOlympus/registrar/internal/models"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	mu     sync.Mutex
	tokens models.Tokens
	saved  int
	err    error
}

func (m *memoryStore) Tokens(_ context.Context) (models.Tokens, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokens, m.err
}

func (m *memoryStore) SaveTokens(_ context.Context, tokens models.Tokens) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens = tokens
	m.saved++
	return nil
}

func newTestClient(t *testing.T, handler http.Handler) *backend.Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client, err := backend.NewClient(logger, srv.URL, 5*time.Second)
	require.NoError(t, err)

	return client
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}
