package server_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/UnknownOlympus/registrar/internal/client/backend"
	"github.com/UnknownOlympus/registrar/internal/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockDBPinger struct {
	ShouldFail bool
}

func (m *MockDBPinger) Ping(_ context.Context) error {
	if m.ShouldFail {
		return errors.New("mock db error")
	}
	return nil
}

// newBackend starts a fake backend whose health endpoint answers with status.
func newBackend(t *testing.T, status int) *backend.Client {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/actuator/health" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"status":"UP"}`))
	}))
	t.Cleanup(srv.Close)

	return newClient(t, srv.URL)
}

func newClient(t *testing.T, url string) *backend.Client {
	t.Helper()

	client, err := backend.NewClient(slog.New(slog.NewTextHandler(io.Discard, nil)), url, time.Second)
	require.NoError(t, err)
	return client
}

func TestHealthChecker(t *testing.T) {
	t.Parallel()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	tests := []struct {
		name         string
		dbFails      bool
		backend      func(t *testing.T) server.BackendPinger
		expectedCode int
		expectedBody string
	}{
		{
			name:         "all systems ok",
			backend:      func(t *testing.T) server.BackendPinger { return newBackend(t, http.StatusOK) },
			expectedCode: http.StatusOK,
			expectedBody: `{"database":"ok", "backend":"ok"}`,
		},
		{
			name:         "database unavailable",
			dbFails:      true,
			backend:      func(t *testing.T) server.BackendPinger { return newBackend(t, http.StatusOK) },
			expectedCode: http.StatusServiceUnavailable,
			expectedBody: `{"database":"unavailable", "backend":"ok"}`,
		},
		{
			name:         "backend degraded",
			backend:      func(t *testing.T) server.BackendPinger { return newBackend(t, http.StatusServiceUnavailable) },
			expectedCode: http.StatusServiceUnavailable,
			expectedBody: `{"database":"ok", "backend":"degraded"}`,
		},
		{
			name: "backend unreachable",
			backend: func(t *testing.T) server.BackendPinger {
				srv := httptest.NewServer(http.NotFoundHandler())
				url := srv.URL
				srv.Close()
				return newClient(t, url)
			},
			expectedCode: http.StatusServiceUnavailable,
			expectedBody: `{"database":"ok", "backend":"unreachable"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			healthChecker := server.NewHealthChecker(logger, &MockDBPinger{ShouldFail: tt.dbFails}, tt.backend(t))
			req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
			rr := httptest.NewRecorder()
			healthChecker.ServeHTTP(rr, req)

			require.Equal(t, tt.expectedCode, rr.Code)
			require.JSONEq(t, tt.expectedBody, rr.Body.String())
		})
	}
}

func TestNewMux_ServesMetrics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "registrar_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	mux := server.NewMux(slog.New(slog.NewTextHandler(io.Discard, nil)), reg, &MockDBPinger{}, newBackend(t, http.StatusOK))
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "registrar_test_total 1")
}

func TestStartMonitoringServer_StopsOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- server.StartMonitoringServer(ctx, slog.New(slog.NewTextHandler(io.Discard, nil)),
			prometheus.NewRegistry(), &MockDBPinger{}, newBackend(t, http.StatusOK), 0)
	}()

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("monitoring server did not stop")
	}
}
