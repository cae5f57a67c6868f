package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	readTimeout  = 5 * time.Second
	writeTimeout = 10 * time.Second
)

// NewMux returns the monitoring routes: /healthz with the dependency checks and /metrics.
func NewMux(log *slog.Logger, gatherer prometheus.Gatherer, db DBPinger, backend BackendPinger) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/healthz", NewHealthChecker(log, db, backend))
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return mux
}

// StartMonitoringServer serves the monitoring routes on port until ctx is cancelled.
// It returns nil after a clean shutdown.
func StartMonitoringServer(
	ctx context.Context,
	log *slog.Logger,
	gatherer prometheus.Gatherer,
	db DBPinger,
	backend BackendPinger,
	port int,
) error {
	log.InfoContext(ctx, "Starting monitoring server", "port", port)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      NewMux(log, gatherer, db, backend),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), readTimeout)
		defer cancel()
		log.InfoContext(ctx, "Monitoring server shutting down.")
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shutdown monitoring server: %w", err)
		}
		return nil
	case err := <-serverErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("monitoring server failed: %w", err)
	}
}
