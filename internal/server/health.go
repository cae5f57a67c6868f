package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/UnknownOlympus/registrar/internal/client/backend"
)

type DBPinger interface {
	Ping(ctx context.Context) error
}

// BackendPinger checks the employee backend health endpoint.
type BackendPinger interface {
	Ping(ctx context.Context) error
}

type HealthChecker struct {
	db      DBPinger
	backend BackendPinger
	log     *slog.Logger
}

func NewHealthChecker(log *slog.Logger, db DBPinger, backend BackendPinger) *HealthChecker {
	return &HealthChecker{
		db:      db,
		backend: backend,
		log:     log,
	}
}

func (h *HealthChecker) ServeHTTP(writer http.ResponseWriter, req *http.Request) {
	h.log.DebugContext(req.Context(), "Performing health checks...")

	var err error
	status := make(map[string]string)
	overallStatus := http.StatusOK

	if err = h.db.Ping(req.Context()); err != nil {
		status["database"] = "unavailable"
		overallStatus = http.StatusServiceUnavailable
		h.log.WarnContext(req.Context(), "Health check failed: DB ping", "error", err)
	} else {
		status["database"] = "ok"
	}

	var apiErr *backend.APIError
	err = h.backend.Ping(req.Context())
	switch {
	case err == nil:
		status["backend"] = "ok"
	case errors.As(err, &apiErr) && apiErr.Status != 0:
		status["backend"] = "degraded"
		overallStatus = http.StatusServiceUnavailable
		h.log.WarnContext(req.Context(), "Health check failed: backend is not healthy", "status", apiErr.Status)
	default:
		status["backend"] = "unreachable"
		overallStatus = http.StatusServiceUnavailable
		h.log.WarnContext(req.Context(), "Health check failed: backend unreachable", "error", err)
	}

	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(overallStatus)
	if err = json.NewEncoder(writer).Encode(status); err != nil {
		h.log.ErrorContext(req.Context(), "Failed to write health check response", "error", err)
	}

	h.log.DebugContext(req.Context(), "Health checks completed", "status", overallStatus)
}
