package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/mememage/mememage/internal/handler/dto"
)

// ServiceName is reported by the health endpoint.
const ServiceName = "mememage-api"

// readyTimeout bounds dependency checks on /readyz.
const readyTimeout = 5 * time.Second

// HealthChecker defines an interface for checking service health.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// HealthHandler manages health check endpoints.
type HealthHandler struct {
	version string
	db      HealthChecker
	events  HealthChecker
	logger  *slog.Logger
}

// NewHealthHandler creates a new HealthHandler.
// Pass nil for events when no stream is configured.
func NewHealthHandler(version string, db, events HealthChecker, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		version: version,
		db:      db,
		events:  events,
		logger:  logger.With("component", "handler.health"),
	}
}

// ReadinessResponse represents the readiness probe response.
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Health reports that the API is up.
// GET /api/health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, dto.HealthResponse{
		Status:  "ok",
		Service: ServiceName,
		Version: h.version,
	})
}

// Healthz is a liveness probe. It performs no dependency checks.
// GET /healthz
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ReadinessResponse{Status: "ok"})
}

// Readyz checks every dependency and returns 200 only if all are healthy.
// Failure details are logged, not returned.
// GET /readyz
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	checks := make(map[string]string)
	healthy := h.check(ctx, checks, "postgres", h.db)
	healthy = h.check(ctx, checks, "redis", h.events) && healthy

	status := "ok"
	statusCode := http.StatusOK
	if !healthy {
		status = "unhealthy"
		statusCode = http.StatusServiceUnavailable
	}

	writeJSON(w, statusCode, ReadinessResponse{Status: status, Checks: checks})
}

func (h *HealthHandler) check(ctx context.Context, checks map[string]string, name string, checker HealthChecker) bool {
	if checker == nil {
		checks[name] = "not configured"
		return true
	}
	if err := checker.Ping(ctx); err != nil {
		h.logger.Warn("readiness check failed", slog.String("dependency", name), slog.String("error", err.Error()))
		checks[name] = "error"
		return false
	}
	checks[name] = "ok"
	return true
}
