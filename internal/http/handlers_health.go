package httpx

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	healthResponse   = `{"status":"ok"}`
	degradedResponse = `{"status":"degraded"}`
	healthTimeout    = 2 * time.Second
)

// HealthChecker reports whether a dependency is reachable.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// HealthHandlers answer readiness and liveness probes.
type HealthHandlers struct {
	// Checks are optional dependencies probed on each request; any failure yields 503.
	Checks map[string]HealthChecker
	Logger *slog.Logger
}

// Health handles GET and HEAD /healthz.
func (h *HealthHandlers) Health(w http.ResponseWriter, r *http.Request) {
	status, body := http.StatusOK, healthResponse
	if len(h.Checks) > 0 {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()
		for name, check := range h.Checks {
			if err := check.Health(ctx); err != nil {
				h.Logger.WarnContext(r.Context(), "health check failed", "dependency", name, "error", err)
				status, body = http.StatusServiceUnavailable, degradedResponse
				break
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if r.Method == http.MethodHead {
		return
	}
	// nothing more to do if the client connection is gone
	_, _ = io.WriteString(w, body)
}
