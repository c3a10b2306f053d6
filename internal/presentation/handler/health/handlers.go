package health

import (
	"context"
	"net/http"
	"time"

	"github.com/hilthontt/lobby/internal/infrastructure/json"
)

// Check probes one dependency. A nil error means healthy.
type Check func(ctx context.Context) error

type Handler struct {
	startTime time.Time
	checks    map[string]Check
}

func NewHandler(checks map[string]Check) *Handler {
	return &Handler{
		startTime: time.Now(),
		checks:    checks,
	}
}

// GetLive reports the process is up. It never consults dependencies.
func (h *Handler) GetLive(w http.ResponseWriter, r *http.Request) {
	_ = json.Write(w, http.StatusOK, h.response("ok", nil))
}

// GetHealth runs every registered check and answers 503 when any fails.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status, code := "ok", http.StatusOK
	results := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			results[name] = err.Error()
			status, code = "unhealthy", http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}

	_ = json.Write(w, code, h.response(status, results))
}

func (h *Handler) response(status string, checks map[string]string) healthResponse {
	return healthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Checks:    checks,
	}
}
