package handler

import (
	"context"
	"net/http"
	"time"
)

// Pinger is a dependency that can report whether it is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Health answers liveness probes and, when dependencies are registered,
// pings each of them.
type Health struct {
	checks  map[string]Pinger
	timeout time.Duration
}

func NewHealth(checks map[string]Pinger) *Health {
	return &Health{checks: checks, timeout: 2 * time.Second}
}

func (h *Health) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if len(h.checks) == 0 {
		JSON(w, http.StatusOK, HealthResponse{Status: "ok"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	resp := HealthResponse{Status: "ok", Checks: make(map[string]string, len(h.checks))}
	status := http.StatusOK
	for name, p := range h.checks {
		if err := p.Ping(ctx); err != nil {
			resp.Checks[name] = "unavailable"
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}

	JSON(w, status, resp)
}
