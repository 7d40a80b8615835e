package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

type HealthStatus string

const (
	HealthHealthy   HealthStatus = "healthy"
	HealthUnhealthy HealthStatus = "unhealthy"
	HealthDisabled  HealthStatus = "disabled"
)

type HealthResponse struct {
	Status     HealthStatus          `json:"status"`
	CheckedAt  time.Time             `json:"checked_at"`
	Components map[string]CheckEntry `json:"components"`
}

type CheckEntry struct {
	Status     HealthStatus `json:"status"`
	Message    string       `json:"message,omitempty"`
	CheckedAt  time.Time    `json:"checked_at"`
	DurationMs int64        `json:"duration_ms"`
}

// Pinger is satisfied by *sql.DB, *sqlx.DB and the redis cache.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PingFunc adapts a plain ping function such as redis' Ping.
type PingFunc func(ctx context.Context) error

func (f PingFunc) PingContext(ctx context.Context) error { return f(ctx) }

type HealthHandler struct {
	components map[string]Pinger
}

// NewHealthHandler checks every named component. A nil pinger is reported as
// disabled and does not fail the check.
func NewHealthHandler(components map[string]Pinger) *HealthHandler {
	return &HealthHandler{components: components}
}

func (h *HealthHandler) pingHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "OK"})
}

func (h *HealthHandler) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := HealthResponse{
		Status:     HealthHealthy,
		Components: make(map[string]CheckEntry, len(h.components)),
	}
	for name, pinger := range h.components {
		entry := check(ctx, pinger)
		if entry.Status == HealthUnhealthy {
			resp.Status = HealthUnhealthy
		}
		resp.Components[name] = entry
	}
	resp.CheckedAt = time.Now()

	statusCode := http.StatusOK
	if resp.Status == HealthUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(resp)
}

func check(ctx context.Context, pinger Pinger) CheckEntry {
	start := time.Now()
	if pinger == nil {
		return CheckEntry{Status: HealthDisabled, CheckedAt: start}
	}

	entry := CheckEntry{Status: HealthHealthy}
	if err := pinger.PingContext(ctx); err != nil {
		entry.Status = HealthUnhealthy
		entry.Message = err.Error()
	}
	entry.CheckedAt = time.Now()
	entry.DurationMs = time.Since(start).Milliseconds()
	return entry
}
