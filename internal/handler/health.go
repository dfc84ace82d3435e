package handler

import (
	"context"
	"net/http"
)

// HealthHandler exposes liveness and readiness probes.
type HealthHandler struct {
	readiness func(context.Context) error
}

// NewHealthHandler creates the handler. The readiness check may be nil, in
// which case readiness always reports ok.
func NewHealthHandler(readiness func(context.Context) error) *HealthHandler {
	return &HealthHandler{readiness: readiness}
}

// Liveness reports a fixed healthy status.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readiness reports whether downstream dependencies are reachable.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.readiness != nil {
		if err := h.readiness(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
