package handlers

import (
	"net/http"

	"github.com/marmos91/sharegate/pkg/registry"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	registry *registry.Registry
}

// NewHealthHandler creates a new health handler. registry may be nil, in
// which case readiness fails.
func NewHealthHandler(registry *registry.Registry) *HealthHandler {
	return &HealthHandler{registry: registry}
}

// Liveness handles GET /health. It succeeds as long as the server answers.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthyResponse(map[string]string{
		"service": "sharegate",
	}))
}

// Readiness handles GET /health/ready: 200 once at least one backend is
// registered, 503 otherwise. Remote hosts are not probed; they are chosen
// per request.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.registry == nil {
		writeJSON(w, http.StatusServiceUnavailable, unhealthyResponse("registry not initialized"))
		return
	}

	if h.registry.CountBackends() == 0 {
		writeJSON(w, http.StatusServiceUnavailable, unhealthyResponse("no backends registered"))
		return
	}

	writeJSON(w, http.StatusOK, healthyResponse(map[string]interface{}{
		"backends":  h.registry.ListSchemes(),
		"bookmarks": len(h.registry.ListBookmarks()),
	}))
}
