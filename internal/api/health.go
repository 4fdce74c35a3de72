package api

import (
	"net/http"
	"time"

	respond "github.com/Fau-Caudullo/happyapp/internal/api/respond"
)

// ServiceHealth reports the aggregated health of the service.
type ServiceHealth interface {
	IsHealthy() bool
	Components() map[string]bool
}

// HealthHandler handles health check endpoints
type HealthHandler struct {
	health ServiceHealth
}

// NewHealthHandler creates a new health handler. A nil health reports unhealthy.
func NewHealthHandler(health ServiceHealth) *HealthHandler { return &HealthHandler{health: health} }

// CheckHealth handles GET /api/health
// Always returns 200; body reports healthy/unhealthy. 500 indicates handler failure only.
func (h *HealthHandler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	status := "unhealthy"
	components := map[string]bool{}
	if h.health != nil {
		if h.health.IsHealthy() {
			status = "healthy"
		}
		components = h.health.Components()
	}
	response := map[string]interface{}{
		"status":     status,
		"components": components,
		"timestamp":  time.Now().Format(time.RFC3339),
	}
	respond.WriteJSON(w, http.StatusOK, response)
}
