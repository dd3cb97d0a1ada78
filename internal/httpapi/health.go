package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/osdpgw/gateway/pkg/gateway"
)

// HealthHandler serves liveness and readiness probes for a Gateway.
type HealthHandler struct {
	gateway   *gateway.Gateway
	startTime time.Time
}

// NewHealthHandler wraps g for HTTP health reporting.
func NewHealthHandler(g *gateway.Gateway) *HealthHandler {
	return &HealthHandler{gateway: g, startTime: time.Now()}
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Uptime    string    `json:"uptime,omitempty"`
	Readers   int       `json:"readers,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// Liveness always returns 200 as long as the process can serve HTTP.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	})
}

// Readiness reports 503 if the repository is unreachable, 200 with the
// current session count otherwise.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if err := h.gateway.Repo.Healthcheck(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{
			Status:    "unhealthy",
			Timestamp: time.Now().UTC(),
			Error:     err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Readers:   len(h.gateway.Buses.Sessions()),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
