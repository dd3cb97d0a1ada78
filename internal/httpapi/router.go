// Package httpapi is the ambient chi-routed health, readiness, and
// Prometheus metrics surface the daemon exposes alongside the OSDP bus; it
// carries no OSDP protocol traffic itself.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/osdpgw/gateway/internal/logger"
	"github.com/osdpgw/gateway/pkg/gateway"
)

// NewRouter builds the chi handler for a Gateway's ambient HTTP surface.
// metricsEnabled controls whether /metrics is mounted; health and
// readiness are always served.
func NewRouter(g *gateway.Gateway, metricsEnabled bool) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Second))

	health := NewHealthHandler(g)
	r.Route("/health", func(r chi.Router) {
		r.Get("/", health.Liveness)
		r.Get("/ready", health.Readiness)
	})

	if metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := middleware.GetReqID(r.Context())
		next.ServeHTTP(w, r)
		logger.Debug("http request",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			logger.DurationMs(float64(time.Since(start).Microseconds())/1000))
	})
}
