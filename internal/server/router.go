// Package server exposes the service's HTTP surface: health probes, metrics
// and a small admin API for triggering syncs and inspecting collections.
package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/storesync/typesync/pkg/health"
	"github.com/storesync/typesync/pkg/middleware"
)

// NewRouter creates a chi router with all routes registered. Sync runs can
// outlive an admin request's patience, so the sync routes carry a longer
// timeout than the rest.
func NewRouter(
	syncHandler *SyncHandler,
	healthHandler *health.Handler,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("typesync"))

	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(chimw.Timeout(30 * time.Minute))
			r.Post("/sync", syncHandler.SyncAll)
			r.Post("/sync/{type}", syncHandler.Sync)
		})

		r.Group(func(r chi.Router) {
			r.Use(chimw.Timeout(30 * time.Second))
			r.Get("/collections", syncHandler.Collections)
		})
	})

	return r
}
