/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Request logging
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. instrument: Prometheus request metrics
  5. CORS:       Cross-origin requests for a separately served frontend

ROUTE GROUPS:
  /api/catalog          Selectable stores/products and control ranges
  /api/skus/*           Per-SKU dashboard data
  /api/policy/*         Full policy table and CSV export
  /api/scenarios/*      What-if presets
  /metrics              Prometheus scrape endpoint
  /                     Server-rendered dashboard

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(instrument)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"Content-Disposition"},
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Get("/catalog", h.GetCatalog)

		r.Get("/skus/{store}/{product}", h.GetSKU)

		// Policy routes
		r.Route("/policy", func(r chi.Router) {
			r.Get("/", h.GetPolicyTable)
			r.Get("/export.csv", h.ExportPolicy)
		})

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/{id}/policy", h.GetScenarioPolicy)
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/", h.Dashboard)

	return r
}

func logf(r *http.Request, format string, args ...any) {
	if id := middleware.GetReqID(r.Context()); id != "" {
		format = "[" + id + "] " + format
	}
	log.Printf(format, args...)
}
