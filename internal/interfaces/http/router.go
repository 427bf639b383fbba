package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/marcuskncheung/new-intel-platform-sub000/internal/infrastructure/monitoring/metrics"
	"github.com/marcuskncheung/new-intel-platform-sub000/internal/interfaces/http/handlers"
	"github.com/marcuskncheung/new-intel-platform-sub000/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the handlers and middleware making up the route
// tree.  Nil entries are skipped so tests can wire only what they exercise.
type RouterConfig struct {
	IntelHandler  *handlers.IntelHandler
	PoiHandler    *handlers.PoiHandler
	AdminHandler  *handlers.AdminHandler
	HealthHandler *handlers.HealthHandler

	LoggingMiddleware *middleware.LoggingMiddleware

	Metrics *metrics.Metrics
}

// NewRouter constructs the HTTP route tree.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	if cfg.LoggingMiddleware != nil {
		r.Use(cfg.LoggingMiddleware.Handler)
	}

	if cfg.HealthHandler != nil {
		r.Get("/healthz", cfg.HealthHandler.Liveness)
		r.Get("/readyz", cfg.HealthHandler.Readiness)
	}

	if cfg.Metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Metrics.Registry(), promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(api chi.Router) {
		if cfg.IntelHandler != nil {
			api.Post("/intel/candidates", cfg.IntelHandler.ResolveCandidates)
		}
		if cfg.PoiHandler != nil {
			api.Route("/poi", func(pr chi.Router) {
				pr.Get("/", cfg.PoiHandler.List)
				pr.Get("/{poiID}", cfg.PoiHandler.Get)
			})
		}
		if cfg.AdminHandler != nil {
			api.Post("/admin/refresh", cfg.AdminHandler.TriggerRefresh)
		}
	})

	return r
}
