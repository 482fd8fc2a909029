package api

import (
	"net/http"
	"spidertrigger/internal/health"
	"spidertrigger/internal/observability"

	"github.com/go-chi/chi/v5"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	Triggers      Triggerer
	Containers    ContainerLister
	Metrics       *observability.Metrics
	HealthChecker *health.Checker
	APIKey        string
}

// NewRouter creates a new HTTP router with all routes configured.
func NewRouter(cfg RouterConfig) http.Handler {
	handler := NewHandler(cfg.Triggers, cfg.Containers, cfg.HealthChecker)

	r := chi.NewRouter()

	// Middleware chain, outermost first
	r.Use(RecoveryMiddleware())
	r.Use(LoggingMiddleware())
	if cfg.Metrics != nil {
		r.Use(MetricsMiddleware(cfg.Metrics))
	}
	r.Use(CORSMiddleware())
	r.Use(ServerTimingMiddleware())
	r.Use(ContentTypeMiddleware())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "route not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
	})

	// Health check endpoints (liveness/readiness probes) - no auth required
	r.Get("/livez", handler.Livez)
	r.Get("/readyz", handler.Readyz)

	// Spider endpoints - auth required
	r.Route("/v1/spiders/{spiderId}", func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.APIKey))
		r.Post("/trigger", handler.TriggerSpider)
		r.Get("/containers", handler.ListContainers)
	})

	return r
}
