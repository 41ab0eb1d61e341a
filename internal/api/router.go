package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/karthik2365/data-cleaning/internal/middleware"
)

// RouterConfig holds the transport-level knobs the router needs.
type RouterConfig struct {
	CORSOrigins []string
	RateRPS     float64
	RateBurst   int
	// MetricsHandler serves GET /metrics; nil disables the route.
	MetricsHandler http.Handler
}

// NewRouter assembles the chi router: request-id, request logging, panic
// recovery, CORS, and per-client rate limiting around the API routes, plus
// the unthrottled operational endpoints.
func NewRouter(h *Handler, logger *slog.Logger, cfg RouterConfig) chi.Router {
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "X-Total-Rows", "X-Processed-Rows"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", h.Healthz)
	r.Get("/openapi.json", ServeOpenAPI)
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.RateRPS > 0 {
			r.Use(middleware.RateLimiter(middleware.RateLimitConfig{
				RequestsPerSecond: cfg.RateRPS,
				Burst:             cfg.RateBurst,
			}))
		}

		r.Post("/datasets", h.CreateDataset)
		r.Get("/transforms", h.ListTransforms)

		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", h.GetSession)
			r.Delete("/", h.DeleteSession)
			r.Post("/generate", h.Generate)
			r.Post("/approve", h.Approve)
			r.Post("/execute", h.Execute)
			r.Post("/transforms/{name}", h.ExecuteTransform)
			r.Get("/export", h.Export)
			r.Get("/audit", h.Audit)
		})
	})

	return r
}
