// Package api assembles the WeatherWise HTTP API.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/klauspost/compress/gzhttp"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/weatherwise/weatherwise/internal/api/handler"
	"github.com/weatherwise/weatherwise/internal/api/middleware"
	"github.com/weatherwise/weatherwise/internal/api/response"
	"github.com/weatherwise/weatherwise/internal/provider/resilience"
)

// DefaultRateLimitPerMinute applies when RouterConfig.RateLimitPerMinute is zero.
const DefaultRateLimitPerMinute = 60

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version   string
	BuildTime string
	Logger    zerolog.Logger

	// Tracer defaults to the global tracer provider.
	Tracer trace.Tracer

	// Metrics is optional.
	Metrics *middleware.Metrics

	Ingester handler.Ingester
	History  handler.HistoryReader

	// Database backs the readiness check; nil means the in-memory store.
	Database  handler.Pinger
	Providers *resilience.Registry

	RequireTLS         bool
	RateLimitPerMinute int

	// IngestTimeout bounds ingestion requests (optional).
	IngestTimeout time.Duration
}

// NewRouter creates a chi router with every API route configured.
// Domain routes are served both at the root and under /v1.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	limit := cfg.RateLimitPerMinute
	if limit <= 0 {
		limit = DefaultRateLimitPerMinute
	}

	// Order matters: the request ID must exist before tracing and logging.
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Tracing(cfg.Tracer))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware())
	}
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.RequireTLS(cfg.RequireTLS))
	r.Use(func(next http.Handler) http.Handler { return gzhttp.GzipHandler(next) })

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, r, "no route for "+r.Method+" "+r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.MethodNotAllowed(w, r, r.Method+" is not supported for "+r.URL.Path)
	})

	observationHandler := handler.NewObservationHandler(cfg.Ingester).WithTimeout(cfg.IngestTimeout)
	historyHandler := handler.NewHistoryHandler(cfg.History)
	opsHandler := handler.NewOpsHandler(handler.OpsConfig{
		Version:   cfg.Version,
		BuildTime: cfg.BuildTime,
		Database:  cfg.Database,
		Providers: cfg.Providers,
	})

	ingestLimit := middleware.RateLimitByIP(middleware.PerMinute(limit))
	userLimit := middleware.RateLimitByUser(middleware.PerMinute(limit))

	domain := func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireJSON)
			r.Use(ingestLimit)
			r.Post("/weather", observationHandler.Ingest)
			r.Post("/mock", observationHandler.Sample)
		})

		r.With(userLimit).Get("/history/{userId}", historyHandler.History)
		r.With(userLimit).Get("/alerts/{userId}", historyHandler.Alerts)
		r.With(userLimit).Get("/summary/{userId}", historyHandler.Summary)
	}

	domain(r)
	r.Route("/v1", func(r chi.Router) {
		domain(r)

		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.Get("/status", opsHandler.SystemStatus)
		})
	})

	return r
}
