package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/turtacn/recidivism-forecast/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/recidivism-forecast/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/recidivism-forecast/internal/interfaces/http/handlers"
	"github.com/turtacn/recidivism-forecast/internal/interfaces/http/middleware"
)

// RouterConfig aggregates all handler and middleware dependencies required
// to construct the complete HTTP route tree.
type RouterConfig struct {
	// Handlers
	RiskHandler       *handlers.RiskHandler
	AssessmentHandler *handlers.AssessmentHandler
	HealthHandler     *handlers.HealthHandler

	// Middleware
	CORSOrigins    []string
	RateLimiter    middleware.RateLimiter
	RequestTimeout time.Duration
	MaxBodySize    int64
	// Logging defaults to middleware.DefaultLoggingConfig when zero.
	Logging middleware.LoggingConfig

	// Infrastructure
	Logger           logging.Logger
	Metrics          *prometheus.AppMetrics
	MetricsCollector prometheus.MetricsCollector
}

// NewRouter constructs the complete HTTP route tree from the given configuration.
// Nil handlers leave their routes unmounted.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	logCfg := cfg.Logging
	if logCfg.SkipPaths == nil && logCfg.SlowThreshold == 0 {
		logCfg = middleware.DefaultLoggingConfig()
	}

	r := chi.NewRouter()

	// --- Global middleware (applied to every request) ---
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestContext)
	r.Use(middleware.RequestLogging(logger, logCfg))
	r.Use(middleware.Metrics(cfg.Metrics))
	r.Use(chimw.Recoverer)
	if len(cfg.CORSOrigins) > 0 {
		r.Use(middleware.CORS(middleware.CORSConfigFor(cfg.CORSOrigins)))
	}
	if cfg.RateLimiter != nil {
		r.Use(middleware.RateLimit(cfg.RateLimiter, middleware.DefaultRateLimitConfig()))
	}

	// --- Probes ---
	if cfg.HealthHandler != nil {
		r.Get("/healthz", cfg.HealthHandler.Liveness)
		r.Get("/healthz/detail", cfg.HealthHandler.Detailed)
		r.Get("/readyz", cfg.HealthHandler.Readiness)
	}
	if cfg.MetricsCollector != nil {
		r.Handle("/metrics", cfg.MetricsCollector.Handler())
	}

	// --- API v1 ---
	r.Route("/api/v1", func(api chi.Router) {
		api.Use(middleware.BodyLimit(cfg.MaxBodySize))
		if cfg.RequestTimeout > 0 {
			api.Use(chimw.Timeout(cfg.RequestTimeout))
		}

		registerRiskRoutes(api, cfg.RiskHandler)
		registerAssessmentRoutes(api, cfg.AssessmentHandler)
	})

	return r
}

// registerRiskRoutes mounts the engine endpoints.
func registerRiskRoutes(r chi.Router, h *handlers.RiskHandler) {
	if h == nil {
		return
	}
	r.Route("/risk", func(rr chi.Router) {
		rr.Post("/score", h.Score)
		rr.Post("/quick", h.Quick)
		rr.Post("/assess", h.Assess)
		rr.Post("/batch", h.Batch)
		rr.Get("/statistics", h.Statistics)
	})
	r.Route("/forecast", func(fr chi.Router) {
		fr.Post("/", h.Forecast)
		fr.Post("/priority", h.Priority)
		fr.Post("/calendar", h.Calendar)
		fr.Get("/windows", h.Windows)
	})
	r.Post("/interventions/plan", h.Plan)
	r.Get("/constants", h.Constants)
}

// registerAssessmentRoutes mounts stored assessments and person flows.
func registerAssessmentRoutes(r chi.Router, h *handlers.AssessmentHandler) {
	if h == nil {
		return
	}
	r.Get("/assessments/{assessmentID}", h.GetAssessment)
	r.Route("/persons/{personID}", func(pr chi.Router) {
		pr.Post("/assess", h.AssessPerson)
		pr.Get("/assessments", h.ListAssessments)
		pr.Get("/history", h.History)
		pr.Post("/reassess", h.Reassess)
	})
}

//Personal.AI order the ending
