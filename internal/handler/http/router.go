package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/deeppgcsca037/Rating-Prediction-Backend/internal/service"
	"github.com/deeppgcsca037/Rating-Prediction-Backend/pkg/health"
	"github.com/deeppgcsca037/Rating-Prediction-Backend/pkg/middleware"
)

const serviceName = "feedback"

// RouterConfig carries the HTTP-facing settings of the feedback service.
type RouterConfig struct {
	Version        string
	CORSOrigins    []string
	AdminToken     string
	PprofCIDRs     []string
	RequestTimeout time.Duration
}

// NewRouter creates a chi router with all feedback service routes registered.
func NewRouter(
	feedbackService *service.FeedbackService,
	healthHandler *health.Handler,
	cfg RouterConfig,
	logger *slog.Logger,
) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}

	r := chi.NewRouter()

	// Global middleware
	corsCfg := middleware.DefaultCORSConfig()
	if len(cfg.CORSOrigins) > 0 {
		corsCfg.AllowedOrigins = cfg.CORSOrigins
	}
	r.Use(middleware.CORS(corsCfg))
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(cfg.RequestTimeout))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics(serviceName))
	r.Use(middleware.Tracing(serviceName))
	r.Use(middleware.RequestLogger(logger))

	// Health check endpoints
	r.Get("/", Index(cfg.Version))
	r.Get("/health", Health(feedbackService))
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// Pprof debug endpoints with IP allowlist.
	middleware.RegisterPprof(r, cfg.PprofCIDRs, logger)

	feedbackHandler := NewFeedbackHandler(feedbackService, logger)

	r.Route("/api", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Post("/submit-review", feedbackHandler.SubmitReview)

		r.Route("/admin", func(r chi.Router) {
			if cfg.AdminToken != "" {
				r.Use(middleware.Auth(middleware.StaticToken(cfg.AdminToken, "admin"), logger))
			}
			r.Use(middleware.CacheControl("no-store"))

			r.Get("/reviews", feedbackHandler.ListReviews)
			r.Get("/reviews/{id}", feedbackHandler.GetReview)
		})
	})

	return r
}
