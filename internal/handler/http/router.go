package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jubmeng/rainbow/internal/domain"
	"github.com/jubmeng/rainbow/internal/service"
	"github.com/jubmeng/rainbow/pkg/health"
	"github.com/jubmeng/rainbow/pkg/middleware"
)

// RateLimitConfig is the per-IP token bucket applied to credential
// endpoints.
type RateLimitConfig struct {
	RPS   float64
	Burst int

	// TrustedProxies lists CIDRs whose X-Forwarded-For is believed.
	TrustedProxies []string
}

// RouterDeps holds everything NewRouter mounts.
type RouterDeps struct {
	Reviews  *service.ReviewService
	Listings *service.ListingService
	Users    *service.UserService
	Saved    *service.SavedService

	TokenValidator middleware.TokenValidator
	Health         *health.Handler

	// Metrics and Gatherer are optional; /metrics is served only when
	// Gatherer is set.
	Metrics  *middleware.HTTPMetrics
	Gatherer prometheus.Gatherer

	CORS          middleware.CORSConfig
	AuthRateLimit RateLimitConfig
	CacheMaxAge   int
	PprofCIDRs    []string
	ServiceName   string
	Logger        *slog.Logger
}

// NewRouter creates a chi router with all routes registered. ctx bounds
// background work of the rate limiter.
func NewRouter(ctx context.Context, d RouterDeps) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(d.CORS))
	r.Use(middleware.Recovery(d.Logger))
	r.Use(middleware.RequestLogging(d.Logger))
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware)
	}
	r.Use(middleware.Tracing(d.ServiceName))
	r.Use(middleware.RequestLogger(d.Logger))

	// Health check endpoints
	r.Get("/health/live", d.Health.LivenessHandler())
	r.Get("/health/ready", d.Health.ReadinessHandler())
	if d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}
	if len(d.PprofCIDRs) > 0 {
		middleware.RegisterPprof(r, d.PprofCIDRs, d.Logger)
	}

	requireAuth := middleware.Auth(d.TokenValidator)
	authLimit := middleware.RateLimit(ctx, d.AuthRateLimit.RPS, d.AuthRateLimit.Burst, d.AuthRateLimit.TrustedProxies, d.Logger)

	// Review endpoints
	reviewHandler := NewReviewHandler(d.Reviews, d.Logger)
	r.Route("/review", func(r chi.Router) {
		r.With(requireAuth).Post("/", reviewHandler.SubmitReview)
		r.Group(func(r chi.Router) {
			r.Use(middleware.CacheControl(d.CacheMaxAge))
			r.Get("/info/{id}", reviewHandler.GetReview)
			r.Get("/{type}", reviewHandler.ListReviews)
		})
	})

	// Listing endpoints, one route tree per kind
	listingHandler := NewListingHandler(d.Listings, d.Logger)
	for _, kind := range domain.Kinds() {
		r.Route("/"+string(kind), func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(middleware.CacheControl(d.CacheMaxAge))
				r.Get("/", listingHandler.List(kind))
				r.Get("/{id}", listingHandler.Get(kind))
			})
			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/", listingHandler.Create(kind))
				r.Put("/{id}", listingHandler.Update(kind))
			})
		})
	}

	// Account endpoints
	userHandler := NewUserHandler(d.Users, d.Logger)
	savedHandler := NewSavedHandler(d.Saved, d.Logger)
	r.Route("/user", func(r chi.Router) {
		r.Post("/", userHandler.Register)

		r.Group(func(r chi.Router) {
			r.Use(authLimit)
			r.Post("/login", userHandler.Login)
			r.Post("/forgot-password", userHandler.ForgotPassword)
			r.Post("/reset-password", userHandler.ResetPassword)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/info", userHandler.GetProfile)
			r.Patch("/info", userHandler.UpdateProfile)
			r.Patch("/setseller/{id}", userHandler.SetSeller)
			r.Get("/navbar", userHandler.Navbar)
			r.Get("/check-login", userHandler.CheckLogin)

			r.Get("/save-for-later", savedHandler.List)
			r.Patch("/save-for-later", savedHandler.Add)
			r.Delete("/save-for-later", savedHandler.Remove)
		})
	})

	return r
}
