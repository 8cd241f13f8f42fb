package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/byoncocare/oncobot/internal/http/handlers"
	httpmiddleware "github.com/byoncocare/oncobot/internal/http/middleware"
	"github.com/byoncocare/oncobot/internal/webhook"
	"github.com/byoncocare/oncobot/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	WebhookHandler     *webhook.Handler
	AdminSend          *handlers.AdminSendHandler
	AdminAuthSecret    string
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
	// WebhookRPS bounds per-IP traffic on the public webhook route;
	// zero disables the limiter.
	WebhookRPS float64
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints (webhook, health, metrics)
	r.Group(func(public chi.Router) {
		public.Get("/health", handlers.HealthCheck)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		if cfg.WebhookHandler != nil {
			public.Route("/whatsapp", func(wh chi.Router) {
				if cfg.WebhookRPS > 0 {
					wh.Use(httpmiddleware.RateLimit(cfg.WebhookRPS, int(cfg.WebhookRPS)*2))
				}
				wh.Get("/webhook", cfg.WebhookHandler.HandleVerify)
				wh.Post("/webhook", cfg.WebhookHandler.HandleMessages)
			})
		}
	})

	// Admin routes (protected by JWT)
	if cfg.AdminAuthSecret != "" && cfg.AdminSend != nil {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.CoordinatorJWT(cfg.AdminAuthSecret))
			admin.Post("/send", cfg.AdminSend.SendMessage)
		})
	}

	return r
}
