package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lumenwell/lumen-backend/api/controllers"
	webhookcontrollers "github.com/lumenwell/lumen-backend/api/controllers/webhooks"
	"github.com/lumenwell/lumen-backend/api/middleware"
	"github.com/lumenwell/lumen-backend/internal/ai"
	"github.com/lumenwell/lumen-backend/internal/auth"
	"github.com/lumenwell/lumen-backend/internal/badges"
	"github.com/lumenwell/lumen-backend/internal/billing"
	"github.com/lumenwell/lumen-backend/internal/entitlements"
	"github.com/lumenwell/lumen-backend/internal/entries"
	"github.com/lumenwell/lumen-backend/internal/media"
	"github.com/lumenwell/lumen-backend/internal/profiles"
	"github.com/lumenwell/lumen-backend/pkg/auth/session"
	"github.com/lumenwell/lumen-backend/pkg/config"
	"github.com/lumenwell/lumen-backend/pkg/db"
	"github.com/lumenwell/lumen-backend/pkg/logger"
	"github.com/lumenwell/lumen-backend/pkg/redis"
)

type sessionManager interface {
	session.AccessSessionChecker
	Rotate(context.Context, string, string) (string, string, error)
	Revoke(context.Context, string) error
}

type stripeSecretProvider interface {
	SigningSecret() string
}

type stripeWebhookGuard interface {
	CheckAndMark(ctx context.Context, eventID string) (bool, error)
	Delete(ctx context.Context, eventID string) error
}

// RouterParams carries every service the HTTP surface depends on.
type RouterParams struct {
	Config         *config.Config
	Logger         *logger.Logger
	DBPinger       db.Pinger
	Redis          *redis.Client
	SessionManager sessionManager

	AuthService     auth.Service
	RegisterService auth.RegisterService
	ProfileService  profiles.Service
	EntriesService  entries.Service
	BadgesService   badges.Service
	UsageService    *entitlements.Service
	AIService       ai.Service
	BillingService  billing.Service
	MediaService    media.Service

	StripeClient         stripeSecretProvider
	StripeWebhookService webhookcontrollers.StripeWebhookService
	StripeWebhookGuard   stripeWebhookGuard
}

func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.DBPinger, p.Redis))
	})

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
		r.Post("/validate", controllers.PublicValidate(logg))
	})

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/stripe", webhookcontrollers.StripeWebhook(p.StripeWebhookService, p.StripeClient, p.StripeWebhookGuard, logg))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		if p.Redis != nil {
			r.Use(middleware.Idempotency(p.Redis, logg))
		}
		r.With(middleware.AuthRateLimit(loginPolicy, p.Redis, logg)).Post("/login", controllers.AuthLogin(p.AuthService, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, p.Redis, logg)).Post("/register", controllers.AuthRegister(p.RegisterService, p.AuthService, logg))
		r.Post("/logout", controllers.AuthLogout(p.SessionManager, cfg.JWT, logg))
		r.Post("/refresh", controllers.AuthRefresh(p.SessionManager, cfg.JWT, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, p.SessionManager, logg))
		if p.Redis != nil {
			r.Use(middleware.Idempotency(p.Redis, logg))
		}

		r.Get("/ping", controllers.PrivatePing())

		r.Route("/profile", func(r chi.Router) {
			r.Get("/", controllers.ProfileGet(p.ProfileService, logg))
			r.Put("/", controllers.ProfileUpdate(p.ProfileService, logg))
		})

		r.Route("/entries", func(r chi.Router) {
			r.Get("/", controllers.EntryList(p.EntriesService, logg))
			r.Post("/", controllers.EntryCreate(p.EntriesService, logg))
			r.Post("/photo/presign", controllers.EntryPhotoPresign(p.MediaService, logg))
			r.Route("/{entryId}", func(r chi.Router) {
				r.Get("/", controllers.EntryGet(p.EntriesService, logg))
				r.Patch("/", controllers.EntryUpdate(p.EntriesService, logg))
				r.Delete("/", controllers.EntryDelete(p.EntriesService, logg))
			})
		})

		r.Get("/badges", controllers.BadgeList(p.BadgesService, logg))
		r.Get("/usage", controllers.UsageGet(p.UsageService, logg))

		r.Route("/ai", func(r chi.Router) {
			r.Post("/prompt", controllers.AIPrompt(p.AIService, logg))
			r.Post("/analyze-mood", controllers.AIAnalyzeMood(p.AIService, logg))
			r.Post("/affirmation", controllers.AIAffirmation(p.AIService, logg))
			r.Post("/quote", controllers.AIMoodQuote(p.AIService, logg))
		})

		r.Post("/billing/checkout", controllers.BillingCheckout(p.BillingService, logg))
	})

	return r
}
