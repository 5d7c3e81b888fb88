package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/lumenwell/lumen-backend/api/routes"
	"github.com/lumenwell/lumen-backend/internal/ai"
	"github.com/lumenwell/lumen-backend/internal/auth"
	"github.com/lumenwell/lumen-backend/internal/badges"
	"github.com/lumenwell/lumen-backend/internal/billing"
	"github.com/lumenwell/lumen-backend/internal/entitlements"
	"github.com/lumenwell/lumen-backend/internal/entries"
	"github.com/lumenwell/lumen-backend/internal/media"
	"github.com/lumenwell/lumen-backend/internal/profiles"
	"github.com/lumenwell/lumen-backend/internal/users"
	stripewebhook "github.com/lumenwell/lumen-backend/internal/webhooks/stripe"
	"github.com/lumenwell/lumen-backend/pkg/auth/session"
	"github.com/lumenwell/lumen-backend/pkg/config"
	"github.com/lumenwell/lumen-backend/pkg/db"
	"github.com/lumenwell/lumen-backend/pkg/logger"
	"github.com/lumenwell/lumen-backend/pkg/migrate"
	"github.com/lumenwell/lumen-backend/pkg/outbox"
	"github.com/lumenwell/lumen-backend/pkg/redis"
	"github.com/lumenwell/lumen-backend/pkg/storage/gcs"
	pkgstripe "github.com/lumenwell/lumen-backend/pkg/stripe"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       users.NewRepository(dbClient.DB()),
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		DB:             dbClient,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create register service", err)
		os.Exit(1)
	}

	profileService, err := profiles.NewService(profiles.ServiceParams{
		Repo: profiles.NewRepository(dbClient.DB()),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create profile service", err)
		os.Exit(1)
	}

	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	evaluator, err := badges.NewEvaluator(badges.EvaluatorParams{
		Outbox:    outboxService,
		Logger:    logg,
		WeekStart: cfg.Badges.WeekStart,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create badge evaluator", err)
		os.Exit(1)
	}

	entriesService, err := entries.NewService(entries.ServiceParams{
		DB:        dbClient,
		Evaluator: evaluator,
		Outbox:    outboxService,
		Logger:    logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create entries service", err)
		os.Exit(1)
	}

	badgesService, err := badges.NewService(badges.ServiceParams{
		DB:        dbClient,
		WeekStart: cfg.Badges.WeekStart,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create badges service", err)
		os.Exit(1)
	}

	gate, err := entitlements.NewGate(entitlements.GateParams{
		Store:  redisClient,
		Config: cfg.Entitlements,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create entitlement gate", err)
		os.Exit(1)
	}

	usageService, err := entitlements.NewService(entitlements.ServiceParams{
		Gate:     gate,
		Profiles: profiles.NewRepository(dbClient.DB()),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create entitlements service", err)
		os.Exit(1)
	}

	aiParams := ai.ServiceParams{
		DB:     dbClient,
		Gate:   gate,
		Logger: logg,
	}
	if completer, aiErr := ai.NewClient(cfg.OpenAI); aiErr != nil {
		logg.Warn(context.Background(), "openai client unavailable, serving curated fallbacks")
	} else {
		aiParams.Completer = completer
	}
	aiService, err := ai.NewService(aiParams)
	if err != nil {
		logg.Error(context.Background(), "failed to create ai service", err)
		os.Exit(1)
	}

	stripeClient, err := pkgstripe.NewClient(context.Background(), cfg.Stripe, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create stripe client", err)
		os.Exit(1)
	}
	checkoutClient := billing.NewStripeClient(stripeClient)

	billingRepo := billing.NewRepository(dbClient.DB())
	billingService, err := billing.NewService(billing.ServiceParams{
		DB:           dbClient,
		Repo:         billingRepo,
		StripeClient: checkoutClient,
		StripeConfig: cfg.Stripe,
		Logger:       logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create billing service", err)
		os.Exit(1)
	}

	webhookService, err := stripewebhook.NewService(stripewebhook.ServiceParams{
		BillingRepo:       billingRepo,
		StripeClient:      checkoutClient,
		TransactionRunner: dbClient,
		Evaluator:         evaluator,
		Outbox:            outboxService,
		StripeConfig:      cfg.Stripe,
		Logger:            logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create stripe webhook service", err)
		os.Exit(1)
	}

	webhookGuard, err := stripewebhook.NewIdempotencyGuard(redisClient, cfg.Stripe.WebhookEventTTL, "webhooks:stripe")
	if err != nil {
		logg.Error(context.Background(), "failed to create stripe webhook guard", err)
		os.Exit(1)
	}

	var mediaService media.Service
	if cfg.GCS.BucketName != "" {
		gcsClient, gcsErr := gcs.NewClient(context.Background(), cfg.GCS, cfg.GCP, logg)
		if gcsErr != nil {
			logg.Error(context.Background(), "failed to create gcs client", gcsErr)
			os.Exit(1)
		}
		mediaService, err = media.NewService(media.ServiceParams{
			GCS:    gcsClient,
			Config: cfg.GCS,
		})
		if err != nil {
			logg.Error(context.Background(), "failed to create media service", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(context.Background(), "gcs bucket not configured, photo uploads disabled")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:         cfg,
			Logger:         logg,
			DBPinger:       dbClient,
			Redis:          redisClient,
			SessionManager: sessionManager,

			AuthService:     authService,
			RegisterService: registerService,
			ProfileService:  profileService,
			EntriesService:  entriesService,
			BadgesService:   badgesService,
			UsageService:    usageService,
			AIService:       aiService,
			BillingService:  billingService,
			MediaService:    mediaService,

			StripeClient:         stripeClient,
			StripeWebhookService: webhookService,
			StripeWebhookGuard:   webhookGuard,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
