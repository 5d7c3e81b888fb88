package billing

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/lumenwell/lumen-backend/internal/users"
	"github.com/lumenwell/lumen-backend/pkg/config"
	"github.com/lumenwell/lumen-backend/pkg/db"
	"github.com/lumenwell/lumen-backend/pkg/enums"
	pkgerrors "github.com/lumenwell/lumen-backend/pkg/errors"
	"github.com/lumenwell/lumen-backend/pkg/logger"
)

// CheckoutSessionDTO is returned to the client for redirecting to Stripe.
type CheckoutSessionDTO struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

// Service starts Stripe checkout flows for premium tiers.
type Service interface {
	CreateCheckoutSession(ctx context.Context, userID uuid.UUID, tier string) (*CheckoutSessionDTO, error)
}

// ServiceParams groups the billing service dependencies.
type ServiceParams struct {
	DB           *db.Client
	Repo         Repository
	StripeClient StripeCheckoutClient
	StripeConfig config.StripeConfig
	Logger       *logger.Logger
}

type service struct {
	db     *db.Client
	repo   Repository
	stripe StripeCheckoutClient
	cfg    config.StripeConfig
	logg   *logger.Logger
}

// NewService builds the billing service.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "database client required")
	}
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "billing repository required")
	}
	if params.StripeClient == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "stripe client required")
	}
	return &service{
		db:     params.DB,
		repo:   params.Repo,
		stripe: params.StripeClient,
		cfg:    params.StripeConfig,
		logg:   params.Logger,
	}, nil
}

// CreateCheckoutSession builds a hosted Checkout session in subscription
// mode for the requested tier. Checkout has no fallback: Stripe failures
// surface as dependency errors.
func (s *service) CreateCheckoutSession(ctx context.Context, userID uuid.UUID, tier string) (*CheckoutSessionDTO, error) {
	parsedTier, err := enums.ParseSubscriptionTier(tier)
	if err != nil || !parsedTier.IsPaid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tier must be premium or premium_plus")
	}
	priceID := s.priceIDFor(parsedTier)
	if priceID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "no price configured for tier")
	}

	customerID, err := s.ensureCustomer(ctx, userID)
	if err != nil {
		return nil, err
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		Customer:   stripe.String(customerID),
		SuccessURL: stripe.String(s.cfg.SuccessURL),
		CancelURL:  stripe.String(s.cfg.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{
				"user_id": userID.String(),
				"tier":    parsedTier.String(),
			},
		},
	}

	checkout, err := s.stripe.CreateCheckoutSession(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create checkout session")
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"user_id": userID.String(),
			"tier":    parsedTier.String(),
		})
		s.logg.Info(logCtx, "checkout session created")
	}
	return &CheckoutSessionDTO{SessionID: checkout.ID, URL: checkout.URL}, nil
}

// ensureCustomer reuses the Stripe customer from the user's most recent
// subscription, creating one on first checkout. The id lands in the
// subscriptions table when the webhook records the purchase.
func (s *service) ensureCustomer(ctx context.Context, userID uuid.UUID) (string, error) {
	existing, err := s.repo.FindLatestByUserID(ctx, userID)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load subscription")
	}
	if existing != nil && existing.StripeCustomerID != "" {
		return existing.StripeCustomerID, nil
	}

	user, err := users.NewRepository(s.db.DB()).FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}

	created, err := s.stripe.CreateCustomer(ctx, &stripe.CustomerParams{
		Email: stripe.String(user.Email),
		Name:  stripe.String(user.DisplayName),
		Metadata: map[string]string{
			"user_id": userID.String(),
		},
	})
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create stripe customer")
	}
	return created.ID, nil
}

func (s *service) priceIDFor(tier enums.SubscriptionTier) string {
	switch tier {
	case enums.SubscriptionTierPremium:
		return s.cfg.PremiumPriceID
	case enums.SubscriptionTierPremiumPlus:
		return s.cfg.PremiumPlusPriceID
	default:
		return ""
	}
}
