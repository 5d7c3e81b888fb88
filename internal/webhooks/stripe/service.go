package stripewebhook

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/lumenwell/lumen-backend/internal/badges"
	"github.com/lumenwell/lumen-backend/internal/billing"
	"github.com/lumenwell/lumen-backend/internal/profiles"
	"github.com/lumenwell/lumen-backend/pkg/config"
	"github.com/lumenwell/lumen-backend/pkg/db/models"
	"github.com/lumenwell/lumen-backend/pkg/enums"
	pkgerrors "github.com/lumenwell/lumen-backend/pkg/errors"
	"github.com/lumenwell/lumen-backend/pkg/logger"
	"github.com/lumenwell/lumen-backend/pkg/outbox"
	"github.com/lumenwell/lumen-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams groups the webhook handler dependencies.
type ServiceParams struct {
	BillingRepo       billing.Repository
	StripeClient      billing.StripeCheckoutClient
	TransactionRunner txRunner
	Evaluator         *badges.Evaluator
	Outbox            *outbox.Service
	StripeConfig      config.StripeConfig
	Logger            *logger.Logger
	Now               func() time.Time
}

// Service applies Stripe subscription lifecycle events to the local
// subscription row, the profile snapshot the entitlement gate reads, and the
// badge set.
type Service struct {
	billingRepo billing.Repository
	stripe      billing.StripeCheckoutClient
	txRunner    txRunner
	evaluator   *badges.Evaluator
	outbox      *outbox.Service
	cfg         config.StripeConfig
	logg        *logger.Logger
	now         func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.BillingRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "billing repo required")
	}
	if params.StripeClient == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "stripe client required")
	}
	if params.TransactionRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	if params.Evaluator == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "badge evaluator required")
	}
	if params.Outbox == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "outbox service required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		billingRepo: params.BillingRepo,
		stripe:      params.StripeClient,
		txRunner:    params.TransactionRunner,
		evaluator:   params.Evaluator,
		outbox:      params.Outbox,
		cfg:         params.StripeConfig,
		logg:        params.Logger,
		now:         now,
	}, nil
}

func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	switch event.Type {
	case stripe.EventTypeCustomerSubscriptionCreated,
		stripe.EventTypeCustomerSubscriptionUpdated,
		stripe.EventTypeCustomerSubscriptionDeleted:
		var stripeSub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &stripeSub); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode subscription event")
		}
		return s.syncSubscription(ctx, &stripeSub)
	case stripe.EventTypeInvoicePaid, stripe.EventTypeInvoicePaymentFailed:
		subscriptionID := event.GetObjectValue("subscription")
		if subscriptionID == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "subscription id missing")
		}
		stripeSub, err := s.stripe.GetSubscription(ctx, subscriptionID, &stripe.SubscriptionParams{})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch stripe subscription")
		}
		return s.syncSubscription(ctx, stripeSub)
	default:
		return nil
	}
}

func (s *Service) syncSubscription(ctx context.Context, stripeSub *stripe.Subscription) error {
	if stripeSub == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "subscription is required")
	}

	err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.billingRepo.WithTx(tx)
		stored, err := repo.FindByStripeSubscriptionID(ctx, stripeSub.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load subscription")
		}

		userID, err := s.resolveUserID(stripeSub, stored)
		if err != nil {
			return err
		}

		tier := s.resolveTier(stripeSub, stored)
		periodStart, periodEnd := subscriptionPeriod(stripeSub)
		status := s.mapStatus(stripeSub, periodEnd)

		row := stored
		if row == nil {
			row = &models.Subscription{
				UserID:               userID,
				StripeSubscriptionID: stripeSub.ID,
			}
		}
		if stripeSub.Customer != nil {
			row.StripeCustomerID = stripeSub.Customer.ID
		}
		row.StripeStatus = string(stripeSub.Status)
		row.Tier = tier
		if priceID := subscriptionPriceID(stripeSub); priceID != "" {
			row.PriceID = &priceID
		}
		row.CurrentPeriodStart = periodStart
		row.CurrentPeriodEnd = periodEnd
		row.CancelAtPeriodEnd = stripeSub.CancelAtPeriodEnd
		row.CanceledAt = unixTime(stripeSub.CanceledAt)
		if len(stripeSub.Metadata) > 0 {
			if raw, marshalErr := json.Marshal(stripeSub.Metadata); marshalErr == nil {
				row.Metadata = raw
			}
		}

		if stored == nil {
			err = repo.Create(ctx, row)
		} else {
			err = repo.Update(ctx, row)
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist subscription")
		}

		// the profile snapshot drives the entitlement gate
		profileTier := tier
		if status == enums.SubscriptionStatusExpired {
			profileTier = enums.SubscriptionTierFree
		}
		endsAt := &periodEnd
		if periodEnd.IsZero() {
			endsAt = nil
		}
		if err := profiles.NewRepository(tx).UpdateSubscription(ctx, userID, status, profileTier, endsAt); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update profile subscription")
		}

		// premium membership can earn badges; lapses never revoke them
		if _, err := s.evaluator.Refresh(ctx, tx, userID); err != nil {
			return err
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventSubscriptionChanged,
			AggregateType: enums.AggregateSubscription,
			AggregateID:   row.ID,
			Actor:         &outbox.ActorRef{UserID: userID},
			Version:       1,
			Data: payloads.SubscriptionChangedEvent{
				UserID:               userID,
				StripeSubscriptionID: stripeSub.ID,
				Status:               status,
				Tier:                 profileTier,
				CurrentPeriodEnd:     periodEnd,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "queue subscription event")
		}
		return nil
	})
	if err != nil {
		return err
	}
	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"stripe_subscription_id": stripeSub.ID,
			"stripe_status":          string(stripeSub.Status),
		})
		s.logg.Info(logCtx, "subscription synced")
	}
	return nil
}

func (s *Service) resolveUserID(stripeSub *stripe.Subscription, stored *models.Subscription) (uuid.UUID, error) {
	if raw, ok := stripeSub.Metadata["user_id"]; ok {
		if userID, err := uuid.Parse(raw); err == nil {
			return userID, nil
		}
	}
	if stored != nil {
		return stored.UserID, nil
	}
	return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "subscription has no user reference")
}

// resolveTier prefers checkout metadata, then the configured price mapping,
// then whatever the stored row already says.
func (s *Service) resolveTier(stripeSub *stripe.Subscription, stored *models.Subscription) enums.SubscriptionTier {
	if raw, ok := stripeSub.Metadata["tier"]; ok {
		if tier, err := enums.ParseSubscriptionTier(raw); err == nil && tier.IsPaid() {
			return tier
		}
	}
	switch subscriptionPriceID(stripeSub) {
	case "":
	case s.cfg.PremiumPlusPriceID:
		return enums.SubscriptionTierPremiumPlus
	case s.cfg.PremiumPriceID:
		return enums.SubscriptionTierPremium
	}
	if stored != nil && stored.Tier.IsPaid() {
		return stored.Tier
	}
	return enums.SubscriptionTierPremium
}

// mapStatus folds Stripe's lifecycle states onto the profile-level enum:
// active/trialing grant premium, a canceled-but-paid-up period stays
// cancelled, anything past its period end is expired.
func (s *Service) mapStatus(stripeSub *stripe.Subscription, periodEnd time.Time) enums.SubscriptionStatus {
	switch stripeSub.Status {
	case stripe.SubscriptionStatusActive, stripe.SubscriptionStatusTrialing:
		return enums.SubscriptionStatusPremium
	case stripe.SubscriptionStatusCanceled:
		if !periodEnd.IsZero() && periodEnd.After(s.now()) {
			return enums.SubscriptionStatusCancelled
		}
		return enums.SubscriptionStatusExpired
	default:
		if !periodEnd.IsZero() && periodEnd.After(s.now()) {
			return enums.SubscriptionStatusCancelled
		}
		return enums.SubscriptionStatusExpired
	}
}

func subscriptionPriceID(sub *stripe.Subscription) string {
	if sub == nil || sub.Items == nil || len(sub.Items.Data) == 0 {
		return ""
	}
	if sub.Items.Data[0].Price != nil {
		return sub.Items.Data[0].Price.ID
	}
	return ""
}

// subscriptionPeriod reads the billing period from the first item, where the
// current Stripe API reports it.
func subscriptionPeriod(sub *stripe.Subscription) (*time.Time, time.Time) {
	if sub == nil || sub.Items == nil || len(sub.Items.Data) == 0 {
		return nil, time.Time{}
	}
	item := sub.Items.Data[0]
	var end time.Time
	if item.CurrentPeriodEnd > 0 {
		end = time.Unix(item.CurrentPeriodEnd, 0).UTC()
	}
	return unixTime(item.CurrentPeriodStart), end
}

func unixTime(ts int64) *time.Time {
	if ts <= 0 {
		return nil
	}
	t := time.Unix(ts, 0).UTC()
	return &t
}
