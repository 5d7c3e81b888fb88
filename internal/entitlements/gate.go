// Package entitlements decides whether a user may invoke a premium-gated
// feature. Premium subscribers bypass the counters entirely; free users get a
// fixed number of uses per feature per local day, tracked in redis.
package entitlements

import (
	"context"
	"errors"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/lumenwell/lumen-backend/pkg/config"
	"github.com/lumenwell/lumen-backend/pkg/db/models"
	"github.com/lumenwell/lumen-backend/pkg/enums"
	pkgerrors "github.com/lumenwell/lumen-backend/pkg/errors"
)

// counterStore is the redis surface the gate depends on.
type counterStore interface {
	Get(ctx context.Context, key string) (string, error)
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	UsageKey(userID, feature, day string) string
}

// Decision is the outcome of a gate check.
type Decision struct {
	Allowed   bool   `json:"allowed"`
	Unlimited bool   `json:"unlimited"`
	Limit     int    `json:"limit"`
	Remaining int    `json:"remaining"`
	Message   string `json:"message,omitempty"`
}

// Usage reports a single feature's standing for today.
type Usage struct {
	Feature   enums.Feature `json:"feature"`
	Used      int           `json:"used"`
	Limit     int           `json:"limit"`
	Remaining int           `json:"remaining"`
	Unlimited bool          `json:"unlimited"`
}

// GateParams packages the gate dependencies.
type GateParams struct {
	Store  counterStore
	Config config.EntitlementsConfig
	Now    func() time.Time
}

// Gate enforces per-feature daily limits.
type Gate struct {
	store counterStore
	cfg   config.EntitlementsConfig
	now   func() time.Time
}

// NewGate builds an entitlement gate.
func NewGate(params GateParams) (*Gate, error) {
	if params.Store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "counter store required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Gate{store: params.Store, cfg: params.Config, now: now}, nil
}

// IsPremium reports whether the profile bypasses usage counters. Status alone
// decides; the tier only selects which premium features are available.
func (g *Gate) IsPremium(profile *models.Profile) bool {
	if profile == nil {
		return false
	}
	return profile.SubscriptionStatus == enums.SubscriptionStatusPremium
}

// DailyLimitFor returns the per-day allowance for a feature. Unrecognized
// feature keys are still gated, at the stricter default limit.
func (g *Gate) DailyLimitFor(feature enums.Feature) int {
	if feature.IsValid() {
		return g.cfg.DailyLimit
	}
	return g.cfg.DefaultLimit
}

// CanUse checks the counter without consuming a use. A counter-store failure
// denies the action: the gate fails closed.
func (g *Gate) CanUse(ctx context.Context, profile *models.Profile, feature enums.Feature) (Decision, error) {
	if g.IsPremium(profile) {
		return Decision{Allowed: true, Unlimited: true}, nil
	}

	limit := g.DailyLimitFor(feature)
	used, err := g.usedToday(ctx, profile, feature)
	if err != nil {
		return Decision{Limit: limit, Message: g.cfg.UpsellMessage},
			pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read usage counter")
	}

	if used >= limit {
		return Decision{Limit: limit, Message: g.cfg.UpsellMessage}, nil
	}
	return Decision{Allowed: true, Limit: limit, Remaining: limit - used}, nil
}

// RecordUse consumes one use for the feature. Premium profiles are a no-op.
// The first increment of the day stamps the counter's TTL.
func (g *Gate) RecordUse(ctx context.Context, profile *models.Profile, feature enums.Feature) error {
	if g.IsPremium(profile) {
		return nil
	}
	key := g.usageKey(profile, feature)
	if _, err := g.store.IncrWithTTL(ctx, key, g.cfg.CounterTTL); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record usage")
	}
	return nil
}

// Remaining reports today's standing for one feature.
func (g *Gate) Remaining(ctx context.Context, profile *models.Profile, feature enums.Feature) (Usage, error) {
	usage := Usage{Feature: feature}
	if g.IsPremium(profile) {
		usage.Unlimited = true
		return usage, nil
	}

	usage.Limit = g.DailyLimitFor(feature)
	used, err := g.usedToday(ctx, profile, feature)
	if err != nil {
		return Usage{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read usage counter")
	}
	usage.Used = used
	if used < usage.Limit {
		usage.Remaining = usage.Limit - used
	}
	return usage, nil
}

// RemainingAll reports today's standing across every recognized feature.
func (g *Gate) RemainingAll(ctx context.Context, profile *models.Profile) ([]Usage, error) {
	features := enums.Features()
	usages := make([]Usage, 0, len(features))
	for _, feature := range features {
		usage, err := g.Remaining(ctx, profile, feature)
		if err != nil {
			return nil, err
		}
		usages = append(usages, usage)
	}
	return usages, nil
}

func (g *Gate) usedToday(ctx context.Context, profile *models.Profile, feature enums.Feature) (int, error) {
	raw, err := g.store.Get(ctx, g.usageKey(profile, feature))
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return 0, nil
		}
		return 0, err
	}
	used, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	return used, nil
}

// usageKey builds the per-user, per-feature counter key for the profile's
// current local day.
func (g *Gate) usageKey(profile *models.Profile, feature enums.Feature) string {
	loc, err := time.LoadLocation(profile.Timezone)
	if err != nil {
		loc = time.UTC
	}
	day := g.now().In(loc).Format("2006-01-02")
	return g.store.UsageKey(profile.UserID.String(), feature.String(), day)
}
