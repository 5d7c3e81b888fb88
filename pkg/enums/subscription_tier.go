package enums

import "fmt"

// SubscriptionTier selects which premium feature set a subscriber has. The
// tier keeps its last value after cancellation until the paid period ends.
type SubscriptionTier string

const (
	SubscriptionTierFree        SubscriptionTier = "free"
	SubscriptionTierPremium     SubscriptionTier = "premium"
	SubscriptionTierPremiumPlus SubscriptionTier = "premium_plus"
)

var validSubscriptionTiers = []SubscriptionTier{
	SubscriptionTierFree,
	SubscriptionTierPremium,
	SubscriptionTierPremiumPlus,
}

// String implements fmt.Stringer.
func (t SubscriptionTier) String() string {
	return string(t)
}

// IsValid reports whether the value is known.
func (t SubscriptionTier) IsValid() bool {
	for _, candidate := range validSubscriptionTiers {
		if candidate == t {
			return true
		}
	}
	return false
}

// IsPaid reports whether the tier is one of the premium tiers.
func (t SubscriptionTier) IsPaid() bool {
	return t == SubscriptionTierPremium || t == SubscriptionTierPremiumPlus
}

// ParseSubscriptionTier converts raw input into a SubscriptionTier.
func ParseSubscriptionTier(value string) (SubscriptionTier, error) {
	for _, candidate := range validSubscriptionTiers {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid subscription tier %q", value)
}
