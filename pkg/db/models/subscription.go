package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/lumenwell/lumen-backend/pkg/enums"
)

// Subscription persists Stripe subscription state per user. The profile
// carries a denormalized snapshot; this row is the billing source of truth.
type Subscription struct {
	ID                   uuid.UUID              `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID               uuid.UUID              `gorm:"column:user_id;type:uuid;not null;index"`
	StripeCustomerID     string                 `gorm:"column:stripe_customer_id;not null;index"`
	StripeSubscriptionID string                 `gorm:"column:stripe_subscription_id;not null;unique"`
	StripeStatus         string                 `gorm:"column:stripe_status;not null"`
	Tier                 enums.SubscriptionTier `gorm:"column:tier;type:subscription_tier_enum;not null"`
	PriceID              *string                `gorm:"column:price_id"`
	CurrentPeriodStart   *time.Time             `gorm:"column:current_period_start"`
	CurrentPeriodEnd     time.Time              `gorm:"column:current_period_end;not null"`
	CancelAtPeriodEnd    bool                   `gorm:"column:cancel_at_period_end;not null;default:false"`
	CanceledAt           *time.Time             `gorm:"column:canceled_at"`
	Metadata             json.RawMessage        `gorm:"column:metadata;type:jsonb"`
	CreatedAt            time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
