package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/lumenwell/lumen-backend/pkg/enums"
)

// Profile holds the per-user wellness state: streaks, goals, badge count and
// the subscription snapshot the entitlement gate reads.
type Profile struct {
	ID     uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`

	Timezone   string `gorm:"column:timezone;not null;default:'UTC'"`
	WeeklyGoal int    `gorm:"column:weekly_goal;not null;default:3"`

	CurrentStreak int        `gorm:"column:current_streak;not null;default:0"`
	BestStreak    int        `gorm:"column:best_streak;not null;default:0"`
	LastEntryDate *time.Time `gorm:"column:last_entry_date;type:date"`

	TotalEntries      int `gorm:"column:total_entries;not null;default:0"`
	TotalBadgesEarned int `gorm:"column:total_badges_earned;not null;default:0"`

	SubscriptionStatus enums.SubscriptionStatus `gorm:"column:subscription_status;type:subscription_status_enum;not null;default:'free'"`
	SubscriptionTier   enums.SubscriptionTier   `gorm:"column:subscription_tier;type:subscription_tier_enum;not null;default:'free'"`
	SubscriptionEndsAt *time.Time               `gorm:"column:subscription_ends_at"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
