package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/lumenwell/lumen-backend/pkg/enums"
)

// EntryCreatedEvent is emitted after a journal entry persists.
type EntryCreatedEvent struct {
	EntryID   uuid.UUID  `json:"entry_id"`
	UserID    uuid.UUID  `json:"user_id"`
	EntryDate string     `json:"entry_date"`
	Mood      enums.Mood `json:"mood"`
	WordCount int        `json:"word_count"`
}

// EntryDeletedEvent is emitted when a journal entry is soft-deleted. The
// photo path, when set, lets the cleanup consumer remove the orphaned object.
type EntryDeletedEvent struct {
	EntryID   uuid.UUID `json:"entry_id"`
	UserID    uuid.UUID `json:"user_id"`
	EntryDate string    `json:"entry_date"`
	DeletedAt time.Time `json:"deleted_at"`
	PhotoPath *string   `json:"photo_path,omitempty"`
}

// BadgeEarnedEvent announces a freshly awarded badge.
type BadgeEarnedEvent struct {
	UserID    uuid.UUID           `json:"user_id"`
	BadgeID   uuid.UUID           `json:"badge_id"`
	BadgeSlug string              `json:"badge_slug"`
	Category  enums.BadgeCategory `json:"category"`
	Rarity    enums.BadgeRarity   `json:"rarity"`
	EarnedAt  time.Time           `json:"earned_at"`
}

// StreakChangedEvent reports a streak value moving after a rebuild.
type StreakChangedEvent struct {
	UserID        uuid.UUID `json:"user_id"`
	CurrentStreak int       `json:"current_streak"`
	BestStreak    int       `json:"best_streak"`
	LastEntryDate string    `json:"last_entry_date,omitempty"`
}

// SubscriptionChangedEvent mirrors the billing state applied to a profile.
type SubscriptionChangedEvent struct {
	UserID               uuid.UUID                `json:"user_id"`
	StripeSubscriptionID string                   `json:"stripe_subscription_id"`
	Status               enums.SubscriptionStatus `json:"status"`
	Tier                 enums.SubscriptionTier   `json:"tier"`
	CurrentPeriodEnd     time.Time                `json:"current_period_end"`
}
