package profiles

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lumenwell/lumen-backend/pkg/db/models"
	"github.com/lumenwell/lumen-backend/pkg/enums"
)

// Repository exposes profile persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a profiles repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new profile and returns the persisted model.
func (r *Repository) Create(ctx context.Context, dto CreateProfileDTO) (*models.Profile, error) {
	profile := dto.ToModel()
	if err := r.db.WithContext(ctx).Create(profile).Error; err != nil {
		return nil, err
	}
	return profile, nil
}

// FindByUserID loads the profile owned by the given user.
func (r *Repository) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// UpdateSettings persists user-editable profile fields.
func (r *Repository) UpdateSettings(ctx context.Context, userID uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Profile{}).
		Where("user_id = ?", userID).
		Updates(updates).Error
}

// UpdateStreak writes a freshly computed streak snapshot.
func (r *Repository) UpdateStreak(ctx context.Context, userID uuid.UUID, current, best int, lastEntryDate *time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Profile{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{
			"current_streak":  current,
			"best_streak":     best,
			"last_entry_date": lastEntryDate,
		}).Error
}

// UpdateCounts refreshes the denormalized entry and badge tallies.
func (r *Repository) UpdateCounts(ctx context.Context, userID uuid.UUID, totalEntries, totalBadges int) error {
	return r.db.WithContext(ctx).
		Model(&models.Profile{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{
			"total_entries":       totalEntries,
			"total_badges_earned": totalBadges,
		}).Error
}

// UpdateSubscription applies the billing snapshot the entitlement gate reads.
func (r *Repository) UpdateSubscription(ctx context.Context, userID uuid.UUID, status enums.SubscriptionStatus, tier enums.SubscriptionTier, endsAt *time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Profile{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{
			"subscription_status":  status,
			"subscription_tier":    tier,
			"subscription_ends_at": endsAt,
		}).Error
}
