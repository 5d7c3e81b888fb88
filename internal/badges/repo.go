package badges

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lumenwell/lumen-backend/pkg/db/models"
)

// Repository covers the badge catalog, user awards and the aggregate queries
// the evaluator snapshots from.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a badges repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListActive returns the active catalog ordered by slug.
func (r *Repository) ListActive(ctx context.Context) ([]models.Badge, error) {
	var badges []models.Badge
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("slug ASC").
		Find(&badges).Error
	if err != nil {
		return nil, err
	}
	return badges, nil
}

// ListEarned returns the user's awards with catalog rows preloaded.
func (r *Repository) ListEarned(ctx context.Context, userID uuid.UUID) ([]models.UserBadge, error) {
	var earned []models.UserBadge
	err := r.db.WithContext(ctx).
		Preload("Badge").
		Where("user_id = ?", userID).
		Order("earned_at ASC").
		Find(&earned).Error
	if err != nil {
		return nil, err
	}
	return earned, nil
}

// EarnedAtByBadgeID maps badge id to award time for the user.
func (r *Repository) EarnedAtByBadgeID(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]time.Time, error) {
	var rows []models.UserBadge
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	earned := make(map[uuid.UUID]time.Time, len(rows))
	for _, row := range rows {
		earned[row.BadgeID] = row.EarnedAt
	}
	return earned, nil
}

// InsertEarned awards a badge. The unique (user_id, badge_id) index makes the
// insert idempotent; the bool reports whether a new row landed.
func (r *Repository) InsertEarned(ctx context.Context, userID, badgeID uuid.UUID) (bool, error) {
	award := models.UserBadge{
		UserID:  userID,
		BadgeID: badgeID,
	}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&award)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// CountEarned returns the number of badges the user holds.
func (r *Repository) CountEarned(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.UserBadge{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

// BuildSnapshot aggregates the user's live entries into the evaluator input.
// weekStart is the first day (inclusive) of the user's current local week.
func (r *Repository) BuildSnapshot(ctx context.Context, userID uuid.UUID, profile *models.Profile, weekStart time.Time) (Snapshot, error) {
	var agg struct {
		EntryCount        int
		MaxContentLength  int
		DistinctMoodCount int
	}
	err := r.db.WithContext(ctx).
		Model(&models.JournalEntry{}).
		Select("COUNT(*) AS entry_count, COALESCE(MAX(LENGTH(content)), 0) AS max_content_length, COUNT(DISTINCT mood) AS distinct_mood_count").
		Where("user_id = ? AND deleted_at IS NULL", userID).
		Scan(&agg).Error
	if err != nil {
		return Snapshot{}, err
	}

	var weekDays int64
	err = r.db.WithContext(ctx).
		Model(&models.JournalEntry{}).
		Where("user_id = ? AND deleted_at IS NULL AND entry_date >= ?", userID, weekStart.Format("2006-01-02")).
		Distinct("entry_date").
		Count(&weekDays).Error
	if err != nil {
		return Snapshot{}, err
	}

	return Snapshot{
		EntryCount:           agg.EntryCount,
		MaxContentLength:     agg.MaxContentLength,
		DistinctMoodCount:    agg.DistinctMoodCount,
		DistinctDaysThisWeek: int(weekDays),
		Profile:              profile,
	}, nil
}
