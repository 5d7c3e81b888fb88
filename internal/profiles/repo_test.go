package profiles

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/lumenwell/lumen-backend/pkg/enums"
)

func setupProfilesTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	ddl := `
CREATE TABLE IF NOT EXISTS profiles (
  id TEXT PRIMARY KEY DEFAULT (lower(hex(randomblob(16)))),
  user_id TEXT NOT NULL UNIQUE,
  timezone TEXT NOT NULL DEFAULT 'UTC',
  weekly_goal INTEGER NOT NULL DEFAULT 3,
  current_streak INTEGER NOT NULL DEFAULT 0,
  best_streak INTEGER NOT NULL DEFAULT 0,
  last_entry_date DATE,
  total_entries INTEGER NOT NULL DEFAULT 0,
  total_badges_earned INTEGER NOT NULL DEFAULT 0,
  subscription_status TEXT NOT NULL DEFAULT 'free',
  subscription_tier TEXT NOT NULL DEFAULT 'free',
  subscription_ends_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(ddl).Error)
	t.Cleanup(func() {
		db.Exec("DELETE FROM profiles")
	})
	return db
}

func TestRepositoryCreateAndFind(t *testing.T) {
	db := setupProfilesTestDB(t)
	repo := NewRepository(db)
	userID := uuid.New()

	_, err := repo.Create(context.Background(), CreateProfileDTO{
		UserID:     userID,
		Timezone:   "America/Denver",
		WeeklyGoal: 5,
	})
	require.NoError(t, err)

	found, err := repo.FindByUserID(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, userID, found.UserID)
	assert.Equal(t, "America/Denver", found.Timezone)
	assert.Equal(t, 5, found.WeeklyGoal)
	assert.Equal(t, enums.SubscriptionStatusFree, found.SubscriptionStatus)
	assert.Equal(t, enums.SubscriptionTierFree, found.SubscriptionTier)
}

func TestRepositoryCreateDefaultsWeeklyGoal(t *testing.T) {
	db := setupProfilesTestDB(t)
	repo := NewRepository(db)
	userID := uuid.New()

	_, err := repo.Create(context.Background(), CreateProfileDTO{UserID: userID})
	require.NoError(t, err)

	found, err := repo.FindByUserID(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, "UTC", found.Timezone)
	assert.Equal(t, 3, found.WeeklyGoal)
}

func TestRepositoryUpdateStreak(t *testing.T) {
	db := setupProfilesTestDB(t)
	repo := NewRepository(db)
	userID := uuid.New()

	_, err := repo.Create(context.Background(), CreateProfileDTO{UserID: userID})
	require.NoError(t, err)

	lastEntry := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.UpdateStreak(context.Background(), userID, 4, 9, &lastEntry))

	found, err := repo.FindByUserID(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 4, found.CurrentStreak)
	assert.Equal(t, 9, found.BestStreak)
	require.NotNil(t, found.LastEntryDate)
	assert.Equal(t, "2026-01-15", found.LastEntryDate.Format("2006-01-02"))
}

func TestRepositoryUpdateSubscription(t *testing.T) {
	db := setupProfilesTestDB(t)
	repo := NewRepository(db)
	userID := uuid.New()

	_, err := repo.Create(context.Background(), CreateProfileDTO{UserID: userID})
	require.NoError(t, err)

	endsAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.UpdateSubscription(
		context.Background(), userID,
		enums.SubscriptionStatusPremium, enums.SubscriptionTierPremium, &endsAt,
	))

	found, err := repo.FindByUserID(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, enums.SubscriptionStatusPremium, found.SubscriptionStatus)
	assert.Equal(t, enums.SubscriptionTierPremium, found.SubscriptionTier)
	require.NotNil(t, found.SubscriptionEndsAt)
}

func TestRepositoryUpdateCounts(t *testing.T) {
	db := setupProfilesTestDB(t)
	repo := NewRepository(db)
	userID := uuid.New()

	_, err := repo.Create(context.Background(), CreateProfileDTO{UserID: userID})
	require.NoError(t, err)

	require.NoError(t, repo.UpdateCounts(context.Background(), userID, 42, 6))

	found, err := repo.FindByUserID(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 42, found.TotalEntries)
	assert.Equal(t, 6, found.TotalBadgesEarned)
}
