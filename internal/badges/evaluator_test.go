package badges

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/lumenwell/lumen-backend/pkg/db/models"
	"github.com/lumenwell/lumen-backend/pkg/enums"
	"github.com/lumenwell/lumen-backend/pkg/outbox"
)

func setupBadgesTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{
		`CREATE TABLE IF NOT EXISTS profiles (
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
);`,
		`CREATE TABLE IF NOT EXISTS journal_entries (
  id TEXT PRIMARY KEY DEFAULT (lower(hex(randomblob(16)))),
  user_id TEXT NOT NULL,
  title TEXT,
  content TEXT NOT NULL,
  mood TEXT NOT NULL,
  entry_date DATE NOT NULL,
  word_count INTEGER NOT NULL DEFAULT 0,
  prompt TEXT,
  photo_path TEXT,
  created_at DATETIME,
  updated_at DATETIME,
  deleted_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS badges (
  id TEXT PRIMARY KEY DEFAULT (lower(hex(randomblob(16)))),
  slug TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  blurb TEXT NOT NULL,
  icon TEXT NOT NULL,
  category TEXT NOT NULL,
  rarity TEXT NOT NULL,
  criteria TEXT NOT NULL,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS user_badges (
  id TEXT PRIMARY KEY DEFAULT (lower(hex(randomblob(16)))),
  user_id TEXT NOT NULL,
  badge_id TEXT NOT NULL,
  earned_at DATETIME,
  UNIQUE (user_id, badge_id)
);`,
		`CREATE TABLE IF NOT EXISTS outbox_events (
  id TEXT PRIMARY KEY DEFAULT (lower(hex(randomblob(16)))),
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload TEXT NOT NULL,
  created_at DATETIME,
  published_at DATETIME,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT
);`,
	}
	for _, ddl := range statements {
		require.NoError(t, db.Exec(ddl).Error)
	}
	t.Cleanup(func() {
		for _, table := range []string{"outbox_events", "user_badges", "badges", "journal_entries", "profiles"} {
			db.Exec("DELETE FROM " + table)
		}
	})
	return db
}

func seedBadge(t *testing.T, db *gorm.DB, slug, criteria string) uuid.UUID {
	t.Helper()
	badge := models.Badge{
		ID:       uuid.New(),
		Slug:     slug,
		Name:     slug,
		Blurb:    slug,
		Icon:     "icon",
		Category: enums.BadgeCategoryMilestone,
		Rarity:   enums.BadgeRarityCommon,
		Criteria: []byte(criteria),
		IsActive: true,
	}
	require.NoError(t, db.Create(&badge).Error)
	return badge.ID
}

func seedProfile(t *testing.T, db *gorm.DB, userID uuid.UUID, mutate func(*models.Profile)) {
	t.Helper()
	profile := models.Profile{
		ID:                 uuid.New(),
		UserID:             userID,
		Timezone:           "UTC",
		WeeklyGoal:         3,
		SubscriptionStatus: enums.SubscriptionStatusFree,
		SubscriptionTier:   enums.SubscriptionTierFree,
	}
	if mutate != nil {
		mutate(&profile)
	}
	require.NoError(t, db.Create(&profile).Error)
}

func seedEntry(t *testing.T, db *gorm.DB, userID uuid.UUID, date string, words int) {
	t.Helper()
	entry := models.JournalEntry{
		ID:        uuid.New(),
		UserID:    userID,
		Content:   "content",
		Mood:      enums.MoodGood,
		EntryDate: mustDay(t, date),
		WordCount: words,
	}
	require.NoError(t, db.Create(&entry).Error)
}

func mustDay(t *testing.T, value string) time.Time {
	t.Helper()
	day, err := time.Parse("2006-01-02", value)
	require.NoError(t, err)
	return day
}

func newTestEvaluator(t *testing.T, now time.Time) *Evaluator {
	t.Helper()
	eval, err := NewEvaluator(EvaluatorParams{
		Outbox: outbox.NewService(outbox.NewRepository(nil), nil),
		Now:    func() time.Time { return now },
	})
	require.NoError(t, err)
	return eval
}

func TestEvaluatorAwardsFirstEntry(t *testing.T) {
	db := setupBadgesTestDB(t)
	userID := uuid.New()
	seedProfile(t, db, userID, nil)
	seedEntry(t, db, userID, "2026-01-15", 120)
	badgeID := seedBadge(t, db, "first-light", `{"type": "first_entry"}`)

	eval := newTestEvaluator(t, mustDay(t, "2026-01-15"))

	newly, err := eval.Refresh(context.Background(), db, userID)
	require.NoError(t, err)
	require.Len(t, newly, 1)
	assert.Equal(t, badgeID, newly[0].ID)

	var events int64
	require.NoError(t, db.Model(&models.OutboxEvent{}).Count(&events).Error)
	assert.EqualValues(t, 1, events)

	var profile models.Profile
	require.NoError(t, db.Where("user_id = ?", userID).First(&profile).Error)
	assert.Equal(t, 1, profile.TotalEntries)
	assert.Equal(t, 1, profile.TotalBadgesEarned)
}

func TestEvaluatorIdempotent(t *testing.T) {
	db := setupBadgesTestDB(t)
	userID := uuid.New()
	seedProfile(t, db, userID, nil)
	seedEntry(t, db, userID, "2026-01-15", 120)
	seedBadge(t, db, "first-light", `{"type": "first_entry"}`)

	eval := newTestEvaluator(t, mustDay(t, "2026-01-15"))

	first, err := eval.Refresh(context.Background(), db, userID)
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := eval.Refresh(context.Background(), db, userID)
	require.NoError(t, err)
	assert.Empty(t, second)

	var awards int64
	require.NoError(t, db.Model(&models.UserBadge{}).Where("user_id = ?", userID).Count(&awards).Error)
	assert.EqualValues(t, 1, awards)
}

func TestEvaluatorEntryCountTarget(t *testing.T) {
	db := setupBadgesTestDB(t)
	userID := uuid.New()
	seedProfile(t, db, userID, nil)
	seedBadge(t, db, "ten-pages", `{"type": "entry_count", "count": 10}`)

	for i := 0; i < 9; i++ {
		seedEntry(t, db, userID, time.Date(2026, 1, 1+i, 0, 0, 0, 0, time.UTC).Format("2006-01-02"), 50)
	}

	eval := newTestEvaluator(t, mustDay(t, "2026-01-10"))

	newly, err := eval.Refresh(context.Background(), db, userID)
	require.NoError(t, err)
	assert.Empty(t, newly)

	seedEntry(t, db, userID, "2026-01-10", 50)
	newly, err = eval.Refresh(context.Background(), db, userID)
	require.NoError(t, err)
	require.Len(t, newly, 1)
	assert.Equal(t, "ten-pages", newly[0].Slug)
}

func TestEvaluatorSkipsUnknownCriteria(t *testing.T) {
	db := setupBadgesTestDB(t)
	userID := uuid.New()
	seedProfile(t, db, userID, nil)
	seedEntry(t, db, userID, "2026-01-15", 120)
	seedBadge(t, db, "mystery", `{"type": "lunar_phase", "phase": "full"}`)

	eval := newTestEvaluator(t, mustDay(t, "2026-01-15"))

	newly, err := eval.Refresh(context.Background(), db, userID)
	require.NoError(t, err)
	assert.Empty(t, newly)
}

func TestEvaluatorLongEntryCountsCharactersNotWords(t *testing.T) {
	db := setupBadgesTestDB(t)
	userID := uuid.New()
	seedProfile(t, db, userID, nil)
	seedBadge(t, db, "deep-diver", `{"type": "long_entry", "min_length": 500}`)

	// 660 characters across only 60 words
	entry := models.JournalEntry{
		ID:        uuid.New(),
		UserID:    userID,
		Content:   strings.Repeat("introspect ", 60),
		Mood:      enums.MoodGood,
		EntryDate: mustDay(t, "2026-01-15"),
		WordCount: 60,
	}
	require.NoError(t, db.Create(&entry).Error)

	eval := newTestEvaluator(t, mustDay(t, "2026-01-15"))

	newly, err := eval.Refresh(context.Background(), db, userID)
	require.NoError(t, err)
	require.Len(t, newly, 1)
	assert.Equal(t, "deep-diver", newly[0].Slug)
}

func TestEvaluatorSubscriptionBadgeSurvivesCancellation(t *testing.T) {
	db := setupBadgesTestDB(t)
	userID := uuid.New()
	seedProfile(t, db, userID, func(p *models.Profile) {
		p.SubscriptionStatus = enums.SubscriptionStatusPremium
		p.SubscriptionTier = enums.SubscriptionTierPremium
	})
	seedBadge(t, db, "lumen-supporter", `{"type": "subscription"}`)

	eval := newTestEvaluator(t, mustDay(t, "2026-01-15"))

	newly, err := eval.Refresh(context.Background(), db, userID)
	require.NoError(t, err)
	require.Len(t, newly, 1)

	require.NoError(t, db.Model(&models.Profile{}).
		Where("user_id = ?", userID).
		Update("subscription_status", enums.SubscriptionStatusCancelled).Error)

	newly, err = eval.Refresh(context.Background(), db, userID)
	require.NoError(t, err)
	assert.Empty(t, newly)

	var awards int64
	require.NoError(t, db.Model(&models.UserBadge{}).Where("user_id = ?", userID).Count(&awards).Error)
	assert.EqualValues(t, 1, awards)
}

func TestWeekStart(t *testing.T) {
	wednesday := time.Date(2026, 1, 14, 15, 30, 0, 0, time.UTC)

	monday := WeekStart(wednesday, "monday")
	assert.Equal(t, "2026-01-12", monday.Format("2006-01-02"))

	sunday := WeekStart(wednesday, "sunday")
	assert.Equal(t, "2026-01-11", sunday.Format("2006-01-02"))

	// a monday stays put for monday weeks
	assert.Equal(t, "2026-01-12", WeekStart(monday, "monday").Format("2006-01-02"))
}
