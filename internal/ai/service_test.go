package ai

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/lumenwell/lumen-backend/internal/entitlements"
	"github.com/lumenwell/lumen-backend/pkg/config"
	"github.com/lumenwell/lumen-backend/pkg/db"
	"github.com/lumenwell/lumen-backend/pkg/db/models"
	"github.com/lumenwell/lumen-backend/pkg/enums"
	pkgerrors "github.com/lumenwell/lumen-backend/pkg/errors"
)

type stubCompleter struct {
	reply string
	err   error
	calls int
}

func (s *stubCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

type stubCounterStore struct {
	counts map[string]int64
}

func newStubCounterStore() *stubCounterStore {
	return &stubCounterStore{counts: map[string]int64{}}
}

func (s *stubCounterStore) Get(ctx context.Context, key string) (string, error) {
	count, ok := s.counts[key]
	if !ok {
		return "", goredis.Nil
	}
	return strconv.FormatInt(count, 10), nil
}

func (s *stubCounterStore) IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	s.counts[key]++
	return s.counts[key], nil
}

func (s *stubCounterStore) UsageKey(userID, feature, day string) string {
	return strings.Join([]string{"lumen", "usage", userID, feature, day}, ":")
}

func setupAITestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
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
	require.NoError(t, conn.Exec(ddl).Error)
	t.Cleanup(func() {
		conn.Exec("DELETE FROM profiles")
	})
	return conn
}

func seedAIProfile(t *testing.T, conn *gorm.DB, premium bool) uuid.UUID {
	t.Helper()
	userID := uuid.New()
	profile := models.Profile{
		ID:                 uuid.New(),
		UserID:             userID,
		Timezone:           "UTC",
		WeeklyGoal:         3,
		SubscriptionStatus: enums.SubscriptionStatusFree,
		SubscriptionTier:   enums.SubscriptionTierFree,
	}
	if premium {
		profile.SubscriptionStatus = enums.SubscriptionStatusPremium
		profile.SubscriptionTier = enums.SubscriptionTierPremium
	}
	require.NoError(t, conn.Create(&profile).Error)
	return userID
}

func newAITestService(t *testing.T, conn *gorm.DB, store *stubCounterStore, completer completer, now time.Time) Service {
	t.Helper()

	gate, err := entitlements.NewGate(entitlements.GateParams{
		Store: store,
		Config: config.EntitlementsConfig{
			DailyLimit:    2,
			DefaultLimit:  1,
			CounterTTL:    48 * time.Hour,
			UpsellMessage: "Upgrade to Premium for unlimited access.",
		},
		Now: func() time.Time { return now },
	})
	require.NoError(t, err)

	svc, err := NewService(ServiceParams{
		DB:        db.NewFromConn(conn),
		Gate:      gate,
		Completer: completer,
		Now:       func() time.Time { return now },
	})
	require.NoError(t, err)
	return svc
}

func TestGeneratePromptServesFallbackWithoutCompleter(t *testing.T) {
	conn := setupAITestDB(t)
	userID := seedAIProfile(t, conn, false)
	store := newStubCounterStore()
	now := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	svc := newAITestService(t, conn, store, nil, now)

	result, err := svc.GenerateReflectionPrompt(context.Background(), userID)
	require.NoError(t, err)
	assert.True(t, result.Fallback)
	assert.NotEmpty(t, result.Prompt)

	// the use is still charged
	key := store.UsageKey(userID.String(), "prompt_generation", "2026-01-15")
	assert.EqualValues(t, 1, store.counts[key])
}

func TestGeneratePromptUsesCompleter(t *testing.T) {
	conn := setupAITestDB(t)
	userID := seedAIProfile(t, conn, false)
	completer := &stubCompleter{reply: "What surprised you today?"}
	svc := newAITestService(t, conn, newStubCounterStore(), completer, time.Now())

	result, err := svc.GenerateReflectionPrompt(context.Background(), userID)
	require.NoError(t, err)
	assert.False(t, result.Fallback)
	assert.Equal(t, "What surprised you today?", result.Prompt)
	assert.Equal(t, 1, completer.calls)
}

func TestGeneratePromptQuotaExceeded(t *testing.T) {
	conn := setupAITestDB(t)
	userID := seedAIProfile(t, conn, false)
	svc := newAITestService(t, conn, newStubCounterStore(), nil, time.Now())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := svc.GenerateReflectionPrompt(ctx, userID)
		require.NoError(t, err)
	}

	_, err := svc.GenerateReflectionPrompt(ctx, userID)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeQuotaExceeded, typed.Code())
}

func TestPremiumUserNeverDenied(t *testing.T) {
	conn := setupAITestDB(t)
	userID := seedAIProfile(t, conn, true)
	svc := newAITestService(t, conn, newStubCounterStore(), nil, time.Now())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := svc.GenerateReflectionPrompt(ctx, userID)
		require.NoError(t, err)
	}
}

func TestAnalyzeMoodParsesCompletion(t *testing.T) {
	conn := setupAITestDB(t)
	userID := seedAIProfile(t, conn, false)
	completer := &stubCompleter{reply: `{"mood": "great", "confidence": 0.9}`}
	svc := newAITestService(t, conn, newStubCounterStore(), completer, time.Now())

	result, err := svc.AnalyzeMood(context.Background(), userID, "Today was wonderful.")
	require.NoError(t, err)
	assert.Equal(t, enums.MoodGreat, result.Mood)
	assert.InDelta(t, 0.9, result.Confidence, 0.001)
	assert.False(t, result.Fallback)
}

func TestAnalyzeMoodFallsBackOnError(t *testing.T) {
	conn := setupAITestDB(t)
	userID := seedAIProfile(t, conn, false)
	completer := &stubCompleter{err: errors.New("timeout")}
	svc := newAITestService(t, conn, newStubCounterStore(), completer, time.Now())

	result, err := svc.AnalyzeMood(context.Background(), userID, "I feel sad and tired and stressed today.")
	require.NoError(t, err)
	assert.True(t, result.Fallback)
	assert.Equal(t, enums.MoodBad, result.Mood)
}

func TestAnalyzeMoodRequiresText(t *testing.T) {
	conn := setupAITestDB(t)
	userID := seedAIProfile(t, conn, false)
	svc := newAITestService(t, conn, newStubCounterStore(), nil, time.Now())

	_, err := svc.AnalyzeMood(context.Background(), userID, "   ")
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestGenerateAffirmationFallbackPerMood(t *testing.T) {
	conn := setupAITestDB(t)
	userID := seedAIProfile(t, conn, false)
	svc := newAITestService(t, conn, newStubCounterStore(), nil, time.Now())

	result, err := svc.GenerateAffirmation(context.Background(), userID, "", "terrible")
	require.NoError(t, err)
	assert.True(t, result.Fallback)
	assert.Equal(t, fallbackAffirmations[enums.MoodTerrible], result.Affirmation)

	_, err = svc.GenerateAffirmation(context.Background(), userID, "", "euphoric")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestGenerateMoodQuoteParsesCompletion(t *testing.T) {
	conn := setupAITestDB(t)
	userID := seedAIProfile(t, conn, false)
	completer := &stubCompleter{reply: `{"quote": "Keep going.", "author": "Unknown"}`}
	svc := newAITestService(t, conn, newStubCounterStore(), completer, time.Now())

	result, err := svc.GenerateMoodQuote(context.Background(), userID, "okay", "")
	require.NoError(t, err)
	assert.Equal(t, "Keep going.", result.Quote)
	assert.Equal(t, "Unknown", result.Author)
	assert.False(t, result.Fallback)
}

func TestClassifyMood(t *testing.T) {
	mood, confidence := classifyMood("What an amazing, wonderful day! I feel fantastic.")
	assert.Equal(t, enums.MoodGreat, mood)
	assert.Greater(t, confidence, 0.4)

	mood, _ = classifyMood("the weather was unremarkable")
	assert.Equal(t, enums.MoodOkay, mood)

	mood, _ = classifyMood("everything feels hopeless and miserable")
	assert.Equal(t, enums.MoodTerrible, mood)
}

func TestPromptRotationIsDeterministic(t *testing.T) {
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, promptFor(day), promptFor(day))
	assert.NotEqual(t, promptFor(day), promptFor(day.AddDate(0, 0, 1)))
}
