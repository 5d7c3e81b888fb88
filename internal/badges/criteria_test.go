package badges

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenwell/lumen-backend/pkg/db/models"
	"github.com/lumenwell/lumen-backend/pkg/enums"
)

func snapshotWith(mutate func(*Snapshot)) Snapshot {
	s := Snapshot{
		Profile: &models.Profile{
			WeeklyGoal:         3,
			SubscriptionStatus: enums.SubscriptionStatusFree,
			SubscriptionTier:   enums.SubscriptionTierFree,
		},
	}
	if mutate != nil {
		mutate(&s)
	}
	return s
}

func TestCriteriaMatches(t *testing.T) {
	tests := []struct {
		name     string
		criteria Criteria
		snapshot Snapshot
		want     bool
	}{
		{
			name:     "first entry with one entry",
			criteria: Criteria{Type: enums.CriteriaFirstEntry},
			snapshot: snapshotWith(func(s *Snapshot) { s.EntryCount = 1 }),
			want:     true,
		},
		{
			name:     "first entry with none",
			criteria: Criteria{Type: enums.CriteriaFirstEntry},
			snapshot: snapshotWith(nil),
			want:     false,
		},
		{
			name:     "entry count reached",
			criteria: Criteria{Type: enums.CriteriaEntryCount, Count: 10},
			snapshot: snapshotWith(func(s *Snapshot) { s.EntryCount = 10 }),
			want:     true,
		},
		{
			name:     "entry count short",
			criteria: Criteria{Type: enums.CriteriaEntryCount, Count: 10},
			snapshot: snapshotWith(func(s *Snapshot) { s.EntryCount = 9 }),
			want:     false,
		},
		{
			name:     "streak reached",
			criteria: Criteria{Type: enums.CriteriaStreak, Days: 7},
			snapshot: snapshotWith(func(s *Snapshot) { s.Profile.CurrentStreak = 7 }),
			want:     true,
		},
		{
			name:     "weekly goal hit",
			criteria: Criteria{Type: enums.CriteriaWeeklyGoal},
			snapshot: snapshotWith(func(s *Snapshot) { s.DistinctDaysThisWeek = 3 }),
			want:     true,
		},
		{
			name:     "weekly goal short",
			criteria: Criteria{Type: enums.CriteriaWeeklyGoal},
			snapshot: snapshotWith(func(s *Snapshot) { s.DistinctDaysThisWeek = 2 }),
			want:     false,
		},
		{
			name:     "long entry counts characters",
			criteria: Criteria{Type: enums.CriteriaLongEntry, MinLength: 500},
			snapshot: snapshotWith(func(s *Snapshot) { s.MaxContentLength = 660 }),
			want:     true,
		},
		{
			name:     "long entry short of min length",
			criteria: Criteria{Type: enums.CriteriaLongEntry, MinLength: 500},
			snapshot: snapshotWith(func(s *Snapshot) { s.MaxContentLength = 320 }),
			want:     false,
		},
		{
			name:     "mood diversity",
			criteria: Criteria{Type: enums.CriteriaMoodDiversity, Moods: 5},
			snapshot: snapshotWith(func(s *Snapshot) { s.DistinctMoodCount = 5 }),
			want:     true,
		},
		{
			name:     "subscription premium member",
			criteria: Criteria{Type: enums.CriteriaSubscription},
			snapshot: snapshotWith(func(s *Snapshot) {
				s.Profile.SubscriptionStatus = enums.SubscriptionStatusPremium
				s.Profile.SubscriptionTier = enums.SubscriptionTierPremiumPlus
			}),
			want: true,
		},
		{
			name:     "subscription free user",
			criteria: Criteria{Type: enums.CriteriaSubscription},
			snapshot: snapshotWith(nil),
			want:     false,
		},
		{
			name:     "subscription tier specific mismatch",
			criteria: Criteria{Type: enums.CriteriaSubscription, Tier: enums.SubscriptionTierPremiumPlus},
			snapshot: snapshotWith(func(s *Snapshot) {
				s.Profile.SubscriptionStatus = enums.SubscriptionStatusPremium
				s.Profile.SubscriptionTier = enums.SubscriptionTierPremium
			}),
			want: false,
		},
		{
			name:     "unknown type never matches",
			criteria: Criteria{Type: "lunar_phase"},
			snapshot: snapshotWith(func(s *Snapshot) { s.EntryCount = 100 }),
			want:     false,
		},
		{
			name:     "zero target never matches",
			criteria: Criteria{Type: enums.CriteriaEntryCount},
			snapshot: snapshotWith(func(s *Snapshot) { s.EntryCount = 100 }),
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.criteria.Matches(tt.snapshot))
		})
	}
}

func TestCriteriaProgress(t *testing.T) {
	snapshot := snapshotWith(func(s *Snapshot) {
		s.EntryCount = 7
		s.MaxContentLength = 900
		s.Profile.CurrentStreak = 2
	})

	current, target, ok := Criteria{Type: enums.CriteriaEntryCount, Count: 10}.Progress(snapshot)
	require.True(t, ok)
	assert.Equal(t, 7, current)
	assert.Equal(t, 10, target)

	// progress is capped at the target
	current, target, ok = Criteria{Type: enums.CriteriaLongEntry, MinLength: 500}.Progress(snapshot)
	require.True(t, ok)
	assert.Equal(t, 500, current)
	assert.Equal(t, 500, target)

	_, _, ok = Criteria{Type: enums.CriteriaFirstEntry}.Progress(snapshot)
	assert.False(t, ok)

	_, _, ok = Criteria{Type: "lunar_phase"}.Progress(snapshot)
	assert.False(t, ok)
}

func TestDecodeCriteria(t *testing.T) {
	c, err := DecodeCriteria([]byte(`{"type": "streak", "days": 30}`))
	require.NoError(t, err)
	assert.Equal(t, enums.CriteriaStreak, c.Type)
	assert.Equal(t, 30, c.Days)

	c, err = DecodeCriteria([]byte(`{"type": "lunar_phase", "phase": "full"}`))
	require.NoError(t, err)
	assert.False(t, c.Type.IsValid())

	_, err = DecodeCriteria([]byte(`{"type": `))
	assert.Error(t, err)
}
