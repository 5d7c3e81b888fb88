package badges

import (
	"encoding/json"

	"github.com/lumenwell/lumen-backend/pkg/db/models"
	"github.com/lumenwell/lumen-backend/pkg/enums"
)

// Criteria is the rule document stored on a catalog badge. It is a tagged
// union keyed by Type; only the fields relevant to the type are populated.
type Criteria struct {
	Type      enums.CriteriaType     `json:"type"`
	Count     int                    `json:"count,omitempty"`
	Days      int                    `json:"days,omitempty"`
	MinLength int                    `json:"min_length,omitempty"`
	Moods     int                    `json:"moods,omitempty"`
	Tier      enums.SubscriptionTier `json:"tier,omitempty"`
}

// DecodeCriteria parses a badge's jsonb criteria document. Unknown criteria
// types decode fine and simply never match; a malformed document errors.
func DecodeCriteria(raw json.RawMessage) (Criteria, error) {
	var c Criteria
	if err := json.Unmarshal(raw, &c); err != nil {
		return Criteria{}, err
	}
	return c, nil
}

// Snapshot captures everything the evaluator needs about a user at one point
// in time. It is rebuilt from source rows on every evaluation.
type Snapshot struct {
	EntryCount           int
	MaxContentLength     int
	DistinctMoodCount    int
	DistinctDaysThisWeek int
	Profile              *models.Profile
}

// Matches reports whether the criteria is satisfied by the snapshot.
// Unrecognized types always return false.
func (c Criteria) Matches(s Snapshot) bool {
	if s.Profile == nil {
		return false
	}

	switch c.Type {
	case enums.CriteriaFirstEntry:
		return s.EntryCount >= 1
	case enums.CriteriaEntryCount:
		return c.Count > 0 && s.EntryCount >= c.Count
	case enums.CriteriaStreak:
		return c.Days > 0 && s.Profile.CurrentStreak >= c.Days
	case enums.CriteriaWeeklyGoal:
		return s.Profile.WeeklyGoal > 0 && s.DistinctDaysThisWeek >= s.Profile.WeeklyGoal
	case enums.CriteriaLongEntry:
		// min_length counts characters, not words
		return c.MinLength > 0 && s.MaxContentLength >= c.MinLength
	case enums.CriteriaMoodDiversity:
		return c.Moods > 0 && s.DistinctMoodCount >= c.Moods
	case enums.CriteriaSubscription:
		if s.Profile.SubscriptionStatus != enums.SubscriptionStatusPremium {
			return false
		}
		tier := c.Tier
		if tier == "" {
			tier = enums.SubscriptionTierPremium
		}
		if tier == enums.SubscriptionTierPremium {
			return s.Profile.SubscriptionTier.IsPaid()
		}
		return s.Profile.SubscriptionTier == tier
	default:
		return false
	}
}

// Progress returns the numerator and denominator for criteria with a numeric
// target. ok is false for boolean-style criteria and unknown types.
func (c Criteria) Progress(s Snapshot) (current, target int, ok bool) {
	if s.Profile == nil {
		return 0, 0, false
	}

	switch c.Type {
	case enums.CriteriaEntryCount:
		return clamp(s.EntryCount, c.Count), c.Count, c.Count > 0
	case enums.CriteriaStreak:
		return clamp(s.Profile.CurrentStreak, c.Days), c.Days, c.Days > 0
	case enums.CriteriaWeeklyGoal:
		return clamp(s.DistinctDaysThisWeek, s.Profile.WeeklyGoal), s.Profile.WeeklyGoal, s.Profile.WeeklyGoal > 0
	case enums.CriteriaLongEntry:
		return clamp(s.MaxContentLength, c.MinLength), c.MinLength, c.MinLength > 0
	case enums.CriteriaMoodDiversity:
		return clamp(s.DistinctMoodCount, c.Moods), c.Moods, c.Moods > 0
	default:
		return 0, 0, false
	}
}

func clamp(value, max int) int {
	if value > max {
		return max
	}
	return value
}
