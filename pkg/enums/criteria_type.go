package enums

// CriteriaType tags the rule variant stored in a badge's criteria document.
// The catalog is extensible data, so values outside this set are tolerated
// and simply never match.
type CriteriaType string

const (
	CriteriaFirstEntry    CriteriaType = "first_entry"
	CriteriaEntryCount    CriteriaType = "entry_count"
	CriteriaStreak        CriteriaType = "streak"
	CriteriaWeeklyGoal    CriteriaType = "weekly_goal"
	CriteriaLongEntry     CriteriaType = "long_entry"
	CriteriaMoodDiversity CriteriaType = "mood_diversity"
	CriteriaSubscription  CriteriaType = "subscription"
)

var validCriteriaTypes = []CriteriaType{
	CriteriaFirstEntry,
	CriteriaEntryCount,
	CriteriaStreak,
	CriteriaWeeklyGoal,
	CriteriaLongEntry,
	CriteriaMoodDiversity,
	CriteriaSubscription,
}

// IsValid reports whether the evaluator recognizes this criteria type.
func (c CriteriaType) IsValid() bool {
	for _, candidate := range validCriteriaTypes {
		if candidate == c {
			return true
		}
	}
	return false
}
