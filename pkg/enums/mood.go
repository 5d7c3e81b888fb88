package enums

import "fmt"

// Mood is the five-level discrete mood scale attached to journal entries,
// ordered from lowest to highest.
type Mood string

const (
	MoodTerrible Mood = "terrible"
	MoodBad      Mood = "bad"
	MoodOkay     Mood = "okay"
	MoodGood     Mood = "good"
	MoodGreat    Mood = "great"
)

var validMoods = []Mood{
	MoodTerrible,
	MoodBad,
	MoodOkay,
	MoodGood,
	MoodGreat,
}

// Moods returns the full ordered scale.
func Moods() []Mood {
	out := make([]Mood, len(validMoods))
	copy(out, validMoods)
	return out
}

// String implements fmt.Stringer.
func (m Mood) String() string {
	return string(m)
}

// IsValid reports whether the value is on the scale.
func (m Mood) IsValid() bool {
	for _, candidate := range validMoods {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseMood converts raw input into a Mood.
func ParseMood(value string) (Mood, error) {
	for _, candidate := range validMoods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid mood %q", value)
}
