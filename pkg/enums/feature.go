package enums

// Feature identifies a rate-limited, AI-assisted capability guarded by the
// entitlement gate.
type Feature string

const (
	FeaturePromptGeneration Feature = "prompt_generation"
	FeatureMoodAnalysis     Feature = "mood_analysis"
	FeatureAffirmation      Feature = "affirmation"
	FeatureMoodQuote        Feature = "mood_quote"
)

var validFeatures = []Feature{
	FeaturePromptGeneration,
	FeatureMoodAnalysis,
	FeatureAffirmation,
	FeatureMoodQuote,
}

// Features returns the recognized rate-limited feature keys.
func Features() []Feature {
	out := make([]Feature, len(validFeatures))
	copy(out, validFeatures)
	return out
}

// String implements fmt.Stringer.
func (f Feature) String() string {
	return string(f)
}

// IsValid reports whether the feature key is recognized. Unrecognized keys
// are still gated, with the stricter default limit.
func (f Feature) IsValid() bool {
	for _, candidate := range validFeatures {
		if candidate == f {
			return true
		}
	}
	return false
}
