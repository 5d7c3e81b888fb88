package ai

import (
	"strings"
	"time"

	"github.com/lumenwell/lumen-backend/pkg/enums"
)

// Built-in content served when generation is unavailable. The prompt list
// rotates by day so repeat visitors see variety without any state.
var fallbackPrompts = []string{
	"What moment from today would you like to remember a year from now?",
	"Describe something small that made you smile recently.",
	"What is one thing you are carrying that you could set down tonight?",
	"Write about a person who shaped how you see the world.",
	"What would you tell a friend who felt the way you feel right now?",
	"Where in your body do you feel today's mood, and what is it telling you?",
	"What is something you did today that your past self would be proud of?",
	"Describe the last place you felt completely at ease.",
	"What are you looking forward to, even a little?",
	"If today had a color, what would it be and why?",
}

var fallbackAffirmations = map[enums.Mood]string{
	enums.MoodTerrible: "This feeling is heavy, and it will not last forever. You have gotten through hard days before.",
	enums.MoodBad:      "It is okay to have an off day. Showing up here is already an act of care.",
	enums.MoodOkay:     "Steady is its own kind of strength. You are exactly where you need to be.",
	enums.MoodGood:     "Notice what made today good. You helped build that.",
	enums.MoodGreat:    "Let yourself fully enjoy this. You have earned this lightness.",
}

type fallbackQuote struct {
	Quote  string
	Author string
}

var fallbackQuotes = map[enums.Mood]fallbackQuote{
	enums.MoodTerrible: {"Even the darkest night will end and the sun will rise.", "Victor Hugo"},
	enums.MoodBad:      {"You can't stop the waves, but you can learn to surf.", "Jon Kabat-Zinn"},
	enums.MoodOkay:     {"Wherever you are, be there totally.", "Eckhart Tolle"},
	enums.MoodGood:     {"Happiness is not something ready made. It comes from your own actions.", "Dalai Lama"},
	enums.MoodGreat:    {"Joy is the simplest form of gratitude.", "Karl Barth"},
}

// promptFor rotates through the built-in prompt list by calendar day.
func promptFor(day time.Time) string {
	return fallbackPrompts[day.YearDay()%len(fallbackPrompts)]
}

var moodKeywords = map[enums.Mood][]string{
	enums.MoodTerrible: {"awful", "terrible", "hopeless", "devastated", "worst", "miserable", "despair"},
	enums.MoodBad:      {"sad", "bad", "tired", "anxious", "stressed", "worried", "frustrated", "angry", "lonely"},
	enums.MoodGood:     {"good", "nice", "happy", "calm", "pleasant", "grateful", "content", "relaxed"},
	enums.MoodGreat:    {"great", "amazing", "wonderful", "fantastic", "thrilled", "joyful", "excited", "best"},
}

// classifyMood is the keyword heuristic used when the model is unreachable.
// It scores the text against per-mood word lists; ties and empty scores land
// on okay.
func classifyMood(text string) (enums.Mood, float64) {
	words := strings.Fields(strings.ToLower(text))
	scores := map[enums.Mood]int{}
	for _, word := range words {
		trimmed := strings.Trim(word, ".,!?;:'\"()")
		for mood, keywords := range moodKeywords {
			for _, keyword := range keywords {
				if trimmed == keyword {
					scores[mood]++
				}
			}
		}
	}

	best := enums.MoodOkay
	bestScore := 0
	for _, mood := range enums.Moods() {
		if scores[mood] > bestScore {
			best = mood
			bestScore = scores[mood]
		}
	}
	if bestScore == 0 {
		return enums.MoodOkay, 0.3
	}

	confidence := 0.4 + 0.1*float64(bestScore)
	if confidence > 0.7 {
		confidence = 0.7
	}
	return best, confidence
}
