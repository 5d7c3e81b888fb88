// Package streaks computes journaling streaks from the set of entry dates.
// The streak is always rebuilt from source data rather than incremented, so
// inserts, backdated entries and deletions all converge on the same answer.
package streaks

import (
	"sort"
	"time"
)

// Summary is the result of a streak rebuild.
type Summary struct {
	Current       int
	Best          int
	LastEntryDate *time.Time
}

// Compute rebuilds the streak from the full set of entry dates. Dates may be
// unsorted and may contain duplicates; only the calendar day matters. Current
// is the length of the consecutive-day run ending at the most recent date.
// Best never decreases: the longest run found is merged with bestSoFar.
func Compute(dates []time.Time, bestSoFar int) Summary {
	days := normalize(dates)
	if len(days) == 0 {
		return Summary{Best: bestSoFar}
	}

	longest := 1
	run := 1
	for i := 1; i < len(days); i++ {
		if days[i].Sub(days[i-1]) == 24*time.Hour {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}

	// run now holds the trailing run ending at the latest day
	best := longest
	if bestSoFar > best {
		best = bestSoFar
	}

	last := days[len(days)-1]
	return Summary{Current: run, Best: best, LastEntryDate: &last}
}

// normalize truncates to UTC midnight, dedupes and sorts ascending.
func normalize(dates []time.Time) []time.Time {
	seen := make(map[time.Time]struct{}, len(dates))
	days := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
		if _, ok := seen[day]; ok {
			continue
		}
		seen[day] = struct{}{}
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}
