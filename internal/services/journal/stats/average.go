package stats

import "math"

// Summary reports a trailing-window score average together with the
// number of contributing entries. EntriesCount lets callers distinguish
// a no-data zero from a genuine zero-ish average.
type Summary struct {
	Average      float64
	EntriesCount int
}

// WeeklyAverage returns the arithmetic mean of scores rounded to one
// decimal place. An empty set is a defined zero, not an error.
func WeeklyAverage(scores []int) Summary {
	if len(scores) == 0 {
		return Summary{}
	}

	sum := 0
	for _, score := range scores {
		sum += score
	}
	average := float64(sum) / float64(len(scores))
	return Summary{
		Average:      math.Round(average*10) / 10,
		EntriesCount: len(scores),
	}
}
