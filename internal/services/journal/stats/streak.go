// Package stats derives journal statistics as pure functions over
// an owner's entry history snapshot.
package stats

import (
	"errors"
	"time"
)

// ErrDuplicateDay indicates a history snapshot with two entries on the
// same day, which the storage uniqueness constraint should prevent.
var ErrDuplicateDay = errors.New("entry history contains duplicate days")

const dayLength = 24 * time.Hour

// CurrentStreak counts consecutive days walking backward from the most
// recent entry. Days must be sorted newest first. A gap of two or more
// days stops the walk; an empty history yields 0, a single entry 1.
func CurrentStreak(days []time.Time) (int, error) {
	if len(days) == 0 {
		return 0, nil
	}

	streak := 1
	anchor := TruncateDay(days[0])
	for _, value := range days[1:] {
		candidate := TruncateDay(value)
		switch anchor.Sub(candidate) {
		case 0:
			return 0, ErrDuplicateDay
		case dayLength:
			streak++
			anchor = candidate
		default:
			return streak, nil
		}
	}
	return streak, nil
}

// TruncateDay normalizes a timestamp to UTC midnight.
func TruncateDay(value time.Time) time.Time {
	value = value.UTC()
	return time.Date(value.Year(), value.Month(), value.Day(), 0, 0, 0, 0, time.UTC)
}
