package review

import (
	"time"

	"github.com/cam3ron2/review-stats/internal/businesshours"
)

// Earliest returns the event with the smallest timestamp. Among equal
// timestamps the first in input order wins.
func Earliest(events []Event) (Event, bool) {
	if len(events) == 0 {
		return Event{}, false
	}
	earliest := events[0]
	for _, event := range events[1:] {
		if event.At.Before(earliest.At) {
			earliest = event
		}
	}
	return earliest, true
}

// FirstReviewHours returns the business hours from createdAt to the earliest
// candidate, or nil when there is none.
func FirstReviewHours(createdAt time.Time, candidates []Event) *float64 {
	first, ok := Earliest(candidates)
	if !ok {
		return nil
	}
	hours := businesshours.Between(createdAt, first.At)
	return &hours
}
