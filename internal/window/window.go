// Package window builds the creation-date window a report covers.
package window

import (
	"fmt"
	"time"
)

// DateLayout is the accepted YYYY-MM-DD flag format.
const DateLayout = "2006-01-02"

// Window is an inclusive range of creation instants.
type Window struct {
	Start time.Time
	End   time.Time
}

// ParseDate parses a YYYY-MM-DD date as midnight, timezone-naive.
func ParseDate(raw string) (time.Time, error) {
	parsed, err := time.Parse(DateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format: %s. Expected format: YYYY-MM-DD", raw)
	}
	return parsed, nil
}

// Parse builds a window covering every instant from the start date through
// the end of the end date.
func Parse(startDate, endDate string) (Window, error) {
	start, err := ParseDate(startDate)
	if err != nil {
		return Window{}, err
	}
	end, err := ParseDate(endDate)
	if err != nil {
		return Window{}, err
	}
	return New(start, endOfDay(end))
}

// New validates that start does not fall after end.
func New(start, end time.Time) (Window, error) {
	if start.After(end) {
		return Window{}, fmt.Errorf("start date must be before or equal to end date")
	}
	return Window{Start: start, End: end}, nil
}

// PreviousMonth returns the calendar month before the one containing reference.
func PreviousMonth(reference time.Time) Window {
	year, month, _ := reference.Date()
	firstOfMonth := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return Window{
		Start: firstOfMonth.AddDate(0, -1, 0),
		End:   firstOfMonth.Add(-time.Microsecond),
	}
}

// StartDate formats the window start as YYYY-MM-DD.
func (w Window) StartDate() string {
	return w.Start.Format(DateLayout)
}

// EndDate formats the window end as YYYY-MM-DD.
func (w Window) EndDate() string {
	return w.End.Format(DateLayout)
}

func endOfDay(day time.Time) time.Time {
	return day.AddDate(0, 0, 1).Add(-time.Microsecond)
}
