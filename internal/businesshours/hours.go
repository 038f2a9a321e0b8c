// Package businesshours measures elapsed time that falls on business days.
package businesshours

import "time"

// IsBusinessDay reports whether day falls Monday through Friday.
func IsBusinessDay(day time.Weekday) bool {
	return day != time.Saturday && day != time.Sunday
}

// Between returns the fractional hours between start and end that fall on
// business days. Weekend days contribute nothing, including partial days.
// A non-positive interval yields 0.
func Between(start, end time.Time) float64 {
	if !start.Before(end) {
		return 0
	}

	total := 0.0
	current := start
	endDay := midnight(end)
	for midnight(current).Before(endDay) {
		nextDay := midnight(current).AddDate(0, 0, 1)
		if IsBusinessDay(current.Weekday()) {
			total += nextDay.Sub(current).Hours()
		}
		current = nextDay
	}

	if IsBusinessDay(current.Weekday()) {
		total += end.Sub(current).Hours()
	}
	return total
}

func midnight(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}
