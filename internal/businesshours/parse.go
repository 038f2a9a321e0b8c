package businesshours

import (
	"fmt"
	"regexp"
	"time"
)

// offsetMarker matches the first timezone suffix of a timestamp.
var offsetMarker = regexp.MustCompile(`[+\-]\d{2}:\d{2}|Z`)

// Layouts are tried in order; the first successful parse wins.
var timestampLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// ParseError reports a timestamp that matched none of the accepted layouts.
type ParseError struct {
	Value string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse timestamp %q: unrecognized format", e.Value)
}

// ParseTimestamp normalizes an API timestamp into a timezone-naive instant.
//
// Any "±HH:MM" or "Z" suffix is discarded without adjusting the wall clock, so
// the returned time carries the source's local wall-clock reading in UTC.
func ParseTimestamp(raw string) (time.Time, error) {
	cleaned := raw
	if loc := offsetMarker.FindStringIndex(raw); loc != nil {
		cleaned = raw[:loc[0]]
	}

	for _, layout := range timestampLayouts {
		parsed, err := time.Parse(layout, cleaned)
		if err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, &ParseError{Value: raw}
}

// Naive drops the location of t, keeping its wall-clock reading.
func Naive(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}
