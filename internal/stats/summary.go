// Package stats aggregates per-request activity into summary statistics.
package stats

import (
	"fmt"
	"math"
)

// CommentStats describes comment counts across a set of requests.
type CommentStats struct {
	Mean float64
	Min  int
	Max  int
}

// Summary is the aggregate over the activity subset of a reporting window.
type Summary struct {
	// Requests is the number of requests considered.
	Requests int
	// Active is the number of requests with comments or a first review.
	Active int
	// Comments is nil when no request had activity.
	Comments *CommentStats
	// MeanReviewHours is nil when no active request had a first review.
	MeanReviewHours *float64
}

// CountSummary describes comment counts across every request.
type CountSummary struct {
	Requests    int
	RoundedMean int
	Min         int
	Max         int
}

// Summarize aggregates parallel per-request comment counts and first-review
// hours. A request is active when it has at least one comment or a review
// time; the comment mean covers every active request, including zero counts.
func Summarize(counts []int, hours []*float64) (Summary, error) {
	if len(counts) != len(hours) {
		return Summary{}, fmt.Errorf("summarize: %d comment counts but %d review times", len(counts), len(hours))
	}

	summary := Summary{Requests: len(counts)}
	activeCounts := make([]int, 0, len(counts))
	reviewTotal := 0.0
	reviewed := 0
	for i, count := range counts {
		if count <= 0 && hours[i] == nil {
			continue
		}
		activeCounts = append(activeCounts, count)
		if hours[i] != nil {
			reviewTotal += *hours[i]
			reviewed++
		}
	}

	summary.Active = len(activeCounts)
	if len(activeCounts) > 0 {
		mean, minimum, maximum := describe(activeCounts)
		summary.Comments = &CommentStats{Mean: mean, Min: minimum, Max: maximum}
	}
	if reviewed > 0 {
		mean := reviewTotal / float64(reviewed)
		summary.MeanReviewHours = &mean
	}
	return summary, nil
}

// SummarizeAll describes comment counts over every request. The mean is
// rounded half to even.
func SummarizeAll(counts []int) (CountSummary, bool) {
	if len(counts) == 0 {
		return CountSummary{}, false
	}
	mean, minimum, maximum := describe(counts)
	return CountSummary{
		Requests:    len(counts),
		RoundedMean: int(math.RoundToEven(mean)),
		Min:         minimum,
		Max:         maximum,
	}, true
}

func describe(values []int) (mean float64, minimum, maximum int) {
	minimum, maximum = values[0], values[0]
	total := 0
	for _, value := range values {
		total += value
		minimum = min(minimum, value)
		maximum = max(maximum, value)
	}
	return float64(total) / float64(len(values)), minimum, maximum
}
