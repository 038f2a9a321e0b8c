package stats

import "testing"

func ptr(v float64) *float64 {
	return &v
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name           string
		counts         []int
		hours          []*float64
		wantActive     int
		wantComments   *CommentStats
		wantReviewMean *float64
	}{
		{
			name:           "review_only_request_counts_as_active",
			counts:         []int{0, 5, 0},
			hours:          []*float64{nil, ptr(2), ptr(3)},
			wantActive:     2,
			wantComments:   &CommentStats{Mean: 2.5, Min: 0, Max: 5},
			wantReviewMean: ptr(2.5),
		},
		{
			name:         "comments_without_reviews",
			counts:       []int{3, 1, 0},
			hours:        []*float64{nil, nil, nil},
			wantActive:   2,
			wantComments: &CommentStats{Mean: 2, Min: 1, Max: 3},
		},
		{
			name:       "no_activity",
			counts:     []int{0, 0},
			hours:      []*float64{nil, nil},
			wantActive: 0,
		},
		{
			name:       "empty_window",
			wantActive: 0,
		},
		{
			name:           "zero_hour_review_is_activity",
			counts:         []int{0},
			hours:          []*float64{ptr(0)},
			wantActive:     1,
			wantComments:   &CommentStats{Mean: 0, Min: 0, Max: 0},
			wantReviewMean: ptr(0),
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := Summarize(tc.counts, tc.hours)
			if err != nil {
				t.Fatalf("Summarize() unexpected error: %v", err)
			}
			if got.Requests != len(tc.counts) {
				t.Fatalf("Requests = %d, want %d", got.Requests, len(tc.counts))
			}
			if got.Active != tc.wantActive {
				t.Fatalf("Active = %d, want %d", got.Active, tc.wantActive)
			}
			switch {
			case tc.wantComments == nil && got.Comments != nil:
				t.Fatalf("Comments = %+v, want nil", *got.Comments)
			case tc.wantComments != nil && (got.Comments == nil || *got.Comments != *tc.wantComments):
				t.Fatalf("Comments = %+v, want %+v", got.Comments, *tc.wantComments)
			}
			switch {
			case tc.wantReviewMean == nil && got.MeanReviewHours != nil:
				t.Fatalf("MeanReviewHours = %v, want nil", *got.MeanReviewHours)
			case tc.wantReviewMean != nil && (got.MeanReviewHours == nil || *got.MeanReviewHours != *tc.wantReviewMean):
				t.Fatalf("MeanReviewHours = %v, want %v", got.MeanReviewHours, *tc.wantReviewMean)
			}
		})
	}
}

func TestSummarizeRejectsMismatchedInputs(t *testing.T) {
	t.Parallel()

	if _, err := Summarize([]int{1, 2}, []*float64{nil}); err == nil {
		t.Fatalf("Summarize() expected error, got nil")
	}
}

func TestSummarizeAll(t *testing.T) {
	t.Parallel()

	if _, ok := SummarizeAll(nil); ok {
		t.Fatalf("SummarizeAll(nil) ok = true, want false")
	}

	testCases := []struct {
		name   string
		counts []int
		want   CountSummary
	}{
		{name: "includes_zero_counts", counts: []int{0, 4, 2}, want: CountSummary{Requests: 3, RoundedMean: 2, Min: 0, Max: 4}},
		{name: "rounds_half_to_even_down", counts: []int{2, 3}, want: CountSummary{Requests: 2, RoundedMean: 2, Min: 2, Max: 3}},
		{name: "rounds_half_to_even_up", counts: []int{3, 4}, want: CountSummary{Requests: 2, RoundedMean: 4, Min: 3, Max: 4}},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, ok := SummarizeAll(tc.counts)
			if !ok || got != tc.want {
				t.Fatalf("SummarizeAll(%v) = %+v, %t, want %+v", tc.counts, got, ok, tc.want)
			}
		})
	}
}
