package report

import (
	"fmt"
	"sort"

	"github.com/cam3ron2/review-stats/internal/stats"
	"github.com/prometheus/client_golang/prometheus"
)

// Point is one gauge sample written to the textfile.
type Point struct {
	Name  string
	Help  string
	Value float64
}

// ActivityPoints converts an activity summary into gauges. Statistics that
// are absent for the window are omitted.
func ActivityPoints(summary stats.Summary) []Point {
	points := []Point{
		{Name: "review_stats_requests", Help: "Requests created in the window.", Value: float64(summary.Requests)},
		{Name: "review_stats_active_requests", Help: "Requests with comments or a first review.", Value: float64(summary.Active)},
	}
	if summary.Comments != nil {
		points = append(points,
			Point{Name: "review_stats_comments_mean", Help: "Mean comments per active request.", Value: summary.Comments.Mean},
			Point{Name: "review_stats_comments_min", Help: "Fewest comments on an active request.", Value: float64(summary.Comments.Min)},
			Point{Name: "review_stats_comments_max", Help: "Most comments on an active request.", Value: float64(summary.Comments.Max)},
		)
	}
	if summary.MeanReviewHours != nil {
		points = append(points, Point{
			Name:  "review_stats_first_review_business_hours_mean",
			Help:  "Mean business hours from creation to first review.",
			Value: *summary.MeanReviewHours,
		})
	}
	return points
}

// CommentPoints converts a comment-only summary into gauges.
func CommentPoints(summary stats.CountSummary) []Point {
	return []Point{
		{Name: "review_stats_requests", Help: "Requests created in the window.", Value: float64(summary.Requests)},
		{Name: "review_stats_comments_mean", Help: "Mean comments per request, rounded.", Value: float64(summary.RoundedMean)},
		{Name: "review_stats_comments_min", Help: "Fewest comments on a request.", Value: float64(summary.Min)},
		{Name: "review_stats_comments_max", Help: "Most comments on a request.", Value: float64(summary.Max)},
	}
}

// WriteTextfile atomically writes points with constant labels in the
// Prometheus text format, for the node-exporter textfile collector.
func WriteTextfile(path string, labels map[string]string, points []Point) error {
	registry := prometheus.NewRegistry()
	if err := registry.Register(&pointCollector{labels: labels, points: points}); err != nil {
		return fmt.Errorf("register report metrics: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

type pointCollector struct {
	labels map[string]string
	points []Point
}

func (c *pointCollector) Describe(_ chan<- *prometheus.Desc) {}

func (c *pointCollector) Collect(ch chan<- prometheus.Metric) {
	labelKeys := make([]string, 0, len(c.labels))
	for key := range c.labels {
		labelKeys = append(labelKeys, key)
	}
	sort.Strings(labelKeys)

	labelValues := make([]string, 0, len(labelKeys))
	for _, key := range labelKeys {
		labelValues = append(labelValues, c.labels[key])
	}

	for _, point := range c.points {
		if point.Name == "" {
			continue
		}
		desc := prometheus.NewDesc(point.Name, point.Help, labelKeys, nil)
		metric, err := prometheus.NewConstMetric(desc, prometheus.GaugeValue, point.Value, labelValues...)
		if err != nil {
			continue
		}
		ch <- metric
	}
}
