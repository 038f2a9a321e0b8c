// Package report renders review statistics for people and for node-exporter.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/cam3ron2/review-stats/internal/stats"
	"github.com/cam3ron2/review-stats/internal/window"
)

// Heading names the report subject, e.g. ("PR", "PR Comment Stats").
type Heading struct {
	// Label is the short request noun, "PR" or "MR".
	Label string
	// Title prefixes the summary header line.
	Title string
}

// HeadingFor returns the heading for a request label. MR reports carry the
// GitLab prefix.
func HeadingFor(label string) Heading {
	title := label + " Comment Stats"
	if label == "MR" {
		title = "GitLab " + title
	}
	return Heading{Label: label, Title: title}
}

// Fetching writes the progress line printed before listing starts.
func Fetching(out io.Writer, h Heading, project string, w window.Window) error {
	noun := "project"
	if h.Label == "PR" {
		noun = ""
	}
	subject := strings.TrimSpace(noun + " `" + project + "`")
	_, err := fmt.Fprintf(out, "\nFetching %ss for %s created between %s and %s...\n", h.Label, subject, w.StartDate(), w.EndDate())
	return err
}

// NoRequests writes the message for a window without requests.
func NoRequests(out io.Writer, h Heading, w window.Window) error {
	_, err := fmt.Fprintf(out, "No %ss found between %s and %s.\n", h.Label, w.StartDate(), w.EndDate())
	return err
}

// Activity writes the activity summary for a window.
func Activity(out io.Writer, h Heading, w window.Window, summary stats.Summary) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s for %s to %s:\n", h.Title, w.StartDate(), w.EndDate())
	fmt.Fprintf(&b, "• %ss with activity: %d\n", h.Label, summary.Active)

	if summary.Comments != nil {
		fmt.Fprintf(&b, "• Mean comments: %.1f\n", summary.Comments.Mean)
		fmt.Fprintf(&b, "• Max comments: %d\n", summary.Comments.Max)
		fmt.Fprintf(&b, "• Min comments: %d\n", summary.Comments.Min)
	} else {
		fmt.Fprintf(&b, "• No comments found on %ss\n", h.Label)
	}

	if summary.MeanReviewHours != nil {
		fmt.Fprintf(&b, "• Avg review time: %.1f business hours (excluding weekends)\n", *summary.MeanReviewHours)
	} else {
		fmt.Fprintf(&b, "• Avg review time: No reviews found on any %ss\n", h.Label)
	}

	_, err := io.WriteString(out, b.String())
	return err
}

// NoRequestsPreviousMonth writes the message for an empty implicit window.
func NoRequestsPreviousMonth(out io.Writer, h Heading) error {
	_, err := fmt.Fprintf(out, "No %ss found in the previous month.\n", h.Label)
	return err
}

// Comments writes the comment-only summary over every request.
func Comments(out io.Writer, h Heading, summary stats.CountSummary) error {
	_, err := fmt.Fprintf(out, ":bar_chart: %s Comment Stats:\n• Mean: %d\n• Min: %d\n• Max: %d\n",
		h.Label, summary.RoundedMean, summary.Min, summary.Max)
	return err
}
