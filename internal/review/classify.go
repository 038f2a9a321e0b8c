package review

import "strings"

var reviewMarkers = []string{
	"approved this merge request",
	"unapproved this merge request",
	"requested changes",
	"rejected",
	"merged",
	"closed",
}

var reviewRequestMarkers = []string{
	"requested review",
	"removed review request",
}

// IsReviewActivity reports whether a note counts as a response to the request.
// Review-request lifecycle notes never count.
func IsReviewActivity(note Event) bool {
	body := strings.ToLower(note.Body)
	if containsAny(body, reviewRequestMarkers) {
		return false
	}
	return !note.System || containsAny(body, reviewMarkers)
}

// ClassifyNotes keeps the review-relevant notes, tagging each as a comment or
// a system note.
func ClassifyNotes(notes []Event) []Event {
	relevant := make([]Event, 0, len(notes))
	for _, note := range notes {
		if !IsReviewActivity(note) {
			continue
		}
		note.Kind = KindComment
		if note.System {
			note.Kind = KindSystemNote
		}
		relevant = append(relevant, note)
	}
	return relevant
}

// PullRequestCandidates returns the first review comment and the first formal
// review. Items without a timestamp are not candidates.
func PullRequestCandidates(reviewComments, reviews []Event) []Event {
	candidates := make([]Event, 0, 2)
	if len(reviewComments) > 0 && !reviewComments[0].At.IsZero() {
		first := reviewComments[0]
		first.Kind = KindReviewComment
		candidates = append(candidates, first)
	}
	if len(reviews) > 0 && !reviews[0].At.IsZero() {
		first := reviews[0]
		first.Kind = KindFormalReview
		candidates = append(candidates, first)
	}
	return candidates
}

// ApprovalEvents synthesizes one approval event per approver with a known
// approval time.
func ApprovalEvents(approvals []Approval) []Event {
	events := make([]Event, 0, len(approvals))
	for _, approval := range approvals {
		if approval.ApprovedAt.IsZero() {
			continue
		}
		approver := approval.Approver
		if approver == "" {
			approver = "unknown"
		}
		events = append(events, Event{
			Kind:   KindApproval,
			At:     approval.ApprovedAt,
			Body:   "approved by " + approver,
			Author: approver,
		})
	}
	return events
}

// CollapseApprovals turns a best-effort approvals fetch into its events. Any fetch
// error yields no events.
func CollapseApprovals(approvals []Approval, err error) []Event {
	if err != nil {
		return nil
	}
	return ApprovalEvents(approvals)
}

func containsAny(body string, markers []string) bool {
	for _, marker := range markers {
		if strings.Contains(body, marker) {
			return true
		}
	}
	return false
}
