// Package review classifies request activity and finds the first review.
package review

import (
	"errors"
	"time"
)

// Kind identifies the source of an activity event.
type Kind string

const (
	// KindComment is a human-authored note on a merge request.
	KindComment Kind = "comment"
	// KindSystemNote is a platform-generated note on a merge request.
	KindSystemNote Kind = "system_note"
	// KindApproval is a synthesized event for one approver.
	KindApproval Kind = "approval"
	// KindReviewComment is a pull request review comment.
	KindReviewComment Kind = "review_comment"
	// KindFormalReview is a submitted pull request review.
	KindFormalReview Kind = "formal_review"
)

// ErrApprovalsUnavailable reports that approval data cannot be read for a request.
var ErrApprovalsUnavailable = errors.New("approvals unavailable")

// Request is one merge or pull request in the reporting window.
type Request struct {
	ID        int
	CreatedAt time.Time
}

// Event is one piece of activity recorded against a request.
type Event struct {
	Kind   Kind
	At     time.Time
	Body   string
	System bool
	Author string
}

// Approval is one approver record from the approvals endpoint.
type Approval struct {
	Approver   string
	ApprovedAt time.Time
}
