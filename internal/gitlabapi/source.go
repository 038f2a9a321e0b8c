package gitlabapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/cam3ron2/review-stats/internal/businesshours"
	"github.com/cam3ron2/review-stats/internal/review"
	"github.com/cam3ron2/review-stats/internal/window"
	gitlab "gitlab.com/gitlab-org/api/client-go"
)

const pageSize = 100

// Source reports on the merge requests of one GitLab project.
type Source struct {
	client  *gitlab.Client
	project string
}

// NewSource creates a source for the project at path, e.g. "group/project".
func NewSource(client *gitlab.Client, project string) (*Source, error) {
	if client == nil {
		return nil, fmt.Errorf("gitlab client is required")
	}
	project = strings.TrimSpace(project)
	if project == "" {
		return nil, fmt.Errorf("project is required")
	}
	return &Source{client: client, project: project}, nil
}

// ListRequests lists merge requests in any state created inside w. Paging
// stops at a short page or when no next page is advertised.
func (s *Source) ListRequests(ctx context.Context, w window.Window) ([]review.Request, error) {
	opts := &gitlab.ListProjectMergeRequestsOptions{
		ListOptions:   gitlab.ListOptions{PerPage: pageSize, Page: 1},
		State:         gitlab.Ptr("all"),
		CreatedAfter:  gitlab.Ptr(w.Start),
		CreatedBefore: gitlab.Ptr(w.End),
	}

	var requests []review.Request
	for {
		mergeRequests, resp, err := s.client.MergeRequests.ListProjectMergeRequests(s.project, opts, gitlab.WithContext(ctx))
		if err != nil {
			return nil, wrapError("list merge requests", err)
		}
		for _, mr := range mergeRequests {
			if mr.CreatedAt == nil {
				return nil, fmt.Errorf("merge request !%d has no created_at", mr.IID)
			}
			requests = append(requests, review.Request{
				ID:        mr.IID,
				CreatedAt: businesshours.Naive(*mr.CreatedAt),
			})
		}
		if len(mergeRequests) < pageSize || resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return requests, nil
}

// CommentCount counts the human-authored notes on a merge request.
func (s *Source) CommentCount(ctx context.Context, req review.Request) (int, error) {
	notes, err := s.notes(ctx, req.ID)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, note := range notes {
		if !note.System {
			count++
		}
	}
	return count, nil
}

// ReviewCandidates returns the review-relevant notes of a merge request and,
// when it is mergeable, one event per approver.
func (s *Source) ReviewCandidates(ctx context.Context, req review.Request) ([]review.Event, error) {
	notes, err := s.notes(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	candidates := review.ClassifyNotes(notes)

	detail, _, err := s.client.MergeRequests.GetMergeRequest(s.project, req.ID, nil, gitlab.WithContext(ctx))
	if err != nil {
		return nil, wrapError("merge request detail", err)
	}
	if mergeable(detail) {
		candidates = append(candidates, review.CollapseApprovals(s.fetchApprovals(ctx, req.ID))...)
	}
	return candidates, nil
}

func mergeable(mr *gitlab.MergeRequest) bool {
	if mr == nil {
		return false
	}
	return mr.MergeStatus == "can_be_merged" || mr.DetailedMergeStatus == "mergeable"
}

// fetchApprovals reads approvers with their approval times. The typed
// approvals configuration drops the per-approver timestamp, so the payload is
// decoded locally. Error responses, common on editions without approvals,
// are reported as review.ErrApprovalsUnavailable.
func (s *Source) fetchApprovals(ctx context.Context, iid int) ([]review.Approval, error) {
	path := fmt.Sprintf("projects/%s/merge_requests/%d/approvals", url.PathEscape(s.project), iid)
	apiReq, err := s.client.NewRequest(http.MethodGet, path, nil, []gitlab.RequestOptionFunc{gitlab.WithContext(ctx)})
	if err != nil {
		return nil, fmt.Errorf("build approvals request: %w", err)
	}

	var payload approvalsPayload
	if _, err := s.client.Do(apiReq, &payload); err != nil {
		var responseErr *gitlab.ErrorResponse
		if errors.As(err, &responseErr) {
			return nil, review.ErrApprovalsUnavailable
		}
		return nil, fmt.Errorf("merge request approvals: %w", err)
	}

	approvals := make([]review.Approval, 0, len(payload.ApprovedBy))
	for _, entry := range payload.ApprovedBy {
		approval := review.Approval{}
		if entry.User != nil {
			approval.Approver = entry.User.Name
		}
		raw := entry.CreatedAt
		if raw == "" {
			raw = entry.ApprovedAt
		}
		if raw != "" {
			if approvedAt, err := businesshours.ParseTimestamp(raw); err == nil {
				approval.ApprovedAt = approvedAt
			}
		}
		approvals = append(approvals, approval)
	}
	return approvals, nil
}

// notes lists every note of one merge request, oldest first.
func (s *Source) notes(ctx context.Context, iid int) ([]review.Event, error) {
	opts := &gitlab.ListMergeRequestNotesOptions{
		ListOptions: gitlab.ListOptions{PerPage: pageSize, Page: 1},
		Sort:        gitlab.Ptr("asc"),
	}

	var events []review.Event
	for {
		notes, resp, err := s.client.Notes.ListMergeRequestNotes(s.project, iid, opts, gitlab.WithContext(ctx))
		if err != nil {
			return nil, wrapError("list notes", err)
		}
		for _, note := range notes {
			if note.CreatedAt == nil {
				return nil, fmt.Errorf("note %d has no created_at", note.ID)
			}
			events = append(events, review.Event{
				At:     businesshours.Naive(*note.CreatedAt),
				Body:   note.Body,
				System: note.System,
				Author: note.Author.Username,
			})
		}
		if len(notes) == 0 || resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return events, nil
}

type approvalsPayload struct {
	ApprovedBy []approvedByPayload `json:"approved_by"`
}

type approvedByPayload struct {
	User       *userPayload `json:"user"`
	CreatedAt  string       `json:"created_at"`
	ApprovedAt string       `json:"approved_at"`
}

type userPayload struct {
	Name     string `json:"name"`
	Username string `json:"username"`
}
