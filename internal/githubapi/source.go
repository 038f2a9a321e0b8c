package githubapi

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cam3ron2/review-stats/internal/businesshours"
	"github.com/cam3ron2/review-stats/internal/restclient"
	"github.com/cam3ron2/review-stats/internal/review"
	"github.com/cam3ron2/review-stats/internal/window"
	"github.com/google/go-github/v75/github"
)

const pageSize = 100

// Source reports on the pull requests of one GitHub repository.
type Source struct {
	client *github.Client
	owner  string
	repo   string
}

// NewSource creates a source for owner/repo.
func NewSource(client *github.Client, owner, repo string) (*Source, error) {
	if client == nil {
		return nil, fmt.Errorf("github client is required")
	}
	owner = strings.TrimSpace(owner)
	repo = strings.TrimSpace(repo)
	if owner == "" || repo == "" {
		return nil, fmt.Errorf("owner and repo are required")
	}
	return &Source{client: client, owner: owner, repo: repo}, nil
}

// SearchQuery returns the issue search query selecting pull requests created
// on the dates of w.
func (s *Source) SearchQuery(w window.Window) string {
	return fmt.Sprintf("repo:%s/%s type:pr created:%s..%s", s.owner, s.repo, w.StartDate(), w.EndDate())
}

// ListRequests searches for pull requests created inside w.
func (s *Source) ListRequests(ctx context.Context, w window.Window) ([]review.Request, error) {
	query := s.SearchQuery(w)
	opts := &github.SearchOptions{ListOptions: github.ListOptions{PerPage: pageSize, Page: 1}}

	var requests []review.Request
	for {
		result, resp, err := s.client.Search.Issues(ctx, query, opts)
		if err != nil {
			return nil, wrapError("search pull requests", err)
		}
		if result == nil || len(result.Issues) == 0 {
			break
		}
		for _, issue := range result.Issues {
			requests = append(requests, review.Request{
				ID:        issue.GetNumber(),
				CreatedAt: businesshours.Naive(issue.GetCreatedAt().Time),
			})
		}
		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return requests, nil
}

// CommentCount counts the review comments on a pull request across all pages.
func (s *Source) CommentCount(ctx context.Context, req review.Request) (int, error) {
	opts := &github.PullRequestListCommentsOptions{ListOptions: github.ListOptions{PerPage: pageSize, Page: 1}}

	count := 0
	for {
		comments, resp, err := s.client.PullRequests.ListComments(ctx, s.owner, s.repo, req.ID, opts)
		if err != nil {
			return 0, wrapError("list review comments", err)
		}
		count += len(comments)
		if len(comments) == 0 || resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return count, nil
}

// ReviewCandidates returns the first review comment and the first submitted
// review of a pull request.
func (s *Source) ReviewCandidates(ctx context.Context, req review.Request) ([]review.Event, error) {
	comments, _, err := s.client.PullRequests.ListComments(ctx, s.owner, s.repo, req.ID,
		&github.PullRequestListCommentsOptions{ListOptions: github.ListOptions{PerPage: 1}})
	if err != nil {
		return nil, wrapError("list review comments", err)
	}
	reviews, _, err := s.client.PullRequests.ListReviews(ctx, s.owner, s.repo, req.ID, &github.ListOptions{PerPage: 1})
	if err != nil {
		return nil, wrapError("list reviews", err)
	}

	commentEvents := make([]review.Event, 0, len(comments))
	for _, comment := range comments {
		event := review.Event{
			Body:   comment.GetBody(),
			Author: comment.GetUser().GetLogin(),
		}
		if comment.CreatedAt != nil {
			event.At = businesshours.Naive(comment.GetCreatedAt().Time)
		}
		commentEvents = append(commentEvents, event)
	}

	reviewEvents := make([]review.Event, 0, len(reviews))
	for _, pr := range reviews {
		event := review.Event{
			Body:   pr.GetBody(),
			Author: pr.GetUser().GetLogin(),
		}
		if pr.SubmittedAt != nil {
			event.At = businesshours.Naive(pr.GetSubmittedAt().Time)
		}
		reviewEvents = append(reviewEvents, event)
	}

	return review.PullRequestCandidates(commentEvents, reviewEvents), nil
}

// wrapError maps go-github response errors onto endpoint statuses.
func wrapError(endpoint string, err error) error {
	var responseErr *github.ErrorResponse
	if errors.As(err, &responseErr) && responseErr.Response != nil {
		return &restclient.StatusError{
			Endpoint: endpoint,
			Status:   restclient.StatusFromHTTP(responseErr.Response.StatusCode),
		}
	}
	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		return &restclient.StatusError{Endpoint: endpoint, Status: restclient.EndpointStatusForbidden}
	}
	return fmt.Errorf("%s: %w", endpoint, err)
}
