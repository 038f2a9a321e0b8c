// Package gitlabapi reads merge request activity through the GitLab client library.
package gitlabapi

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cam3ron2/review-stats/internal/restclient"
	gitlab "gitlab.com/gitlab-org/api/client-go"
)

// NewClient creates a GitLab client rooted at apiBaseURL, e.g.
// https://gitlab.com/api/v4. The token is sent as a bearer credential and
// calls run through a restclient transport, so they share its spans.
// Retries are disabled.
func NewClient(apiBaseURL, token string, timeout time.Duration, doer restclient.HTTPDoer) (*gitlab.Client, error) {
	trimmedToken := strings.TrimSpace(token)
	if trimmedToken == "" {
		return nil, fmt.Errorf("gitlab token is required")
	}

	parsedURL, err := url.Parse(strings.TrimSpace(apiBaseURL))
	if err != nil {
		return nil, fmt.Errorf("parse gitlab api base url: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("parse gitlab api base url: missing scheme or host")
	}

	httpClient := &http.Client{
		Transport: restclient.New(doer, restclient.Options{}),
		Timeout:   timeout,
	}
	client, err := gitlab.NewOAuthClient(trimmedToken,
		gitlab.WithBaseURL(parsedURL.String()),
		gitlab.WithHTTPClient(httpClient),
		gitlab.WithoutRetries(),
	)
	if err != nil {
		return nil, fmt.Errorf("create gitlab client: %w", err)
	}
	return client, nil
}

// wrapError maps GitLab error responses onto endpoint statuses.
func wrapError(endpoint string, err error) error {
	var responseErr *gitlab.ErrorResponse
	if errors.As(err, &responseErr) && responseErr.Response != nil {
		return &restclient.StatusError{
			Endpoint: endpoint,
			Status:   restclient.StatusFromHTTP(responseErr.Response.StatusCode),
		}
	}
	return fmt.Errorf("%s: %w", endpoint, err)
}
