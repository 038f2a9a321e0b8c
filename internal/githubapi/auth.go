// Package githubapi reads pull request review activity through go-github.
package githubapi

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/cam3ron2/review-stats/internal/restclient"
	"github.com/google/go-github/v75/github"
)

const mediaType = "application/vnd.github+json"

// AppAuthConfig configures GitHub App installation authentication.
type AppAuthConfig struct {
	AppID          int64
	InstallationID int64
	PrivateKeyPath string
	// APIBaseURL is where installation tokens are minted. Empty keeps
	// api.github.com; GitHub Enterprise needs its own API root here.
	APIBaseURL string
	Timeout    time.Duration
	// Doer sends token exchanges and API calls. Nil uses http.DefaultClient.
	Doer restclient.HTTPDoer
}

// NewAppHTTPClient creates an HTTP client that authenticates as one GitHub
// App installation, minting installation tokens on demand.
func NewAppHTTPClient(cfg AppAuthConfig) (*http.Client, error) {
	if cfg.AppID <= 0 || cfg.InstallationID <= 0 {
		return nil, fmt.Errorf("github app id and installation id must be > 0")
	}
	keyPath := strings.TrimSpace(cfg.PrivateKeyPath)
	if keyPath == "" {
		return nil, fmt.Errorf("github app private key path is required")
	}

	base := restclient.New(cfg.Doer, restclient.Options{
		Headers: map[string]string{"Accept": mediaType},
	})
	transport, err := ghinstallation.NewKeyFromFile(base, cfg.AppID, cfg.InstallationID, keyPath)
	if err != nil {
		return nil, fmt.Errorf("load github app key: %w", err)
	}
	if apiBaseURL := strings.TrimRight(strings.TrimSpace(cfg.APIBaseURL), "/"); apiBaseURL != "" {
		transport.BaseURL = apiBaseURL
	}

	return &http.Client{Transport: transport, Timeout: cfg.Timeout}, nil
}

// NewTokenHTTPClient creates an HTTP client that sends token as a bearer
// credential. An empty token yields unauthenticated requests.
func NewTokenHTTPClient(token string, timeout time.Duration, doer restclient.HTTPDoer) *http.Client {
	return &http.Client{
		Transport: restclient.New(doer, restclient.Options{
			Token:   strings.TrimSpace(token),
			Headers: map[string]string{"Accept": mediaType},
		}),
		Timeout: timeout,
	}
}

// NewGitHubRESTClient creates a go-github client, rooted at apiBaseURL when
// one is given.
func NewGitHubRESTClient(httpClient *http.Client, apiBaseURL string) (*github.Client, error) {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	client := github.NewClient(httpClient)

	trimmed := strings.TrimSpace(apiBaseURL)
	if trimmed == "" {
		return client, nil
	}
	parsedURL, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse github api base url: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("parse github api base url: missing scheme or host")
	}
	if !strings.HasSuffix(parsedURL.Path, "/") {
		parsedURL.Path += "/"
	}
	client.BaseURL = parsedURL
	return client, nil
}
