// Package target resolves a project URL into platform API coordinates.
package target

import (
	"fmt"
	"net/url"
	"strings"
)

// Platform is a supported code-hosting platform.
type Platform string

const (
	// PlatformGitHub targets the GitHub REST API.
	PlatformGitHub Platform = "github"
	// PlatformGitLab targets the GitLab v4 REST API.
	PlatformGitLab Platform = "gitlab"
)

const gitHubHost = "github.com"

// Target is one project to report on.
type Target struct {
	Platform Platform
	// WebBaseURL is the scheme and host of the project URL.
	WebBaseURL string
	// Path is the project path, e.g. "group/subgroup/project".
	Path string
	// Owner and Repo are set for GitHub targets.
	Owner string
	Repo  string
}

// ParsePlatform validates a platform name. An empty name is returned as-is.
func ParsePlatform(raw string) (Platform, error) {
	switch Platform(strings.ToLower(strings.TrimSpace(raw))) {
	case "":
		return "", nil
	case PlatformGitHub:
		return PlatformGitHub, nil
	case PlatformGitLab:
		return PlatformGitLab, nil
	}
	return "", fmt.Errorf("unsupported platform %q: expected github or gitlab", raw)
}

// Parse resolves a project URL. When platform is empty it is inferred from the
// host: github.com targets GitHub, any other host is treated as GitLab.
func Parse(rawURL string, platform Platform) (Target, error) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || parsed.Host == "" || parsed.Scheme == "" {
		return Target{}, fmt.Errorf("invalid project URL %q: expected format https://host/owner/project", rawURL)
	}

	projectPath := strings.Trim(parsed.Path, "/")
	projectPath = strings.TrimSuffix(projectPath, ".git")
	if projectPath == "" {
		return Target{}, fmt.Errorf("invalid project URL %q: missing project path", rawURL)
	}

	if platform == "" {
		platform = PlatformGitLab
		if strings.EqualFold(parsed.Hostname(), gitHubHost) {
			platform = PlatformGitHub
		}
	}

	result := Target{
		Platform:   platform,
		WebBaseURL: parsed.Scheme + "://" + parsed.Host,
		Path:       projectPath,
	}
	if platform == PlatformGitHub {
		parts := strings.Split(projectPath, "/")
		if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
			return Target{}, fmt.Errorf("invalid GitHub repository URL %q: expected format https://github.com/owner/repo", rawURL)
		}
		result.Owner = parts[0]
		result.Repo = parts[1]
		result.Path = parts[0] + "/" + parts[1]
	}
	return result, nil
}

// GitLabAPIBaseURL returns the v4 API root for a GitLab target.
func (t Target) GitLabAPIBaseURL() string {
	return t.WebBaseURL + "/api/v4/"
}

// Label is the noun used for requests on the target's platform.
func (t Target) Label() string {
	if t.Platform == PlatformGitHub {
		return "PR"
	}
	return "MR"
}
