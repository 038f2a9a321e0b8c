// Package config loads the optional YAML configuration of a report run.
package config

import (
	"errors"
	"fmt"
	"io"
	"math"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/cam3ron2/review-stats/internal/telemetry"
	"gopkg.in/yaml.v3"
)

var validLogLevels = []string{"debug", "info", "warn", "error"}

const (
	defaultConcurrency      = 10
	defaultRequestTimeout   = 30 * time.Second
	defaultGitHubAPIBaseURL = "https://api.github.com/"
)

// Config is the root report configuration.
type Config struct {
	LogLevel       string
	Concurrency    int
	RequestTimeout time.Duration
	GitHub         GitHubConfig
	GitLab         GitLabConfig
	Output         OutputConfig
	Telemetry      TelemetryConfig
}

// GitHubConfig configures GitHub API access.
type GitHubConfig struct {
	APIBaseURL string `yaml:"api_base_url"`
	// Setting any of AppID, InstallationID or PrivateKeyPath selects GitHub
	// App authentication, which then requires all three.
	AppID          int64  `yaml:"app_id"`
	InstallationID int64  `yaml:"installation_id"`
	PrivateKeyPath string `yaml:"private_key_path"`
}

// AppAuth reports whether GitHub App installation auth is configured.
func (g GitHubConfig) AppAuth() bool {
	return g.AppID > 0 || g.InstallationID > 0 || g.PrivateKeyPath != ""
}

// GitLabConfig configures GitLab API access.
type GitLabConfig struct {
	// APIBaseURL overrides the API root derived from the project URL.
	APIBaseURL string `yaml:"api_base_url"`
}

// OutputConfig configures report outputs beyond stdout.
type OutputConfig struct {
	MetricsFile string `yaml:"metrics_file"`
}

// TelemetryConfig configures OpenTelemetry behavior.
type TelemetryConfig struct {
	OTELEnabled          bool    `yaml:"otel_enabled"`
	OTELTraceMode        string  `yaml:"otel_trace_mode"`
	OTELTraceSampleRatio float64 `yaml:"otel_trace_sample_ratio"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// LoadFile reads and validates the YAML file at path.
func LoadFile(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer func() { _ = file.Close() }()

	return Load(file)
}

// Load reads configuration from YAML and validates the result. An empty
// document yields the defaults.
func Load(reader io.Reader) (*Config, error) {
	if reader == nil {
		return nil, fmt.Errorf("config reader is nil")
	}

	decoder := yaml.NewDecoder(reader)
	decoder.KnownFields(true)

	var raw rawConfig
	if err := decoder.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unmarshal yaml: %w", err)
	}

	cfg := raw.toConfig()
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate validates configuration values.
func (c *Config) Validate() error {
	var errs []string

	if !slices.Contains(validLogLevels, c.LogLevel) {
		errs = append(errs, "log_level must be one of debug|info|warn|error")
	}
	if c.Concurrency <= 0 {
		errs = append(errs, "concurrency must be > 0")
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, "request_timeout must be > 0")
	}

	if err := validateBaseURL(c.GitHub.APIBaseURL); err != nil {
		errs = append(errs, "github.api_base_url "+err.Error())
	}
	if c.GitHub.AppAuth() {
		if c.GitHub.AppID <= 0 {
			errs = append(errs, "github.app_id must be > 0 when app auth is configured")
		}
		if c.GitHub.InstallationID <= 0 {
			errs = append(errs, "github.installation_id must be > 0 when app auth is configured")
		}
		if c.GitHub.PrivateKeyPath == "" {
			errs = append(errs, "github.private_key_path is required when app auth is configured")
		}
	}
	if c.GitLab.APIBaseURL != "" {
		if err := validateBaseURL(c.GitLab.APIBaseURL); err != nil {
			errs = append(errs, "gitlab.api_base_url "+err.Error())
		}
	}

	if !telemetry.ValidTraceMode(c.Telemetry.OTELTraceMode) {
		errs = append(errs, "telemetry.otel_trace_mode must be one of off|sampled|detailed")
	}
	if c.Telemetry.OTELTraceSampleRatio < 0 || c.Telemetry.OTELTraceSampleRatio > 1 {
		errs = append(errs, "telemetry.otel_trace_sample_ratio must be between 0 and 1")
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func validateBaseURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("must be an absolute URL")
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.Concurrency == 0 {
		cfg.Concurrency = defaultConcurrency
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	if cfg.GitHub.APIBaseURL == "" {
		cfg.GitHub.APIBaseURL = defaultGitHubAPIBaseURL
	}
	if cfg.Telemetry.OTELTraceMode == "" {
		cfg.Telemetry.OTELTraceMode = "off"
	}
}

type duration struct {
	time.Duration
}

func (d *duration) UnmarshalYAML(value *yaml.Node) error {
	if value == nil || value.Kind == 0 || strings.TrimSpace(value.Value) == "" {
		d.Duration = 0
		return nil
	}

	var raw string
	if err := value.Decode(&raw); err != nil {
		return fmt.Errorf("decode duration: %w", err)
	}

	parsed, err := parseFlexibleDuration(raw)
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

func parseFlexibleDuration(raw string) (time.Duration, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, nil
	}

	if standard, err := time.ParseDuration(trimmed); err == nil {
		return standard, nil
	}

	if strings.HasSuffix(trimmed, "d") {
		return parseDurationWithMultiplier(strings.TrimSuffix(trimmed, "d"), 24)
	}
	if strings.HasSuffix(trimmed, "w") {
		return parseDurationWithMultiplier(strings.TrimSuffix(trimmed, "w"), 24*7)
	}

	return 0, fmt.Errorf("parse duration %q: invalid unit", raw)
}

func parseDurationWithMultiplier(numeric string, multiplierHours float64) (time.Duration, error) {
	value, err := strconv.ParseFloat(strings.TrimSpace(numeric), 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration value %q: %w", numeric, err)
	}

	nanos := value * multiplierHours * float64(time.Hour)
	if nanos > math.MaxInt64 || nanos < math.MinInt64 {
		return 0, fmt.Errorf("parse duration value %q: out of range", numeric)
	}
	return time.Duration(nanos), nil
}

type rawConfig struct {
	LogLevel       string          `yaml:"log_level"`
	Concurrency    int             `yaml:"concurrency"`
	RequestTimeout duration        `yaml:"request_timeout"`
	GitHub         GitHubConfig    `yaml:"github"`
	GitLab         GitLabConfig    `yaml:"gitlab"`
	Output         OutputConfig    `yaml:"output"`
	Telemetry      TelemetryConfig `yaml:"telemetry"`
}

func (r rawConfig) toConfig() *Config {
	return &Config{
		LogLevel:       strings.ToLower(strings.TrimSpace(r.LogLevel)),
		Concurrency:    r.Concurrency,
		RequestTimeout: r.RequestTimeout.Duration,
		GitHub: GitHubConfig{
			APIBaseURL:     strings.TrimSpace(r.GitHub.APIBaseURL),
			AppID:          r.GitHub.AppID,
			InstallationID: r.GitHub.InstallationID,
			PrivateKeyPath: strings.TrimSpace(r.GitHub.PrivateKeyPath),
		},
		GitLab: GitLabConfig{
			APIBaseURL: strings.TrimSpace(r.GitLab.APIBaseURL),
		},
		Output: OutputConfig{
			MetricsFile: strings.TrimSpace(r.Output.MetricsFile),
		},
		Telemetry: TelemetryConfig{
			OTELEnabled:          r.Telemetry.OTELEnabled,
			OTELTraceMode:        strings.ToLower(strings.TrimSpace(r.Telemetry.OTELTraceMode)),
			OTELTraceSampleRatio: r.Telemetry.OTELTraceSampleRatio,
		},
	}
}
