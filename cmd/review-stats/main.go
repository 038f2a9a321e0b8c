package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cam3ron2/review-stats/internal/collect"
	"github.com/cam3ron2/review-stats/internal/config"
	"github.com/cam3ron2/review-stats/internal/githubapi"
	"github.com/cam3ron2/review-stats/internal/gitlabapi"
	"github.com/cam3ron2/review-stats/internal/report"
	"github.com/cam3ron2/review-stats/internal/stats"
	"github.com/cam3ron2/review-stats/internal/target"
	"github.com/cam3ron2/review-stats/internal/telemetry"
	"github.com/cam3ron2/review-stats/internal/window"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const tokenEnv = "REVIEW_STATS_TOKEN"

const (
	modeActivity = "activity"
	modeComments = "comments"
)

type options struct {
	url           string
	token         string
	platform      string
	apiURL        string
	startDate     string
	endDate       string
	referenceDate string
	mode          string
	configPath    string
	logLevel      string
	metricsFile   string
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Getenv, time.Now)
	cancel()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stdout, "review-stats: %v\n", err)
		os.Exit(1)
	}
}

func parseOptions(args []string, getenv func(string) string, output io.Writer) (options, error) {
	var opts options
	flags := flag.NewFlagSet("review-stats", flag.ContinueOnError)
	flags.SetOutput(output)
	flags.StringVar(&opts.url, "url", "", "project URL, e.g. https://github.com/owner/repo or https://gitlab.com/group/project")
	flags.StringVar(&opts.token, "token", "", "access token (default $"+tokenEnv+")")
	flags.StringVar(&opts.platform, "platform", "", "github or gitlab (default inferred from the URL host)")
	flags.StringVar(&opts.apiURL, "api-url", "", "API base URL override")
	flags.StringVar(&opts.startDate, "start-date", "", "window start date, YYYY-MM-DD")
	flags.StringVar(&opts.endDate, "end-date", "", "window end date, YYYY-MM-DD")
	flags.StringVar(&opts.referenceDate, "reference-date", "", "report the month before this date, YYYY-MM-DD (default today)")
	flags.StringVar(&opts.mode, "mode", modeActivity, "report mode: activity or comments")
	flags.StringVar(&opts.configPath, "config", "", "optional path to YAML config file")
	flags.StringVar(&opts.logLevel, "log-level", "", "debug|info|warn|error (overrides config)")
	flags.StringVar(&opts.metricsFile, "metrics-file", "", "write a Prometheus textfile to this path (overrides config)")
	if err := flags.Parse(args); err != nil {
		return options{}, err
	}

	if strings.TrimSpace(opts.url) == "" {
		return options{}, fmt.Errorf("-url is required")
	}
	if opts.token == "" && getenv != nil {
		opts.token = getenv(tokenEnv)
	}
	opts.mode = strings.ToLower(strings.TrimSpace(opts.mode))
	if opts.mode != modeActivity && opts.mode != modeComments {
		return options{}, fmt.Errorf("unsupported mode %q: expected activity or comments", opts.mode)
	}
	if (opts.startDate == "") != (opts.endDate == "") {
		return options{}, fmt.Errorf("-start-date and -end-date must be given together")
	}
	return opts, nil
}

func run(ctx context.Context, args []string, stdout io.Writer, getenv func(string) string, now func() time.Time) error {
	opts, err := parseOptions(args, getenv, os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return nil
	}
	if err != nil {
		return err
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	loggerConfig := zap.NewProductionConfig()
	loggerConfig.Level = zap.NewAtomicLevelAt(logLevel(cfg.LogLevel))
	logger, err := loggerConfig.Build()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() {
		if syncErr := logger.Sync(); syncErr != nil && !shouldIgnoreLoggerSyncError(syncErr) {
			_, _ = fmt.Fprintf(os.Stderr, "review-stats: logger sync: %v\n", syncErr)
		}
	}()

	telemetryRuntime, err := telemetry.Setup(telemetry.Config{
		Enabled:          cfg.Telemetry.OTELEnabled,
		ServiceName:      "review-stats",
		TraceMode:        cfg.Telemetry.OTELTraceMode,
		TraceSampleRatio: cfg.Telemetry.OTELTraceSampleRatio,
	})
	if err != nil {
		return fmt.Errorf("setup telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = telemetryRuntime.Shutdown(shutdownCtx)
	}()

	platform, err := target.ParsePlatform(opts.platform)
	if err != nil {
		return err
	}
	tgt, err := target.Parse(opts.url, platform)
	if err != nil {
		return err
	}

	w, implicit, err := reportWindow(opts, now)
	if err != nil {
		return err
	}

	source, err := newSource(tgt, cfg, opts)
	if err != nil {
		return err
	}
	collector, err := collect.New(source, cfg.Concurrency, logger)
	if err != nil {
		return err
	}

	logger.Info("report starting",
		zap.String("platform", string(tgt.Platform)),
		zap.String("project", tgt.Path),
		zap.String("mode", opts.mode),
		zap.String("window_start", w.StartDate()),
		zap.String("window_end", w.EndDate()),
	)

	heading := report.HeadingFor(tgt.Label())
	if err := report.Fetching(stdout, heading, tgt.Path, w); err != nil {
		return err
	}

	var points []report.Point
	switch opts.mode {
	case modeComments:
		points, err = runComments(ctx, collector, stdout, heading, w, implicit)
	default:
		points, err = runActivity(ctx, collector, stdout, heading, w)
	}
	if err != nil {
		return err
	}

	if cfg.Output.MetricsFile != "" {
		labels := map[string]string{
			"platform":     string(tgt.Platform),
			"project":      tgt.Path,
			"mode":         opts.mode,
			"window_start": w.StartDate(),
			"window_end":   w.EndDate(),
		}
		if err := report.WriteTextfile(cfg.Output.MetricsFile, labels, points); err != nil {
			return err
		}
		logger.Info("metrics textfile written", zap.String("path", cfg.Output.MetricsFile), zap.Int("points", len(points)))
	}
	return nil
}

func runActivity(ctx context.Context, collector *collect.Collector, stdout io.Writer, heading report.Heading, w window.Window) ([]report.Point, error) {
	result, err := collector.Run(ctx, w)
	if err != nil {
		return nil, err
	}
	summary, err := stats.Summarize(result.Counts, result.Hours)
	if err != nil {
		return nil, err
	}
	if summary.Requests == 0 {
		return report.ActivityPoints(summary), report.NoRequests(stdout, heading, w)
	}
	return report.ActivityPoints(summary), report.Activity(stdout, heading, w, summary)
}

func runComments(ctx context.Context, collector *collect.Collector, stdout io.Writer, heading report.Heading, w window.Window, implicit bool) ([]report.Point, error) {
	result, err := collector.RunComments(ctx, w)
	if err != nil {
		return nil, err
	}
	summary, ok := stats.SummarizeAll(result.Counts)
	if !ok {
		if implicit {
			return report.CommentPoints(summary), report.NoRequestsPreviousMonth(stdout, heading)
		}
		return report.CommentPoints(summary), report.NoRequests(stdout, heading, w)
	}
	return report.CommentPoints(summary), report.Comments(stdout, heading, summary)
}

func loadConfig(opts options) (*config.Config, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		loaded, err := config.LoadFile(opts.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if opts.logLevel != "" {
		cfg.LogLevel = strings.ToLower(strings.TrimSpace(opts.logLevel))
	}
	if opts.metricsFile != "" {
		cfg.Output.MetricsFile = strings.TrimSpace(opts.metricsFile)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// reportWindow returns the explicit date window, or the previous calendar
// month relative to the reference date. implicit is true for the latter.
func reportWindow(opts options, now func() time.Time) (window.Window, bool, error) {
	if opts.startDate != "" {
		w, err := window.Parse(opts.startDate, opts.endDate)
		return w, false, err
	}

	reference := now()
	if opts.referenceDate != "" {
		parsed, err := window.ParseDate(opts.referenceDate)
		if err != nil {
			return window.Window{}, true, err
		}
		reference = parsed
	}
	return window.PreviousMonth(reference), true, nil
}

func newSource(tgt target.Target, cfg *config.Config, opts options) (collect.Source, error) {
	token := strings.TrimSpace(opts.token)
	switch tgt.Platform {
	case target.PlatformGitHub:
		apiBaseURL := cfg.GitHub.APIBaseURL
		if opts.apiURL != "" {
			apiBaseURL = opts.apiURL
		}

		var httpClient *http.Client
		if cfg.GitHub.AppAuth() {
			client, err := githubapi.NewAppHTTPClient(githubapi.AppAuthConfig{
				AppID:          cfg.GitHub.AppID,
				InstallationID: cfg.GitHub.InstallationID,
				PrivateKeyPath: cfg.GitHub.PrivateKeyPath,
				APIBaseURL:     apiBaseURL,
				Timeout:        cfg.RequestTimeout,
			})
			if err != nil {
				return nil, err
			}
			httpClient = client
		} else {
			if token == "" {
				return nil, fmt.Errorf("a token is required: pass -token or set %s", tokenEnv)
			}
			httpClient = githubapi.NewTokenHTTPClient(token, cfg.RequestTimeout, nil)
		}

		client, err := githubapi.NewGitHubRESTClient(httpClient, apiBaseURL)
		if err != nil {
			return nil, err
		}
		return githubapi.NewSource(client, tgt.Owner, tgt.Repo)

	case target.PlatformGitLab:
		if token == "" {
			return nil, fmt.Errorf("a token is required: pass -token or set %s", tokenEnv)
		}
		apiBaseURL := tgt.GitLabAPIBaseURL()
		if cfg.GitLab.APIBaseURL != "" {
			apiBaseURL = cfg.GitLab.APIBaseURL
		}
		if opts.apiURL != "" {
			apiBaseURL = opts.apiURL
		}
		client, err := gitlabapi.NewClient(apiBaseURL, token, cfg.RequestTimeout, nil)
		if err != nil {
			return nil, err
		}
		return gitlabapi.NewSource(client, tgt.Path)
	}
	return nil, fmt.Errorf("unsupported platform %q", tgt.Platform)
}

func logLevel(raw string) zapcore.Level {
	switch strings.ToLower(raw) {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// shouldIgnoreLoggerSyncError reports sync failures on terminals and pipes,
// which do not support fsync.
func shouldIgnoreLoggerSyncError(err error) bool {
	return errors.Is(err, syscall.EINVAL) || errors.Is(err, syscall.ENOTTY)
}
