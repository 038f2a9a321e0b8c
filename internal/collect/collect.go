// Package collect fans per-request fetches out over a bounded worker pool.
package collect

import (
	"context"
	"fmt"
	"time"

	"github.com/cam3ron2/review-stats/internal/review"
	"github.com/cam3ron2/review-stats/internal/telemetry"
	"github.com/cam3ron2/review-stats/internal/window"
	"github.com/cam3ron2/review-stats/internal/workpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	unitComments = "comments"
	unitReview   = "review"
)

// unit is one fetch for the request at index. Comment and review units of a
// run share one pool.
type unit struct {
	index int
	kind  string
}

type outcome struct {
	count int
	hours *float64
}

// Source is a platform that can list requests and fetch their activity.
type Source interface {
	ListRequests(ctx context.Context, w window.Window) ([]review.Request, error)
	CommentCount(ctx context.Context, req review.Request) (int, error)
	ReviewCandidates(ctx context.Context, req review.Request) ([]review.Event, error)
}

// Result holds per-request outcomes aligned with Requests.
type Result struct {
	Requests []review.Request
	Counts   []int
	// Hours is nil for requests without a qualifying review event.
	Hours []*float64
}

// Collector runs the per-request units of work for a window.
type Collector struct {
	source  Source
	workers int
	logger  *zap.Logger
}

// New creates a collector. workers <= 0 uses workpool.DefaultWorkers and a
// nil logger discards output.
func New(source Source, workers int, logger *zap.Logger) (*Collector, error) {
	if source == nil {
		return nil, fmt.Errorf("source is required")
	}
	if workers <= 0 {
		workers = workpool.DefaultWorkers
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{source: source, workers: workers, logger: logger}, nil
}

// Run lists the requests created inside w and collects both comment counts
// and review times. A listing failure is fatal; per-request failures are
// logged and recorded as 0 comments or no review time.
func (c *Collector) Run(ctx context.Context, w window.Window) (Result, error) {
	return c.run(ctx, w, true)
}

// RunComments is Run without the review time units.
func (c *Collector) RunComments(ctx context.Context, w window.Window) (Result, error) {
	return c.run(ctx, w, false)
}

func (c *Collector) run(ctx context.Context, w window.Window, withReviews bool) (Result, error) {
	ctx, span := telemetry.Tracer("collect").Start(
		ctx,
		"collect.run",
		trace.WithAttributes(
			attribute.String("window.start", w.StartDate()),
			attribute.String("window.end", w.EndDate()),
			attribute.Bool("review_times", withReviews),
		),
	)
	defer span.End()

	started := time.Now()
	requests, err := c.source.ListRequests(ctx, w)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list requests failed")
		return Result{}, fmt.Errorf("list requests: %w", err)
	}
	span.SetAttributes(attribute.Int("requests", len(requests)))
	c.logger.Debug("requests listed", zap.Int("request_count", len(requests)), zap.Int("workers", c.workers))

	units := make([]unit, 0, 2*len(requests))
	for i := range requests {
		units = append(units, unit{index: i, kind: unitComments})
		if withReviews {
			units = append(units, unit{index: i, kind: unitReview})
		}
	}
	outcomes := workpool.Map(ctx, c.workers, units, func(ctx context.Context, u unit) outcome {
		req := requests[u.index]
		if u.kind == unitReview {
			return outcome{hours: c.reviewHours(ctx, req)}
		}
		return outcome{count: c.commentCount(ctx, req)}
	})

	result := Result{
		Requests: requests,
		Counts:   make([]int, len(requests)),
		Hours:    make([]*float64, len(requests)),
	}
	for i, u := range units {
		if u.kind == unitReview {
			result.Hours[u.index] = outcomes[i].hours
		} else {
			result.Counts[u.index] = outcomes[i].count
		}
	}

	c.logger.Info("collection finished",
		zap.Int("request_count", len(requests)),
		zap.Bool("review_times", withReviews),
		zap.Duration("duration", time.Since(started)),
	)
	span.SetStatus(codes.Ok, "collection completed")
	return result, nil
}

func (c *Collector) commentCount(ctx context.Context, req review.Request) int {
	count, err := c.source.CommentCount(ctx, req)
	if err != nil {
		c.logger.Warn("request fetch failed", zap.Int("request_id", req.ID), zap.String("unit", unitComments), zap.Error(err))
		return 0
	}
	return count
}

func (c *Collector) reviewHours(ctx context.Context, req review.Request) *float64 {
	candidates, err := c.source.ReviewCandidates(ctx, req)
	if err != nil {
		c.logger.Warn("request fetch failed", zap.Int("request_id", req.ID), zap.String("unit", unitReview), zap.Error(err))
		return nil
	}
	return review.FirstReviewHours(req.CreatedAt, candidates)
}
