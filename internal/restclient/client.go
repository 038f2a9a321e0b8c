// Package restclient issues authenticated REST calls against a hosting platform.
package restclient

import (
	"fmt"
	"net/http"

	"github.com/cam3ron2/review-stats/internal/telemetry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// HTTPDoer is implemented by http.Client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// CallMetadata reports execution metadata for a client call.
type CallMetadata struct {
	StatusCode int
	Status     EndpointStatus
}

// Options configures request decoration.
type Options struct {
	// Token is sent as a bearer token when non-empty.
	Token string
	// Headers are set on every request unless already present.
	Headers map[string]string
}

// Client wraps platform HTTP requests with auth headers and tracing.
type Client struct {
	doer    HTTPDoer
	token   string
	headers map[string]string
}

// New creates a request client over doer.
func New(doer HTTPDoer, opts Options) *Client {
	if doer == nil {
		doer = http.DefaultClient
	}
	headers := make(map[string]string, len(opts.Headers))
	for key, value := range opts.Headers {
		headers[key] = value
	}
	return &Client{
		doer:    doer,
		token:   opts.Token,
		headers: headers,
	}
}

// Do executes one request. Non-2xx responses are returned without error and
// classified in the metadata.
func (c *Client) Do(req *http.Request) (*http.Response, CallMetadata, error) {
	if req == nil {
		return nil, CallMetadata{}, fmt.Errorf("request is nil")
	}

	ctx := req.Context()
	var span trace.Span
	if telemetry.ShouldTraceDependencies() {
		ctx, span = otel.Tracer("review-stats/internal/restclient").Start(
			ctx,
			"restclient.client.do",
			trace.WithAttributes(
				attribute.String("http.method", req.Method),
				attribute.String("http.path", req.URL.EscapedPath()),
			),
		)
		defer span.End()
	}

	nextReq := req.Clone(ctx)
	if c.token != "" && nextReq.Header.Get("Authorization") == "" {
		nextReq.Header.Set("Authorization", "Bearer "+c.token)
	}
	for key, value := range c.headers {
		if nextReq.Header.Get(key) == "" {
			nextReq.Header.Set(key, value)
		}
	}

	resp, err := c.doer.Do(nextReq)
	if err != nil {
		if span != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		return nil, CallMetadata{}, err
	}
	if resp == nil {
		return nil, CallMetadata{}, fmt.Errorf("nil response")
	}

	metadata := CallMetadata{
		StatusCode: resp.StatusCode,
		Status:     StatusFromHTTP(resp.StatusCode),
	}
	if span != nil {
		span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
		if metadata.Status == EndpointStatusOK {
			span.SetStatus(codes.Ok, "request completed")
		} else {
			span.SetStatus(codes.Error, fmt.Sprintf("status %d", resp.StatusCode))
		}
	}
	return resp, metadata, nil
}

// RoundTrip lets the client serve as the transport of an http.Client, so
// SDK clients share its auth headers and spans.
func (c *Client) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, _, err := c.Do(req)
	return resp, err
}
