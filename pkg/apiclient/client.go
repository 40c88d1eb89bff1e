// Package apiclient issues JSON requests against the portal's REST backend,
// attaching the bearer token of the current session.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	slogctx "github.com/veqryn/slog-context"
)

const instrumentationName = "github.com/advbs/portal/pkg/apiclient"

const defaultTimeout = 30 * time.Second

// TokenSource yields the current bearer token. It is read-only on purpose:
// the client never changes the session.
type TokenSource interface {
	Get(ctx context.Context) (string, bool)
}

// Options describe a single request.
type Options struct {
	Method string
	Body   any
	Header http.Header
	// Token overrides the token from the TokenSource.
	Token string
	// Anonymous sends the request without an Authorization header.
	Anonymous bool
}

type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	tokens     TokenSource

	tracer   trace.Tracer
	requests metric.Int64Counter
	duration metric.Int64Histogram
}

type Option func(*Client)

// WithHTTPClient replaces the default client (30s timeout).
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// WithTimeout sets the overall timeout of each request.
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) {
		if d > 0 {
			cl.httpClient = &http.Client{Timeout: d, Transport: cl.httpClient.Transport}
		}
	}
}

func New(baseURL string, tokens TokenSource, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing backend base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("backend base url %q must be absolute", baseURL)
	}

	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{Timeout: defaultTimeout},
		tokens:     tokens,
		tracer:     otel.Tracer(instrumentationName),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	meter := otel.Meter(instrumentationName)
	c.requests, err = meter.Int64Counter(
		"backend.request_count",
		metric.WithDescription("Outgoing backend request count"),
		metric.WithUnit("request"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating request_count meter: %w", err)
	}

	c.duration, err = meter.Int64Histogram(
		"backend.duration",
		metric.WithDescription("Outgoing backend request duration"),
		metric.WithUnit("milliseconds"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating duration meter: %w", err)
	}

	return c, nil
}

// BaseURL returns the backend base url without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Request issues the call and returns the raw JSON body of a 2xx answer.
// An empty 2xx body is returned as JSON null.
func (c *Client) Request(ctx context.Context, path string, opts Options) (json.RawMessage, error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if opts.Body != nil {
		b, err := json.Marshal(opts.Body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		body = bytes.NewReader(b)
	}

	header := http.Header{}
	header.Set("Content-Type", "application/json")

	raw, _, err := c.send(ctx, method, path, body, header, opts)
	if err != nil {
		return nil, err
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return json.RawMessage("null"), nil
	}

	if !json.Valid(raw) {
		return nil, Malformed(method, path, errors.New("body is not valid JSON"))
	}

	return raw, nil
}

// Do is Request followed by decoding into out. A nil out discards the body.
func (c *Client) Do(ctx context.Context, path string, opts Options, out any) error {
	raw, err := c.Request(ctx, path, opts)
	if err != nil {
		return err
	}

	if out == nil {
		return nil
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return Malformed(methodOrGet(opts.Method), path, err)
	}

	return nil
}

// send performs the round trip and returns the body of a 2xx response.
func (c *Client) send(ctx context.Context, method, path string, body io.Reader, header http.Header, opts Options) ([]byte, http.Header, error) {
	ctx, span := c.tracer.Start(ctx, method+" "+path,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.path", path),
		),
	)
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), body)
	if err != nil {
		return nil, nil, fmt.Errorf("creating request: %w", err)
	}

	for k, vs := range header {
		req.Header[k] = vs
	}

	if !opts.Anonymous {
		token := opts.Token
		if token == "" && c.tokens != nil {
			token, _ = c.tokens.Get(ctx)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	for k, vs := range opts.Header {
		req.Header[http.CanonicalHeaderKey(k)] = vs
	}

	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	slogctx.Debug(ctx, "Backend request", "method", method, "path", path)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	c.record(ctx, method, status, time.Since(start))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "network error")
		slogctx.Warn(ctx, "Backend unreachable", "method", method, "path", path, "error", err)

		return nil, nil, &Error{Kind: KindNetwork, Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		span.RecordError(err)
		return nil, nil, &Error{Kind: KindNetwork, Method: method, Path: path, Err: fmt.Errorf("reading response body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := httpError(method, path, resp, b)
		span.SetStatus(codes.Error, apiErr.StatusText)
		slogctx.Debug(ctx, "Backend request failed", "method", method, "path", path, "status", resp.StatusCode)

		return nil, nil, apiErr
	}

	return b, resp.Header, nil
}

func (c *Client) record(ctx context.Context, method string, status int, elapsed time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("http.request.method", method),
		attribute.Int("http.response.status_code", status),
	)
	c.requests.Add(ctx, 1, attrs)
	c.duration.Record(ctx, elapsed.Milliseconds(), attrs)
}

func (c *Client) url(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL.String() + path
}

func methodOrGet(method string) string {
	if method == "" {
		return http.MethodGet
	}
	return method
}
