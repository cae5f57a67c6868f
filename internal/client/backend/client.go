package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/UnknownOlympus/registrar/internal/metrics"
	"github.com/google/uuid"
)

const (
	defaultHealthPath = "/actuator/health"
	maxResponseSize   = 1 << 20
	requestIDHeader   = "X-Request-ID"
)

// Client talks to the employee-management backend. It is safe for concurrent use.
// Calls that need a bearer token go through a Session.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	log        *slog.Logger
	metrics    *metrics.Metrics
	healthPath string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithMetrics enables request duration metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithHealthPath overrides the path used by Ping.
func WithHealthPath(path string) Option {
	return func(c *Client) {
		if path != "" {
			c.healthPath = path
		}
	}
}

// NewClient creates a backend client for the given base URL.
func NewClient(log *slog.Logger, baseURL string, timeout time.Duration, opts ...Option) (*Client, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse backend url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("failed to parse backend url: %q is not absolute", baseURL)
	}

	client := &Client{
		baseURL:    parsed,
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
		healthPath: defaultHealthPath,
	}
	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// request describes a single backend call.
type request struct {
	op     string // metrics label
	method string
	path   string
	query  url.Values
	body   any
	token  string
	// conflictMessage marks calls whose 400 responses are conflicts and
	// holds the message used when the backend sends none.
	conflictMessage string
}

// do executes req and decodes a successful JSON response into out (when non-nil).
func (c *Client) do(ctx context.Context, req request, out any) error {
	log := c.log.With("op", "backend."+req.op)

	target := c.baseURL.JoinPath(req.path)
	if len(req.query) > 0 {
		target.RawQuery = req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		payload, err := json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("failed to marshal %s request: %w", req.op, err)
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target.String(), body)
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", req.op, err)
	}
	requestID := uuid.NewString()
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set(requestIDHeader, requestID)
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.token)
	}

	startTime := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.observe(req.op, "error", startTime)
		log.WarnContext(ctx, "Backend request failed", "request_id", requestID, "error", err)
		return &APIError{Err: err}
	}
	defer resp.Body.Close()
	c.observe(req.op, strconv.Itoa(resp.StatusCode), startTime)

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return &APIError{Status: resp.StatusCode, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		log.InfoContext(ctx, "Backend rejected request",
			"request_id", requestID, "status", resp.StatusCode, "path", req.path)
		return decodeError(resp.StatusCode, respBody, req.conflictMessage)
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err = json.Unmarshal(respBody, out); err != nil {
		return &APIError{Status: resp.StatusCode, Err: fmt.Errorf("failed to decode %s response: %w", req.op, err)}
	}

	return nil
}

func (c *Client) observe(op, status string, startTime time.Time) {
	if c.metrics == nil {
		return
	}
	c.metrics.BackendRequestDuration.WithLabelValues(op, status).Observe(time.Since(startTime).Seconds())
}

// Ping checks the backend health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	err := c.do(ctx, request{op: "ping", method: http.MethodGet, path: c.healthPath}, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}
	return nil
}
