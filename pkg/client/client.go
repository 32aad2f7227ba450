// Package client provides the HTTP transport shared by the contest info and GraphQL
// fetchers: session cookie forwarding, a global rate gate, JSON encoding and error
// classification.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/contest-status/pkg/ratelimit"
	"github.com/bytedance/sonic"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultBaseURL is the origin both endpoints are served from.
const DefaultBaseURL = "https://leetcode.com"

// maxBodyBytes bounds how much of a response body is read.
const maxBodyBytes = 8 << 20

// Prometheus metrics for remote requests.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "contest_status_requests_total",
		Help: "Total remote requests by endpoint and status",
	}, []string{"endpoint", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "contest_status_request_duration_seconds",
		Help:    "Remote request duration in seconds by endpoint",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	}, []string{"endpoint"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "contest_status_errors_total",
		Help: "Total remote errors by class",
	}, []string{"class"})
)

// ErrorClass represents a classification of failed requests.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassRateLimit represents 429 responses.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassNetwork represents transport failures and timeouts.
	ErrorClassNetwork ErrorClass = "network"
)

// Config holds the client configuration.
type Config struct {
	// BaseURL is the scheme and host of the remote site.
	BaseURL string

	// UserAgent header sent with every request.
	UserAgent string

	// Cookie is the raw Cookie header of a logged-in session. Empty means anonymous.
	Cookie string

	// Timeout per request (0 disables the client-side timeout).
	Timeout time.Duration

	// RequestsPerSecond caps the total request rate across all workers (0 = uncapped).
	RequestsPerSecond float64
	Burst             int
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(userAgent string) Config {
	return Config{
		BaseURL:   DefaultBaseURL,
		UserAgent: userAgent,
		Timeout:   30 * time.Second,
		Burst:     1,
	}
}

// Client performs requests against the remote endpoints.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	gate       *ratelimit.Gate
	config     Config
	logger     zerolog.Logger
}

// Request describes one call to a remote endpoint.
type Request struct {
	Method string
	Path   string

	// Endpoint labels metrics and errors ("contest_info", "graphql", ...).
	Endpoint string

	// Identifier is the contest or problem slug the call is about.
	Identifier string

	Header http.Header

	// Body is JSON-encoded when non-nil.
	Body any
}

// New creates a new client.
func New(cfg Config) (*Client, error) {
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}

	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", cfg.BaseURL)
	}

	if cfg.Timeout < 0 {
		return nil, fmt.Errorf("timeout must be >= 0 (got %s)", cfg.Timeout)
	}

	if cfg.RequestsPerSecond < 0 {
		return nil, fmt.Errorf("requests_per_second must be >= 0 (got %g)", cfg.RequestsPerSecond)
	}

	logger := log.With().Str("component", "http-client").Logger()

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: base,
		gate:    ratelimit.NewGate(cfg.RequestsPerSecond, cfg.Burst, logger),
		config:  cfg,
		logger:  logger,
	}, nil
}

// BaseURL returns the normalized base URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// URL resolves path against the base URL.
func (c *Client) URL(path string) string {
	return c.BaseURL() + "/" + strings.TrimLeft(path, "/")
}

// Do sends the request and returns the response body of a 2xx response.
// Any other outcome is reported as *RemoteFetchError.
func (c *Client) Do(ctx context.Context, r Request) ([]byte, error) {
	endpoint := r.Endpoint
	if endpoint == "" {
		endpoint = "unknown"
	}

	startTime := time.Now()
	defer func() {
		requestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	if err := c.gate.Wait(ctx); err != nil {
		return nil, c.networkError(endpoint, r.Identifier, err)
	}

	req, err := c.newRequest(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	c.logger.Debug().
		Str("endpoint", endpoint).
		Str("method", req.Method).
		Str("identifier", r.Identifier).
		Msg("Executing request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Str("endpoint", endpoint).Str("identifier", r.Identifier).Msg("HTTP request failed")
		requestsTotal.WithLabelValues(endpoint, "network_error").Inc()
		return nil, c.networkError(endpoint, r.Identifier, err)
	}
	defer resp.Body.Close()

	requestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))

		class := classifyStatus(resp.StatusCode)
		errorsTotal.WithLabelValues(string(class)).Inc()

		c.logger.Warn().
			Str("endpoint", endpoint).
			Str("identifier", r.Identifier).
			Int("status", resp.StatusCode).
			Str("error_class", string(class)).
			Msg("Remote request error")

		return nil, &RemoteFetchError{
			Status:     resp.StatusCode,
			Identifier: r.Identifier,
			Endpoint:   endpoint,
			Class:      class,
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, c.networkError(endpoint, r.Identifier, fmt.Errorf("read response body: %w", err))
	}

	return body, nil
}

// DoJSON sends the request and decodes a 2xx JSON response into out.
func (c *Client) DoJSON(ctx context.Context, r Request, out any) error {
	body, err := c.Do(ctx, r)
	if err != nil {
		return err
	}

	if err := sonic.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %s response for %s: %v", ErrDecode, r.Endpoint, r.Identifier, err)
	}

	return nil
}

// newRequest builds the HTTP request, forwarding the session cookie like a browser
// request made with credentials.
func (c *Client) newRequest(ctx context.Context, r Request) (*http.Request, error) {
	method := r.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if r.Body != nil {
		payload, err := sonic.Marshal(r.Body)
		if err != nil {
			return nil, fmt.Errorf("encode body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.URL(r.Path), body)
	if err != nil {
		return nil, err
	}

	for key, values := range r.Header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}

	req.Header.Set("User-Agent", c.config.UserAgent)
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
	if r.Body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.config.Cookie != "" {
		req.Header.Set("Cookie", c.config.Cookie)
	}

	return req, nil
}

func (c *Client) networkError(endpoint, identifier string, err error) error {
	errorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
	return &RemoteFetchError{
		Identifier: identifier,
		Endpoint:   endpoint,
		Class:      ErrorClassNetwork,
		Err:        err,
	}
}

// classifyStatus categorizes a non-2xx status for observability.
func classifyStatus(status int) ErrorClass {
	switch {
	case status == http.StatusTooManyRequests:
		return ErrorClassRateLimit
	case status >= 500:
		return ErrorClassServer
	default:
		return ErrorClassClient
	}
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
