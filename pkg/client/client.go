// Package client provides a Go client for a running cachefront
// deployment: cache-aware reads, purges, and the status document.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for edge client operations.
var (
	edgeClientRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "edge_client_requests_total",
		Help: "Total edge proxy requests by operation and status",
	}, []string{"operation", "status"})

	edgeClientRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "edge_client_request_duration_seconds",
		Help:    "Edge proxy request duration in seconds by operation",
		Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10},
	}, []string{"operation"})

	edgeClientCacheStatusTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "edge_client_cache_status_total",
		Help: "Cache statuses reported by the edge proxy",
	}, []string{"status"}) // "hit", "miss", "none"
)

// CacheStatus is the cache disposition the proxy reported for a response.
type CacheStatus string

const (
	// CacheHit marks responses served from the edge cache.
	CacheHit CacheStatus = "HIT"

	// CacheMiss marks responses fetched from the backend and queued for
	// storage.
	CacheMiss CacheStatus = "MISS"

	// CacheNone marks responses the proxy does not cache.
	CacheNone CacheStatus = ""
)

// Client talks to a cachefront deployment.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL of the cachefront deployment (REQUIRED).
	BaseURL string

	// PurgeSecret authorizes purge requests; may stay empty for
	// read-only use.
	PurgeSecret string

	// Origin is sent as the Origin header when set. Non-browser callers
	// usually leave it empty and receive wildcard CORS.
	Origin string

	// UserAgent identifies the caller.
	UserAgent string

	// Timeout bounds each request.
	Timeout time.Duration
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:   baseURL,
		UserAgent: "cachefront-client/1.0",
		Timeout:   30 * time.Second,
	}
}

// New creates a new edge proxy client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}

	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	if !base.IsAbs() || base.Host == "" {
		return nil, fmt.Errorf("base URL must be absolute (got %q)", cfg.BaseURL)
	}

	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultConfig(cfg.BaseURL).UserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig(cfg.BaseURL).Timeout
	}

	logger := log.With().Str("component", "edge-client").Logger()

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    base,
		config:     cfg,
		logger:     logger,
	}, nil
}

// Response is a fully read edge proxy response.
type Response struct {
	StatusCode  int
	Header      http.Header
	Body        []byte
	CacheStatus CacheStatus
}

// Get fetches a resource path (with optional query) through the proxy.
// Any HTTP response is returned as a Response; only transport and
// request-building failures produce an error. Use EdgeError on the
// Response to interpret error statuses.
func (c *Client) Get(ctx context.Context, path string) (*Response, error) {
	req, err := c.newRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, err
	}
	return c.do(req, "get")
}

// PurgeResult is the outcome of a purge request.
type PurgeResult struct {
	Purged    bool   `json:"purged"`
	URL       string `json:"url"`
	Error     string `json:"error"`
	Timestamp string `json:"timestamp"`

	// StatusCode is the HTTP status the proxy answered with.
	StatusCode int `json:"-"`
}

// Purge removes the cached entry for a resource path. The configured
// purge secret authorizes the request; rejections come back in the
// result, not as an error.
func (c *Client) Purge(ctx context.Context, path string) (*PurgeResult, error) {
	if c.config.PurgeSecret == "" {
		return nil, fmt.Errorf("purge secret is required")
	}

	req, err := c.newRequest(ctx, "PURGE", path)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Purge-Secret", c.config.PurgeSecret)

	resp, err := c.do(req, "purge")
	if err != nil {
		return nil, err
	}

	var result PurgeResult
	if err := json.Unmarshal(resp.Body, &result); err != nil {
		return nil, fmt.Errorf("decode purge result: %w", err)
	}
	result.StatusCode = resp.StatusCode

	c.logger.Debug().
		Str("path", path).
		Bool("purged", result.Purged).
		Int("status", result.StatusCode).
		Msg("Purge completed")

	return &result, nil
}

// Status describes a running deployment, as served on its status routes.
type Status struct {
	Service     string `json:"service"`
	Version     string `json:"version"`
	Environment string `json:"environment"`
	Timestamp   string `json:"timestamp"`
}

// Status fetches the deployment's status document from /health.
func (c *Client) Status(ctx context.Context) (*Status, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/health")
	if err != nil {
		return nil, err
	}

	resp, err := c.do(req, "status")
	if err != nil {
		return nil, err
	}
	if edgeErr := resp.EdgeError(); edgeErr != nil {
		return nil, edgeErr
	}

	var status Status
	if err := json.Unmarshal(resp.Body, &status); err != nil {
		return nil, fmt.Errorf("decode status: %w", err)
	}
	return &status, nil
}

// do executes a prepared request and reads the full response.
func (c *Client) do(req *http.Request, operation string) (*Response, error) {
	start := time.Now()
	defer func() {
		edgeClientRequestDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		edgeClientRequestsTotal.WithLabelValues(operation, "network_error").Inc()
		c.logger.Error().Err(err).Str("path", req.URL.Path).Msg("Edge request failed")
		return nil, &EdgeError{ErrorClass: ErrorClassNetwork, Message: "edge request failed", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		edgeClientRequestsTotal.WithLabelValues(operation, "network_error").Inc()
		return nil, &EdgeError{ErrorClass: ErrorClassNetwork, Message: "read edge response", Err: err}
	}

	edgeClientRequestsTotal.WithLabelValues(operation, strconv.Itoa(resp.StatusCode)).Inc()

	result := &Response{
		StatusCode:  resp.StatusCode,
		Header:      resp.Header.Clone(),
		Body:        body,
		CacheStatus: CacheStatus(resp.Header.Get("X-Cache-Status")),
	}

	switch result.CacheStatus {
	case CacheHit:
		edgeClientCacheStatusTotal.WithLabelValues("hit").Inc()
	case CacheMiss:
		edgeClientCacheStatusTotal.WithLabelValues("miss").Inc()
	default:
		edgeClientCacheStatusTotal.WithLabelValues("none").Inc()
	}

	c.logger.Debug().
		Str("path", req.URL.Path).
		Int("status", result.StatusCode).
		Str("cache_status", string(result.CacheStatus)).
		Msg("Edge request completed")

	return result, nil
}

// newRequest builds a request against the configured base URL. The path
// may carry a query string; a base path on the deployment URL is
// preserved.
func (c *Client) newRequest(ctx context.Context, method, path string) (*http.Request, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	rel, err := url.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("parse path: %w", err)
	}

	target := *c.baseURL
	target.Path = strings.TrimRight(target.Path, "/") + rel.Path
	target.RawQuery = rel.RawQuery

	req, err := http.NewRequestWithContext(ctx, method, target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")
	if c.config.Origin != "" {
		req.Header.Set("Origin", c.config.Origin)
	}

	return req, nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}
