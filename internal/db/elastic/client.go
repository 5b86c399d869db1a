// Package elastic is an HTTP client for the search engine's index management
// and bulk endpoints.
package elastic

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/searchsync/internal/db"
	"github.com/kailas-cloud/searchsync/internal/metrics"
)

// Compile-time check: Client implements db.SearchEngine.
var _ db.SearchEngine = (*Client)(nil)

const (
	defaultTimeout  = 30 * time.Second
	maxErrorBodyLen = 512
)

// ErrServer marks 5xx replies; they count as breaker failures.
var ErrServer = errors.New("search engine server error")

// Config holds connection parameters for the search engine.
type Config struct {
	BaseURL  string
	Username string
	Password string
	// Timeout bounds every outbound call. Defaults to 30s.
	Timeout time.Duration
	Breaker BreakerConfig

	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client talks to the search engine over HTTP.
type Client struct {
	baseURL  string
	username string
	password string
	timeout  time.Duration
	http     *http.Client
	cb       *gobreaker.CircuitBreaker[*response]
	logger   *zap.Logger
}

type response struct {
	status int
	body   []byte
}

// NewClient creates a search engine client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("base url is required")
	}
	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url must be http(s), got %q", cfg.BaseURL)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL:  strings.TrimSuffix(cfg.BaseURL, "/"),
		username: cfg.Username,
		password: cfg.Password,
		timeout:  timeout,
		http:     hc,
		cb:       newBreaker(cfg.Breaker, logger),
		logger:   logger,
	}, nil
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// Ping checks that the search engine answers on its root endpoint.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.do(ctx, db.OpPing, http.MethodGet, "/", nil, "")
	if err != nil {
		return err
	}
	if resp.status >= 300 {
		return &db.Error{Op: db.OpPing, Err: statusError(resp)}
	}
	return nil
}

// do runs one request through the circuit breaker and records metrics.
func (c *Client) do(ctx context.Context, op, method, path string, body []byte, contentType string) (*response, error) {
	start := time.Now()
	resp, err := c.cb.Execute(func() (*response, error) {
		return c.roundTrip(ctx, method, path, body, contentType)
	})

	status := "error"
	if err == nil {
		status = strconv.Itoa(resp.status)
	}
	metrics.SearchEngineRequestsTotal.WithLabelValues(op, status).Inc()
	metrics.SearchEngineRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())

	if err != nil {
		c.logger.Debug("search engine request failed",
			zap.String("op", op),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, &db.Error{Op: op, Err: err}
	}
	return resp, nil
}

func (c *Client) roundTrip(
	ctx context.Context, method, path string, body []byte, contentType string,
) (*response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var rdr io.Reader = http.NoBody
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = res.Body.Close() }()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	resp := &response{status: res.StatusCode, body: data}
	if res.StatusCode >= 500 {
		return nil, fmt.Errorf("%w: %w", ErrServer, statusError(resp))
	}
	return resp, nil
}

func indexPath(name, suffix string) string {
	return "/" + url.PathEscape(name) + suffix
}

func statusError(resp *response) error {
	body := resp.body
	if len(body) > maxErrorBodyLen {
		body = body[:maxErrorBodyLen]
	}
	return fmt.Errorf("status %d: %s", resp.status, bytes.TrimSpace(body))
}
