// Package restclient is an HTTP client for single-endpoint JSON APIs with
// capped exponential retry on transient failures.
package restclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"
)

var retries = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "rest_client_retries_total",
	Help: "Retried REST requests by client and reason.",
}, []string{"client", "reason"})

// retryableStatus lists the HTTP statuses treated as transient.
var retryableStatus = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// Options configures a Client. Zero fields take the defaults.
type Options struct {
	Timeout    time.Duration
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	// RateLimit is the allowed requests per second; 0 disables limiting.
	RateLimit float64
}

// Client performs GET requests against one base URL.
type Client struct {
	name       string
	baseURL    string
	httpClient *http.Client
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
	limiter    *rate.Limiter
}

// NewClient creates a REST client. name labels logs and metrics.
func NewClient(name, baseURL string, opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = time.Second
	}
	if opts.MaxDelay <= 0 {
		opts.MaxDelay = 2 * time.Minute
	}

	c := &Client{
		name:       name,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: opts.Timeout},
		maxRetries: opts.MaxRetries,
		baseDelay:  opts.BaseDelay,
		maxDelay:   opts.MaxDelay,
	}
	if opts.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}
	return c
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Response is a completed HTTP exchange.
type Response struct {
	StatusCode int
	Body       []byte
}

// OK reports a 2xx status.
func (r Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Get performs a GET request, retrying on connection errors and transient
// statuses. Any other status is returned as is, without an error.
func (c *Client) Get(ctx context.Context, path string, params url.Values) (Response, error) {
	target := c.baseURL + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	var lastErr error
	for attempt := range c.maxRetries + 1 {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return Response{}, fmt.Errorf("waiting for rate limiter: %w", err)
			}
		}

		resp, err := c.do(ctx, target)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return Response{}, ctx.Err()
			}
			lastErr = err
			retries.WithLabelValues(c.name, "transport").Inc()
			slog.Warn("retrying request", "client", c.name, "url", target, "attempt", attempt+1, "error", err)
		case retryableStatus[resp.StatusCode]:
			lastErr = fmt.Errorf("HTTP %d from %s", resp.StatusCode, target)
			retries.WithLabelValues(c.name, strconv.Itoa(resp.StatusCode)).Inc()
			slog.Warn("retrying request", "client", c.name, "url", target, "attempt", attempt+1, "status", resp.StatusCode)
		default:
			return resp, nil
		}

		if attempt < c.maxRetries {
			select {
			case <-ctx.Done():
				return Response{}, ctx.Err()
			case <-time.After(c.backoff(attempt)):
			}
		}
	}

	return Response{}, fmt.Errorf("%s: giving up after %d attempts: %w", c.name, c.maxRetries+1, lastErr)
}

func (c *Client) do(ctx context.Context, target string) (Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return Response{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, fmt.Errorf("reading response: %w", err)
	}
	return Response{StatusCode: resp.StatusCode, Body: body}, nil
}

func (c *Client) backoff(attempt int) time.Duration {
	d := c.baseDelay * time.Duration(1<<uint(min(attempt, 30)))
	if d <= 0 || d > c.maxDelay {
		return c.maxDelay
	}
	return d
}

// ErrStatus is wrapped by GetJSON for non-2xx responses.
var ErrStatus = errors.New("unexpected HTTP status")

// GetJSON performs a GET request and unmarshals a 2xx JSON response.
func (c *Client) GetJSON(ctx context.Context, path string, params url.Values, dest any) error {
	resp, err := c.Get(ctx, path, params)
	if err != nil {
		return err
	}
	if !resp.OK() {
		return fmt.Errorf("%w: %d from %s%s", ErrStatus, resp.StatusCode, c.baseURL, path)
	}
	if err := json.Unmarshal(resp.Body, dest); err != nil {
		return fmt.Errorf("parsing JSON from %s: %w", path, err)
	}
	return nil
}
