// Package codeforces fetches the problem corpus from the Codeforces API.
package codeforces

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/icpc-trainer/probgraph/internal/logging"
)

const (
	// BaseURL is the Codeforces API base URL.
	BaseURL = "https://codeforces.com/api"

	// MinRequestInterval is the spacing the API asks clients to respect.
	MinRequestInterval = 2 * time.Second

	// MaxAttempts bounds retries per call.
	MaxAttempts = 3

	// DefaultTimeout is the per-request HTTP timeout.
	DefaultTimeout = 30 * time.Second

	userAgent = "pgraph/1.0"
)

// Client is a rate-limited client for the Codeforces API.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	sleep      func(ctx context.Context, d time.Duration) error
	log        zerolog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithMinInterval overrides the spacing between requests.
func WithMinInterval(d time.Duration) ClientOption {
	return func(c *Client) {
		if d <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(d), 1)
	}
}

// NewClient creates a new Codeforces API client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Every(MinRequestInterval), 1),
		baseURL:    BaseURL,
		sleep:      sleepCtx,
		log:        logging.Component("codeforces"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// envelope is the common wrapper of every API response.
type envelope struct {
	Status  string          `json:"status"`
	Comment string          `json:"comment"`
	Result  json.RawMessage `json:"result"`
}

// call performs a GET of method and decodes its result into out.
//
// HTTP 429 waits 4s, 8s, 16s between attempts. Transport failures and 5xx
// responses wait 2s, 4s. A response with status other than OK is returned
// at once as an *APIError.
func (c *Client) call(ctx context.Context, method string, params url.Values, out any) error {
	endpoint := c.baseURL + "/" + method
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var lastErr error
	for attempt := 0; attempt < MaxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		status, body, err := c.get(ctx, endpoint)
		switch {
		case err != nil:
			lastErr = fmt.Errorf("%w: %v", ErrNetwork, err)
		case status == http.StatusTooManyRequests:
			lastErr = fmt.Errorf("%w: %s", ErrRateLimited, method)
			wait := time.Duration(1<<(attempt+2)) * time.Second
			c.log.Warn().Str("method", method).Dur("wait", wait).Msg("rate limited")
			if err := c.sleep(ctx, wait); err != nil {
				return err
			}
			continue
		case status >= 500:
			lastErr = fmt.Errorf("%w: %s returned %d", ErrNetwork, method, status)
		default:
			var env envelope
			if err := json.Unmarshal(body, &env); err != nil {
				return fmt.Errorf("decoding %s response: %w", method, err)
			}
			if env.Status != "OK" {
				comment := env.Comment
				if comment == "" {
					comment = "unknown error"
				}
				return &APIError{StatusCode: status, Method: method, Comment: comment}
			}
			if err := json.Unmarshal(env.Result, out); err != nil {
				return fmt.Errorf("decoding %s result: %w", method, err)
			}
			return nil
		}

		if attempt == MaxAttempts-1 {
			break
		}
		wait := time.Duration(1<<(attempt+1)) * time.Second
		c.log.Warn().Err(lastErr).Str("method", method).Dur("wait", wait).Msg("request failed, retrying")
		if err := c.sleep(ctx, wait); err != nil {
			return err
		}
	}
	return lastErr
}

func (c *Client) get(ctx context.Context, endpoint string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, body, nil
}
