// Package edgar talks to the SEC EDGAR endpoints: ticker resolution,
// company submissions and filing downloads, behind a shared rate limit.
package edgar

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/tenqd/internal/domain"
)

// Client wraps an http.Client with the headers SEC requires, a global
// request rate limit and uniform error mapping.
type Client struct {
	http         *http.Client
	limiter      *rate.Limiter
	userAgent    string
	baseURL      string
	dataBaseURL  string
	retryBackoff time.Duration
	logger       *zap.Logger
}

// Options configures a Client. UserAgent is mandatory: SEC rejects
// anonymous clients.
type Options struct {
	UserAgent    string
	MaxRPS       int
	BaseURL      string
	DataBaseURL  string
	RetryBackoff time.Duration
	HTTPClient   *http.Client
}

// NewClient creates an EDGAR HTTP client.
func NewClient(opts Options, logger *zap.Logger) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	rps := opts.MaxRPS
	if rps <= 0 {
		rps = 8
	}
	return &Client{
		http:         hc,
		limiter:      rate.NewLimiter(rate.Limit(rps), 1),
		userAgent:    opts.UserAgent,
		baseURL:      strings.TrimRight(opts.BaseURL, "/"),
		dataBaseURL:  strings.TrimRight(opts.DataBaseURL, "/"),
		retryBackoff: opts.RetryBackoff,
		logger:       logger,
	}
}

// GetJSON fetches a path from the main or data host and decodes nothing:
// callers unmarshal the returned body themselves.
func (c *Client) GetJSON(ctx context.Context, path string, dataHost bool) ([]byte, error) {
	base := c.baseURL
	if dataHost {
		base = c.dataBaseURL
	}
	return c.get(ctx, base+"/"+strings.TrimLeft(path, "/"))
}

// GetText fetches an absolute URL, typically a filing document.
func (c *Client) GetText(ctx context.Context, url string) ([]byte, error) {
	return c.get(ctx, url)
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	body, status, err := c.doOnce(ctx, url)
	if err != nil {
		return nil, err
	}
	if status == http.StatusTooManyRequests {
		// One fixed backoff, then a single retry.
		c.logger.Warn("EDGAR rate limited, backing off",
			zap.String("url", url),
			zap.Duration("backoff", c.retryBackoff))
		select {
		case <-time.After(c.retryBackoff):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		body, status, err = c.doOnce(ctx, url)
		if err != nil {
			return nil, err
		}
		if status == http.StatusTooManyRequests {
			return nil, fmt.Errorf("edgar get %s: %w", url, domain.ErrRateLimited)
		}
	}
	if status < 200 || status > 299 {
		return nil, fmt.Errorf("edgar get %s: status %d: %w", url, status, domain.ErrUpstreamUnavailable)
	}
	return body, nil
}

func (c *Client) doOnce(ctx context.Context, url string) ([]byte, int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json, text/html, */*")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("edgar get %s: %v: %w", url, err, domain.ErrUpstreamUnavailable)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("read response %s: %w", url, err)
	}
	return body, resp.StatusCode, nil
}
