// Package fetcher retrieves document bodies over HTTP with a configurable
// user agent, per-request pacing and robots.txt awareness.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
	"golang.org/x/time/rate"
)

const defaultUserAgent = "sitedigest"

// ErrRobotsDisallowed marks a URL the site's robots.txt forbids for our
// user agent. Callers treat it as a skip, not a failure.
var ErrRobotsDisallowed = errors.New("disallowed by robots.txt")

// StatusError is a non-2xx HTTP response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetching %s: unexpected status %d", e.URL, e.StatusCode)
}

type Client struct {
	http          *http.Client
	userAgent     string
	limiter       *rate.Limiter
	respectRobots bool

	mu     sync.Mutex
	robots map[string]*robotstxt.Group // host -> rules for our user agent
}

type Option func(*Client)

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithDelay spaces requests at least the given interval apart.
func WithDelay(delay time.Duration) Option {
	return func(c *Client) {
		if delay > 0 {
			c.limiter = rate.NewLimiter(rate.Every(delay), 1)
		}
	}
}

// WithTimeout bounds each individual request.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.http.Timeout = timeout
		}
	}
}

// WithRobots toggles robots.txt checks for page fetches.
func WithRobots(respect bool) Option {
	return func(c *Client) {
		c.respectRobots = respect
	}
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		http:          &http.Client{Timeout: 30 * time.Second},
		userAgent:     defaultUserAgent,
		limiter:       rate.NewLimiter(rate.Inf, 1),
		respectRobots: true,
		robots:        make(map[string]*robotstxt.Group),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get fetches the body at rawURL. It returns ErrRobotsDisallowed when the
// host's robots.txt forbids the path, and *StatusError on non-2xx responses.
func (c *Client) Get(ctx context.Context, rawURL string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	if c.respectRobots {
		allowed, err := c.allowed(ctx, rawURL)
		if err != nil {
			return "", err
		}
		if !allowed {
			return "", fmt.Errorf("%s: %w", rawURL, ErrRobotsDisallowed)
		}
	}

	return c.get(ctx, rawURL)
}

func (c *Client) get(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request for %s: %w", rawURL, err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &StatusError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read body of %s: %w", rawURL, err)
	}
	return string(body), nil
}

// allowed checks the host's robots.txt, caching the parsed group per host.
// Errors fetching or parsing robots.txt fail open.
func (c *Client) allowed(ctx context.Context, rawURL string) (bool, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false, fmt.Errorf("invalid URL %s: %w", rawURL, err)
	}

	group, err := c.robotsGroup(ctx, u)
	if err != nil || group == nil {
		return true, nil
	}
	return group.Test(u.Path), nil
}

func (c *Client) robotsGroup(ctx context.Context, u *url.URL) (*robotstxt.Group, error) {
	host := u.Scheme + "://" + u.Host

	c.mu.Lock()
	group, ok := c.robots[host]
	c.mu.Unlock()
	if ok {
		return group, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, host+"/robots.txt", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		return nil, err
	}
	group = data.FindGroup(c.userAgent)

	c.mu.Lock()
	c.robots[host] = group
	c.mu.Unlock()
	return group, nil
}
