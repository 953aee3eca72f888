package ghclient

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	github_ratelimit "github.com/gofri/go-github-ratelimit/github_ratelimit"
	gh "github.com/google/go-github/v62/github"
	"github.com/spiffcs/recap/internal/constants"
	"github.com/spiffcs/recap/internal/log"
	"golang.org/x/oauth2"
)

// Client wraps the GitHub API client. It is safe for concurrent use and is
// never mutated after construction.
type Client struct {
	client *gh.Client
	limits *RateLimitState
}

// Option configures a Client.
type Option func(*clientOptions)

type clientOptions struct {
	baseURL        string
	maxConnections int
	searchPerMin   int
	wrap           func(http.RoundTripper) http.RoundTripper
}

// WithBaseURL points the client at a different API root, such as a GitHub
// Enterprise server or a test server.
func WithBaseURL(u string) Option {
	return func(o *clientOptions) {
		o.baseURL = u
	}
}

// WithMaxConnections caps concurrent connections to the API host.
func WithMaxConnections(n int) Option {
	return func(o *clientOptions) {
		o.maxConnections = n
	}
}

// WithSearchRate paces search requests to perMinute a minute. Zero disables
// pacing.
func WithSearchRate(perMinute int) Option {
	return func(o *clientOptions) {
		o.searchPerMin = perMinute
	}
}

// WithTransportWrapper wraps the innermost authenticated transport, which is
// where request instrumentation belongs.
func WithTransportWrapper(wrap func(http.RoundTripper) http.RoundTripper) Option {
	return func(o *clientOptions) {
		o.wrap = wrap
	}
}

// NewClient creates a new GitHub client using a personal access token.
func NewClient(ctx context.Context, token string, opts ...Option) (*Client, error) {
	if token == "" {
		return nil, fmt.Errorf("GitHub token not provided. Set the GITHUB_TOKEN environment variable")
	}

	o := clientOptions{
		maxConnections: constants.DefaultMaxConnections,
		searchPerMin:   constants.DefaultSearchRatePerMinute,
	}
	for _, opt := range opts {
		opt(&o)
	}

	limits := NewRateLimitState()

	var rt http.RoundTripper = &rateLimitTransport{
		base:   newHTTPTransport(o.maxConnections),
		state:  limits,
		search: newSearchLimiter(o.searchPerMin),
	}
	if o.wrap != nil {
		rt = o.wrap(rt)
	}

	// Secondary limits are reported, never slept on: every request gets a
	// single attempt.
	waiter, err := github_ratelimit.NewRateLimitWaiter(rt,
		github_ratelimit.WithSingleSleepLimit(0, onSecondaryLimit))
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
	}

	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	ctx = context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Transport: waiter})
	tc := oauth2.NewClient(ctx, ts)

	client := gh.NewClient(tc)
	if o.baseURL != "" {
		base, err := parseBaseURL(o.baseURL)
		if err != nil {
			return nil, err
		}
		client.BaseURL = base
	}

	return &Client{
		client: client,
		limits: limits,
	}, nil
}

// RateLimitState returns the rate limit state observed by this client.
func (c *Client) RateLimitState() *RateLimitState {
	return c.limits
}

// newHTTPTransport clones the default transport with a per-host connection
// cap.
func newHTTPTransport(maxConns int) *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	if maxConns > 0 {
		t.MaxConnsPerHost = maxConns
		t.MaxIdleConnsPerHost = maxConns
	}
	t.DialContext = (&net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext
	return t
}

func parseBaseURL(raw string) (*url.URL, error) {
	if !strings.HasSuffix(raw, "/") {
		raw += "/"
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid API URL %q: %w", raw, err)
	}
	return u, nil
}

func onSecondaryLimit(cbCtx *github_ratelimit.CallbackContext) {
	args := []any{}
	if cbCtx.Request != nil {
		args = append(args, "path", cbCtx.Request.URL.Path)
	}
	if cbCtx.SleepUntil != nil {
		args = append(args, "retry_after", cbCtx.SleepUntil.Format(time.RFC3339))
	}
	log.Warn("secondary rate limit hit", args...)
}

// splitRepo splits "owner/name" into its parts.
func splitRepo(fullName string) (owner, repo string, err error) {
	owner, repo, ok := strings.Cut(fullName, "/")
	if !ok || owner == "" || repo == "" {
		return "", "", fmt.Errorf("invalid repository name: %s", fullName)
	}
	return owner, repo, nil
}
