package ghclient

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spiffcs/recap/internal/constants"
	"github.com/spiffcs/recap/internal/log"
	"golang.org/x/time/rate"
)

// Rate limit resources reported by GitHub in X-RateLimit-Resource.
const (
	ResourceCore   = "core"
	ResourceSearch = "search"
)

// bucket is the last known state of one rate limit resource.
type bucket struct {
	limited   bool
	resetAt   time.Time
	remaining int
	limit     int
}

// RateLimitState tracks the rate limit state of each GitHub API resource
// seen by a client.
type RateLimitState struct {
	mu      sync.RWMutex
	buckets map[string]*bucket
	now     func() time.Time
}

// NewRateLimitState returns an empty state.
func NewRateLimitState() *RateLimitState {
	return &RateLimitState{
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
}

// IsLimited returns true if the resource is currently rate limited.
func (s *RateLimitState) IsLimited(resource string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.buckets[resource]
	if !ok || !b.limited {
		return false
	}

	// Check if rate limit has reset
	return s.now().Before(b.resetAt)
}

// SetLimited marks a resource as limited until resetAt.
func (s *RateLimitState) SetLimited(resource string, resetAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.bucketLocked(resource)
	b.limited = true
	b.resetAt = resetAt
}

// Update records the state reported by response headers.
func (s *RateLimitState) Update(resource string, remaining, limit int, resetAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.bucketLocked(resource)
	b.remaining = remaining
	b.limit = limit
	b.resetAt = resetAt
	b.limited = remaining == 0
}

// Status returns the last known state of a resource.
func (s *RateLimitState) Status(resource string) (remaining, limit int, resetAt time.Time, limited bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.buckets[resource]
	if !ok {
		return -1, -1, time.Time{}, false
	}
	return b.remaining, b.limit, b.resetAt, b.limited && s.now().Before(b.resetAt)
}

func (s *RateLimitState) bucketLocked(resource string) *bucket {
	b, ok := s.buckets[resource]
	if !ok {
		b = &bucket{remaining: -1, limit: -1}
		s.buckets[resource] = b
	}
	return b
}

// rateLimitTransport wraps an http.RoundTripper to track GitHub rate limits
// and pace search requests.
type rateLimitTransport struct {
	base  http.RoundTripper
	state *RateLimitState
	// search is nil when search pacing is disabled.
	search *rate.Limiter
}

func (t *rateLimitTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resource := resourceForPath(req.URL.Path)

	// Fail fast when the bucket is known to be empty
	if t.state.IsLimited(resource) {
		return nil, ErrRateLimited
	}

	if resource == ResourceSearch && t.search != nil {
		if err := t.search.Wait(req.Context()); err != nil {
			return nil, err
		}
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return resp, err
	}

	remaining, limit, resetAt := parseRateLimitHeaders(resp)
	if r := resp.Header.Get("X-RateLimit-Resource"); r != "" {
		resource = r
	}
	if remaining >= 0 && limit > 0 {
		t.state.Update(resource, remaining, limit, resetAt)
	}

	if remaining <= constants.RateLimitLowWatermark && remaining > 0 && resource == ResourceCore {
		log.Debug("rate limit low", "resource", resource, "remaining", remaining, "resets_at", resetAt.Format(time.RFC3339))
	}

	// Primary limit exhausted (403 with zero remaining, or 429). The status
	// travels with the error so callers can tell it from a dropped connection.
	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests {
		if resp.Header.Get("X-RateLimit-Remaining") == "0" || resp.StatusCode == http.StatusTooManyRequests {
			t.state.SetLimited(resource, resetAt)
			_ = resp.Body.Close()
			return nil, &APIError{Endpoint: req.URL.Path, StatusCode: resp.StatusCode, Err: ErrRateLimited}
		}
	}

	return resp, nil
}

// resourceForPath guesses the rate limit resource a request will count
// against before the response says so.
func resourceForPath(path string) string {
	if strings.HasPrefix(path, "/search/") || strings.Contains(path, "/api/v3/search/") {
		return ResourceSearch
	}
	return ResourceCore
}

// parseRateLimitHeaders extracts rate limit info from response headers.
func parseRateLimitHeaders(resp *http.Response) (remaining, limit int, resetAt time.Time) {
	remaining = -1
	limit = -1

	if remainingStr := resp.Header.Get("X-RateLimit-Remaining"); remainingStr != "" {
		if rem, err := strconv.Atoi(remainingStr); err == nil {
			remaining = rem
		}
	}

	if limitStr := resp.Header.Get("X-RateLimit-Limit"); limitStr != "" {
		if lim, err := strconv.Atoi(limitStr); err == nil {
			limit = lim
		}
	}

	if resetStr := resp.Header.Get("X-RateLimit-Reset"); resetStr != "" {
		if resetTime, err := strconv.ParseInt(resetStr, 10, 64); err == nil {
			resetAt = time.Unix(resetTime, 0)
		}
	}

	return remaining, limit, resetAt
}

// newSearchLimiter returns a limiter allowing perMinute search requests a
// minute, or nil when perMinute is not positive.
func newSearchLimiter(perMinute int) *rate.Limiter {
	if perMinute <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), constants.SearchBurst)
}
