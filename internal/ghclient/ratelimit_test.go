package ghclient

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"
)

func TestRateLimitStatePerResource(t *testing.T) {
	s := NewRateLimitState()
	reset := time.Now().Add(time.Hour)

	s.Update(ResourceSearch, 0, 30, reset)

	if !s.IsLimited(ResourceSearch) {
		t.Error("expected search to be limited")
	}
	if s.IsLimited(ResourceCore) {
		t.Error("expected core to be unaffected by search exhaustion")
	}

	remaining, limit, _, limited := s.Status(ResourceSearch)
	if remaining != 0 || limit != 30 || !limited {
		t.Errorf("unexpected status remaining=%d limit=%d limited=%v", remaining, limit, limited)
	}
}

func TestRateLimitStateResets(t *testing.T) {
	s := NewRateLimitState()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	s.SetLimited(ResourceCore, now.Add(time.Minute))
	if !s.IsLimited(ResourceCore) {
		t.Fatal("expected core to be limited before reset")
	}

	now = now.Add(2 * time.Minute)
	if s.IsLimited(ResourceCore) {
		t.Error("expected limit to lapse after reset time")
	}
}

func TestRateLimitStateUnknownResource(t *testing.T) {
	s := NewRateLimitState()
	remaining, limit, _, limited := s.Status("graphql")
	if remaining != -1 || limit != -1 || limited {
		t.Errorf("unexpected status for unseen resource: %d %d %v", remaining, limit, limited)
	}
}

func TestParseRateLimitHeaders(t *testing.T) {
	tests := []struct {
		name          string
		headers       map[string]string
		wantRemaining int
		wantLimit     int
		wantReset     int64
	}{
		{
			name:          "all headers",
			headers:       map[string]string{"X-RateLimit-Remaining": "12", "X-RateLimit-Limit": "30", "X-RateLimit-Reset": "1700000000"},
			wantRemaining: 12,
			wantLimit:     30,
			wantReset:     1700000000,
		},
		{
			name:          "missing headers",
			headers:       map[string]string{},
			wantRemaining: -1,
			wantLimit:     -1,
		},
		{
			name:          "malformed headers",
			headers:       map[string]string{"X-RateLimit-Remaining": "lots", "X-RateLimit-Limit": "?"},
			wantRemaining: -1,
			wantLimit:     -1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := &http.Response{Header: http.Header{}}
			for k, v := range tt.headers {
				resp.Header.Set(k, v)
			}
			remaining, limit, reset := parseRateLimitHeaders(resp)
			if remaining != tt.wantRemaining {
				t.Errorf("remaining = %d, want %d", remaining, tt.wantRemaining)
			}
			if limit != tt.wantLimit {
				t.Errorf("limit = %d, want %d", limit, tt.wantLimit)
			}
			if tt.wantReset != 0 && reset.Unix() != tt.wantReset {
				t.Errorf("reset = %d, want %d", reset.Unix(), tt.wantReset)
			}
		})
	}
}

func TestResourceForPath(t *testing.T) {
	tests := map[string]string{
		"/search/issues":                   ResourceSearch,
		"/api/v3/search/issues":            ResourceSearch,
		"/repos/o/r/pulls/1/commits":       ResourceCore,
		"/user":                            ResourceCore,
		"/repos/o/search/issues/1/comments": ResourceCore,
	}
	for path, want := range tests {
		if got := resourceForPath(path); got != want {
			t.Errorf("resourceForPath(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestRateLimitTransport(t *testing.T) {
	var calls int
	reset := time.Now().Add(time.Hour).Unix()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("X-RateLimit-Limit", "30")
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(reset, 10))
		w.Header().Set("X-RateLimit-Resource", "search")
		if calls > 1 {
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Header().Set("X-RateLimit-Remaining", "1")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	state := NewRateLimitState()
	client := &http.Client{Transport: &rateLimitTransport{
		base:   http.DefaultTransport,
		state:  state,
		search: newSearchLimiter(0),
	}}

	resp, err := client.Get(srv.URL + "/search/issues")
	if err != nil {
		t.Fatalf("first request failed: %v", err)
	}
	_ = resp.Body.Close()

	_, err = client.Get(srv.URL + "/search/issues")
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if got := StatusCode(err); got != http.StatusForbidden {
		t.Errorf("StatusCode() = %d, want %d", got, http.StatusForbidden)
	}

	// Known exhaustion fails fast without another request
	_, err = client.Get(srv.URL + "/search/issues")
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 server calls, got %d", calls)
	}

	if state.IsLimited(ResourceCore) {
		t.Error("expected core to remain available")
	}
}

func TestNewSearchLimiter(t *testing.T) {
	if newSearchLimiter(0) != nil {
		t.Error("expected nil limiter when pacing is disabled")
	}
	l := newSearchLimiter(30)
	if l == nil {
		t.Fatal("expected limiter")
	}
	if l.Burst() != 30 {
		t.Errorf("expected burst 30, got %d", l.Burst())
	}
}
