package ghclient

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	gh "github.com/google/go-github/v62/github"
	"github.com/spiffcs/recap/internal/constants"
)

// ErrRateLimited is returned when the GitHub API rate limit has been exceeded.
var ErrRateLimited = errors.New("rate limited")

// AuthError is returned when GitHub rejects the configured token.
type AuthError struct {
	StatusCode int
	Err        error
}

func (e *AuthError) Error() string {
	return "invalid GitHub credentials"
}

func (e *AuthError) Unwrap() error { return e.Err }

// Hint tells the user how to fix the credential problem.
func (e *AuthError) Hint() string {
	return fmt.Sprintf("Create a new token at %s with the %s scope and export it as GITHUB_TOKEN.",
		constants.TokenSettingsURL, constants.RequiredScopes)
}

// QuotaExhaustedError is returned by the pre-flight check when too little
// search quota remains to run a digest.
type QuotaExhaustedError struct {
	Remaining int
	Required  int
	ResetAt   time.Time
}

func (e *QuotaExhaustedError) Error() string {
	return fmt.Sprintf("not enough search API requests remaining (%d < %d)", e.Remaining, e.Required)
}

// Hint tells the user when to try again.
func (e *QuotaExhaustedError) Hint() string {
	if e.ResetAt.IsZero() {
		return "Please wait for the rate limit to reset before trying again."
	}
	wait := time.Until(e.ResetAt).Round(time.Second)
	if wait < 0 {
		wait = 0
	}
	return fmt.Sprintf("Please wait for the rate limit to reset (in %s) before trying again.", wait)
}

// APIError is an unexpected non-success status from an endpoint.
type APIError struct {
	Endpoint   string
	StatusCode int
	Err        error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s returned status %d", e.Endpoint, e.StatusCode)
}

func (e *APIError) Unwrap() error { return e.Err }

// PageFetchWarning reports a search page that could not be read. It ends
// the walk that requested it and nothing else.
type PageFetchWarning struct {
	Walk       string
	Page       int
	StatusCode int
	Err        error
}

func (e *PageFetchWarning) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s search page %d returned status %d", e.Walk, e.Page, e.StatusCode)
	}
	return fmt.Sprintf("%s search page %d failed: %v", e.Walk, e.Page, e.Err)
}

func (e *PageFetchWarning) Unwrap() error { return e.Err }

// ItemFetchError reports a detail fetch that failed for one item.
type ItemFetchError struct {
	Item string
	Err  error
}

func (e *ItemFetchError) Error() string {
	return fmt.Sprintf("error fetching %s: %v", e.Item, e.Err)
}

func (e *ItemFetchError) Unwrap() error { return e.Err }

// Hinter is implemented by errors that carry a remediation hint.
type Hinter interface {
	Hint() string
}

// StatusCode returns the HTTP status carried by err, or 0 when the request
// never produced a response.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr.StatusCode
	}
	return 0
}

// classify turns a go-github error into an APIError when the server answered
// with a non-success status, and wraps transport failures otherwise.
func classify(endpoint string, resp *gh.Response, err error) error {
	if err == nil {
		return nil
	}
	if resp != nil && resp.Response != nil && resp.StatusCode >= http.StatusMultipleChoices {
		return &APIError{Endpoint: endpoint, StatusCode: resp.StatusCode, Err: err}
	}
	return fmt.Errorf("%s: %w", endpoint, err)
}
