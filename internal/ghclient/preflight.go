package ghclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	gh "github.com/google/go-github/v62/github"
)

// Budget is the remaining quota of one rate limit resource.
type Budget struct {
	Remaining int
	Limit     int
	ResetAt   time.Time
}

// Quota holds the budgets a digest run depends on.
type Quota struct {
	Core    Budget
	Search  Budget
	GraphQL Budget
}

// AuthenticatedUser returns the login of the token's owner. An unauthorized
// response yields *AuthError; any other failure status yields *APIError.
func (c *Client) AuthenticatedUser(ctx context.Context) (string, error) {
	user, resp, err := c.client.Users.Get(ctx, "")
	if err != nil {
		if resp != nil && resp.Response != nil && resp.StatusCode == http.StatusUnauthorized {
			return "", &AuthError{StatusCode: resp.StatusCode, Err: err}
		}
		return "", classify("user", resp, err)
	}
	return user.GetLogin(), nil
}

// Quota fetches the current GitHub API rate limit status.
func (c *Client) Quota(ctx context.Context) (*Quota, error) {
	limits, resp, err := c.client.RateLimit.Get(ctx)
	if err != nil {
		return nil, classify("rate_limit", resp, err)
	}
	return &Quota{
		Core:    budgetFrom(limits.GetCore()),
		Search:  budgetFrom(limits.GetSearch()),
		GraphQL: budgetFrom(limits.GetGraphQL()),
	}, nil
}

func budgetFrom(r *gh.Rate) Budget {
	if r == nil {
		return Budget{Remaining: -1, Limit: -1}
	}
	return Budget{
		Remaining: r.Remaining,
		Limit:     r.Limit,
		ResetAt:   r.Reset.Time,
	}
}

// Preflight validates the token and checks that at least minSearch search
// requests remain. The quota status is written to w. No bulk request may be
// issued unless Preflight succeeds.
func (c *Client) Preflight(ctx context.Context, w io.Writer, minSearch int) (login string, quota *Quota, err error) {
	login, err = c.AuthenticatedUser(ctx)
	if err != nil {
		return "", nil, err
	}

	quota, err = c.Quota(ctx)
	if err != nil {
		return login, nil, err
	}

	PrintQuota(w, quota)

	if quota.Search.Remaining < minSearch {
		return login, quota, &QuotaExhaustedError{
			Remaining: quota.Search.Remaining,
			Required:  minSearch,
			ResetAt:   quota.Search.ResetAt,
		}
	}
	return login, quota, nil
}

// PrintQuota writes the human-readable quota block.
func PrintQuota(w io.Writer, q *Quota) {
	_, _ = fmt.Fprintln(w, "GitHub API Rate Limits:")
	_, _ = fmt.Fprintf(w, "  Core API: %d/%d requests remaining\n", q.Core.Remaining, q.Core.Limit)
	_, _ = fmt.Fprintf(w, "  Search API: %d/%d requests remaining\n", q.Search.Remaining, q.Search.Limit)
	_, _ = fmt.Fprintln(w)
}

// IsAuthError reports whether err is a credential failure.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}
