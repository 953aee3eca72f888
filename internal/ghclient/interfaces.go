// Package ghclient provides GitHub API client functionality.
package ghclient

import (
	"context"

	"github.com/spiffcs/recap/internal/model"
)

// ActivityFetcher defines the raw GitHub API operations a digest run needs.
// Each call issues exactly one request.
type ActivityFetcher interface {
	// Search
	SearchPage(ctx context.Context, query string, page, perPage int) ([]model.Item, error)

	// Item details
	PullRequestCommits(ctx context.Context, key model.ItemKey, page, perPage int) ([]CommitEntry, error)
	ItemComments(ctx context.Context, key model.ItemKey, commentsURL string, page, perPage int) ([]CommentEntry, error)
	ReviewComments(ctx context.Context, key model.ItemKey, page, perPage int) ([]CommentEntry, error)
}

// Ensure Client implements ActivityFetcher interface.
var _ ActivityFetcher = (*Client)(nil)
