package ghclient

import (
	"context"
	"time"

	gh "github.com/google/go-github/v62/github"
	"github.com/spiffcs/recap/internal/model"
	"github.com/spiffcs/recap/internal/urlutil"
)

// SearchPage requests one page of issue and pull request search results,
// most recently updated first. A non-success status yields *APIError.
func (c *Client) SearchPage(ctx context.Context, query string, page, perPage int) ([]model.Item, error) {
	opts := &gh.SearchOptions{
		Sort:  "updated",
		Order: "desc",
		ListOptions: gh.ListOptions{
			Page:    page,
			PerPage: perPage,
		},
	}

	result, resp, err := c.client.Search.Issues(ctx, query, opts)
	if err != nil {
		return nil, classify("search/issues", resp, err)
	}

	items := make([]model.Item, 0, len(result.Issues))
	for _, issue := range result.Issues {
		items = append(items, issueToItem(issue))
	}
	return items, nil
}

// issueToItem converts a GitHub search result issue to a model.Item.
func issueToItem(issue *gh.Issue) model.Item {
	isPR := issue.IsPullRequest()

	var mergedAt *time.Time
	if links := issue.GetPullRequestLinks(); links != nil && links.MergedAt != nil {
		t := links.MergedAt.Time
		mergedAt = &t
	}

	return model.Item{
		Key: model.ItemKey{
			Repo:   urlutil.RepoFromAPIURL(issue.GetRepositoryURL()),
			Number: issue.GetNumber(),
		},
		Title:       issue.GetTitle(),
		URL:         issue.GetHTMLURL(),
		State:       model.DeriveState(issue.GetState(), isPR, mergedAt),
		IsPR:        isPR,
		CommentsURL: issue.GetCommentsURL(),
	}
}
