package ghclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	gh "github.com/google/go-github/v62/github"
	"github.com/spiffcs/recap/internal/model"
)

// CommitEntry is one commit of a pull request as returned by the API.
type CommitEntry struct {
	SHA         string
	AuthorLogin string
	Date        time.Time
	Message     string
}

// CommentEntry is one issue comment or review comment as returned by the API.
type CommentEntry struct {
	ID        int64
	Login     string
	CreatedAt time.Time
	Body      string
}

// PullRequestCommits returns one page of a pull request's commits.
func (c *Client) PullRequestCommits(ctx context.Context, key model.ItemKey, page, perPage int) ([]CommitEntry, error) {
	owner, repo, err := splitRepo(key.Repo)
	if err != nil {
		return nil, err
	}

	commits, resp, err := c.client.PullRequests.ListCommits(ctx, owner, repo, key.Number, &gh.ListOptions{
		Page:    page,
		PerPage: perPage,
	})
	if err != nil {
		return nil, classify("pulls/commits", resp, err)
	}

	entries := make([]CommitEntry, 0, len(commits))
	for _, rc := range commits {
		entries = append(entries, CommitEntry{
			SHA:         rc.GetSHA(),
			AuthorLogin: rc.GetAuthor().GetLogin(),
			Date:        rc.GetCommit().GetAuthor().GetDate().Time,
			Message:     rc.GetCommit().GetMessage(),
		})
	}
	return entries, nil
}

// ItemComments returns one page of an item's conversation comments. The
// item's own comments URL is used when known.
func (c *Client) ItemComments(ctx context.Context, key model.ItemKey, commentsURL string, page, perPage int) ([]CommentEntry, error) {
	if commentsURL == "" {
		commentsURL = fmt.Sprintf("repos/%s/issues/%d/comments", key.Repo, key.Number)
	}

	u, err := url.Parse(commentsURL)
	if err != nil {
		return nil, fmt.Errorf("invalid comments URL %q: %w", commentsURL, err)
	}
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))
	u.RawQuery = q.Encode()

	req, err := c.client.NewRequest(http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}

	var comments []*gh.IssueComment
	resp, err := c.client.Do(ctx, req, &comments)
	if err != nil {
		return nil, classify("issues/comments", resp, err)
	}

	entries := make([]CommentEntry, 0, len(comments))
	for _, ic := range comments {
		entries = append(entries, CommentEntry{
			ID:        ic.GetID(),
			Login:     ic.GetUser().GetLogin(),
			CreatedAt: ic.GetCreatedAt().Time,
			Body:      ic.GetBody(),
		})
	}
	return entries, nil
}

// ReviewComments returns one page of a pull request's inline review comments.
func (c *Client) ReviewComments(ctx context.Context, key model.ItemKey, page, perPage int) ([]CommentEntry, error) {
	owner, repo, err := splitRepo(key.Repo)
	if err != nil {
		return nil, err
	}

	comments, resp, err := c.client.PullRequests.ListComments(ctx, owner, repo, key.Number, &gh.PullRequestListCommentsOptions{
		ListOptions: gh.ListOptions{
			Page:    page,
			PerPage: perPage,
		},
	})
	if err != nil {
		return nil, classify("pulls/comments", resp, err)
	}

	entries := make([]CommentEntry, 0, len(comments))
	for _, pc := range comments {
		entries = append(entries, CommentEntry{
			ID:        pc.GetID(),
			Login:     pc.GetUser().GetLogin(),
			CreatedAt: pc.GetCreatedAt().Time,
			Body:      pc.GetBody(),
		})
	}
	return entries, nil
}
