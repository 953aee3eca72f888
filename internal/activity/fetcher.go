package activity

import (
	"context"
	"errors"

	"github.com/spiffcs/recap/internal/ghclient"
	"github.com/spiffcs/recap/internal/log"
	"github.com/spiffcs/recap/internal/model"
)

// Fetcher resolves the qualifying activity of one item.
type Fetcher struct {
	api            ghclient.ActivityFetcher
	user           string
	window         Window
	perPage        int
	reviewComments bool
}

// NewFetcher creates a fetcher for user's activity inside window. When
// reviewComments is set, commentary fetches on pull requests also read
// inline review comments.
func NewFetcher(api ghclient.ActivityFetcher, user string, window Window, perPage int, reviewComments bool) *Fetcher {
	return &Fetcher{
		api:            api,
		user:           user,
		window:         window,
		perPage:        perPage,
		reviewComments: reviewComments,
	}
}

// Fetch picks the variant matching the walk that found item. It returns
// nil without error when the item has no qualifying activity. Errors are
// *ghclient.ItemFetchError.
func (f *Fetcher) Fetch(ctx context.Context, item model.Item) (*model.ActivityRecord, error) {
	fetch := f.FetchComments
	if item.Source == model.SourceAuthored {
		fetch = f.FetchCommits
	}
	record, err := fetch(ctx, item)
	if record != nil {
		log.Trace("item activity",
			"item", item.Key.String(),
			"walk", item.Source.Label(),
			"commits", len(record.Commits),
			"comments", len(record.Comments),
			"review_comments", len(record.ReviewComments))
	}
	return record, err
}

// FetchCommits returns the user's in-window commits on a pull request.
func (f *Fetcher) FetchCommits(ctx context.Context, item model.Item) (*model.ActivityRecord, error) {
	commits, err := paginate(ctx, func(page int) ([]ghclient.CommitEntry, error) {
		return f.api.PullRequestCommits(ctx, item.Key, page, f.perPage)
	})
	if err != nil {
		return f.failed(item, "commits", err)
	}

	record := model.NewRecord(item, true)
	for _, c := range commits {
		if !sameLogin(c.AuthorLogin, f.user) || !f.window.Contains(c.Date) {
			continue
		}
		record.Commits = append(record.Commits, model.Commit{
			SHA:     ShortSHA(c.SHA),
			Date:    c.Date,
			Message: FirstLine(c.Message),
		})
	}

	if record.Empty() {
		return nil, nil
	}
	return record, nil
}

// FetchComments returns the user's in-window comments on an issue or pull
// request, plus inline review comments on pull requests when enabled.
func (f *Fetcher) FetchComments(ctx context.Context, item model.Item) (*model.ActivityRecord, error) {
	comments, err := paginate(ctx, func(page int) ([]ghclient.CommentEntry, error) {
		return f.api.ItemComments(ctx, item.Key, item.CommentsURL, page, f.perPage)
	})
	if err != nil {
		return f.failed(item, "comments", err)
	}

	record := model.NewRecord(item, false)
	record.Comments = f.filterComments(comments)

	if item.IsPR && f.reviewComments {
		record.ReviewComments = f.fetchReviewComments(ctx, item)
	}

	if record.Empty() {
		return nil, nil
	}
	return record, nil
}

// fetchReviewComments never fails the item: a failed page ends pagination
// and keeps the pages already read.
func (f *Fetcher) fetchReviewComments(ctx context.Context, item model.Item) []model.Comment {
	var all []ghclient.CommentEntry
	for page := 1; ; page++ {
		entries, err := f.api.ReviewComments(ctx, item.Key, page, f.perPage)
		if err != nil {
			status := ghclient.StatusCode(err)
			if status > 0 && !errors.Is(err, ghclient.ErrRateLimited) {
				log.Debug("review comments page failed", "item", item.Key.String(), "page", page, "status", status)
			} else {
				log.Warn("error fetching review comments", "item", item.Key.String(), "page", page, "error", err)
			}
			break
		}
		if len(entries) == 0 {
			break
		}
		all = append(all, entries...)
	}
	return f.filterComments(all)
}

func (f *Fetcher) filterComments(entries []ghclient.CommentEntry) []model.Comment {
	out := []model.Comment{}
	for _, c := range entries {
		if !sameLogin(c.Login, f.user) || !f.window.Contains(c.CreatedAt) {
			continue
		}
		out = append(out, model.Comment{
			ID:   c.ID,
			Date: c.CreatedAt,
			Body: Preview(c.Body),
		})
	}
	return out
}

// failed turns a pagination error into the fetch result. A first page
// answered with an error status means the item is not readable and yields
// no record quietly; anything else, rate limiting included, is reported.
func (f *Fetcher) failed(item model.Item, what string, err error) (*model.ActivityRecord, error) {
	var first *firstPageError
	if errors.As(err, &first) && !errors.Is(err, ghclient.ErrRateLimited) {
		log.Debug("item not readable", "item", item.Key.String(), "what", what, "status", first.status)
		return nil, nil
	}
	return nil, &ghclient.ItemFetchError{Item: item.Key.String(), Err: err}
}

// firstPageError marks a non-success status on the first page of a listing.
type firstPageError struct {
	status int
	err    error
}

func (e *firstPageError) Error() string { return e.err.Error() }

func (e *firstPageError) Unwrap() error { return e.err }

// paginate requests pages from 1 until one comes back empty. A status error
// on the first page is returned as *firstPageError. On a later page a status
// error or rate limiting ends pagination with the pages already read.
// Other transport errors are returned on any page.
func paginate[T any](ctx context.Context, fetch func(page int) ([]T, error)) ([]T, error) {
	var all []T
	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		entries, err := fetch(page)
		if err != nil {
			status := ghclient.StatusCode(err)
			limited := errors.Is(err, ghclient.ErrRateLimited)
			switch {
			case page > 1 && (status > 0 || limited):
				return all, nil
			case status == 0:
				return nil, err
			default:
				return nil, &firstPageError{status: status, err: err}
			}
		}
		if len(entries) == 0 {
			return all, nil
		}
		all = append(all, entries...)
	}
}
