package activity

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/spiffcs/recap/internal/ghclient"
	"github.com/spiffcs/recap/internal/log"
	"github.com/spiffcs/recap/internal/model"
)

// BuildQuery returns the search query of a walk. Commentary walks exclude
// the user's own items so authorship and commentary stay separate.
func BuildQuery(source model.Source, user, since string) string {
	switch source {
	case model.SourceAuthored:
		return fmt.Sprintf("is:pr author:%s updated:>=%s", user, since)
	case model.SourceCommented:
		return fmt.Sprintf("is:pr commenter:%s updated:>=%s -author:%s", user, since, user)
	case model.SourceIssueCommented:
		return fmt.Sprintf("is:issue commenter:%s updated:>=%s -author:%s", user, since, user)
	case model.SourceReviewed:
		return fmt.Sprintf("is:pr reviewed-by:%s updated:>=%s -author:%s", user, since, user)
	default:
		return ""
	}
}

// Walker pages through one search query.
type Walker struct {
	api      ghclient.ActivityFetcher
	source   model.Source
	query    string
	maxPages int
	perPage  int
	requests *atomic.Int64
}

// NewWalker creates a walker for source. requests counts every search
// request issued and may be shared between walkers.
func NewWalker(api ghclient.ActivityFetcher, source model.Source, query string, maxPages, perPage int, requests *atomic.Int64) *Walker {
	if requests == nil {
		requests = &atomic.Int64{}
	}
	return &Walker{
		api:      api,
		source:   source,
		query:    query,
		maxPages: maxPages,
		perPage:  perPage,
		requests: requests,
	}
}

// Walk requests pages 1..maxPages, handing every item found to dispatch as
// soon as its page arrives. It stops at the first empty page, at the page
// cap, or at the first failed page, which is reported as a
// *ghclient.PageFetchWarning. It returns the number of pages read.
func (w *Walker) Walk(ctx context.Context, dispatch func(model.Item)) (int, error) {
	pages := 0
	for page := 1; page <= w.maxPages; page++ {
		if err := ctx.Err(); err != nil {
			return pages, err
		}

		w.requests.Add(1)
		items, err := w.api.SearchPage(ctx, w.query, page, w.perPage)
		if err != nil {
			warning := &ghclient.PageFetchWarning{
				Walk:       w.source.Label(),
				Page:       page,
				StatusCode: ghclient.StatusCode(err),
				Err:        err,
			}
			log.Warn("search walk stopped", "walk", w.source.Label(), "page", page, "error", warning)
			return pages, warning
		}
		pages++

		if len(items) == 0 {
			log.Debug("search walk exhausted", "walk", w.source.Label(), "page", page)
			return pages, nil
		}

		log.Debug("search page", "walk", w.source.Label(), "page", page, "items", len(items))
		for _, item := range items {
			item.Source = w.source
			dispatch(item)
		}
	}

	log.Debug("search walk reached page cap", "walk", w.source.Label(), "pages", w.maxPages)
	return pages, nil
}
