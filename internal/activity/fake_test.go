package activity

import (
	"context"
	"net/http"
	"sync"

	"github.com/spiffcs/recap/internal/ghclient"
	"github.com/spiffcs/recap/internal/model"
)

// fakeAPI serves canned pages. Errors are keyed by call and page.
type fakeAPI struct {
	mu sync.Mutex

	search         map[string][][]model.Item
	commits        map[model.ItemKey][][]ghclient.CommitEntry
	comments       map[model.ItemKey][][]ghclient.CommentEntry
	reviewComments map[model.ItemKey][][]ghclient.CommentEntry
	errs           map[string]map[int]error

	searchCalls []int
	calls       map[string]int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		search:         make(map[string][][]model.Item),
		commits:        make(map[model.ItemKey][][]ghclient.CommitEntry),
		comments:       make(map[model.ItemKey][][]ghclient.CommentEntry),
		reviewComments: make(map[model.ItemKey][][]ghclient.CommentEntry),
		errs:           make(map[string]map[int]error),
		calls:          make(map[string]int),
	}
}

func (f *fakeAPI) failOn(call string, page int, err error) {
	if f.errs[call] == nil {
		f.errs[call] = make(map[int]error)
	}
	f.errs[call][page] = err
}

func (f *fakeAPI) record(call string, page int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[call]++
	return f.errs[call][page]
}

func (f *fakeAPI) callCount(call string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[call]
}

func pageOf[T any](pages [][]T, page int) []T {
	if page < 1 || page > len(pages) {
		return nil
	}
	return pages[page-1]
}

func (f *fakeAPI) SearchPage(_ context.Context, query string, page, _ int) ([]model.Item, error) {
	if err := f.record("search", page); err != nil {
		return nil, err
	}
	if err := f.record("search:"+query, page); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searchCalls = append(f.searchCalls, page)
	return pageOf(f.search[query], page), nil
}

func (f *fakeAPI) PullRequestCommits(_ context.Context, key model.ItemKey, page, _ int) ([]ghclient.CommitEntry, error) {
	if err := f.record("commits", page); err != nil {
		return nil, err
	}
	return pageOf(f.commits[key], page), nil
}

func (f *fakeAPI) ItemComments(_ context.Context, key model.ItemKey, _ string, page, _ int) ([]ghclient.CommentEntry, error) {
	if err := f.record("comments", page); err != nil {
		return nil, err
	}
	return pageOf(f.comments[key], page), nil
}

func (f *fakeAPI) ReviewComments(_ context.Context, key model.ItemKey, page, _ int) ([]ghclient.CommentEntry, error) {
	if err := f.record("review", page); err != nil {
		return nil, err
	}
	return pageOf(f.reviewComments[key], page), nil
}

func statusErr(status int) error {
	return &ghclient.APIError{Endpoint: "test", StatusCode: status, Err: http.ErrNotSupported}
}
