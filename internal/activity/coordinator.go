package activity

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/spiffcs/recap/internal/constants"
	"github.com/spiffcs/recap/internal/ghclient"
	"github.com/spiffcs/recap/internal/log"
	"github.com/spiffcs/recap/internal/model"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Config configures a collection run.
type Config struct {
	Username       string
	Window         Window
	MaxPages       int
	PerPage        int
	Workers        int
	ReviewComments bool
	ExcludeRepos   []string
}

// WalkStats summarizes one search walk and the detail fetches it spawned.
type WalkStats struct {
	Source  model.Source
	Query   string
	Pages   int
	Items   int
	Skipped int
	Records int
	Errors  int
	Warning error
}

// Result is everything collected by a run.
type Result struct {
	Records        []*model.ActivityRecord
	SearchRequests int64
	Walks          []*WalkStats
}

// Progress is a snapshot of a running collection.
type Progress struct {
	WalksDone  int
	WalksTotal int
	Dispatched int64
	Finished   int64
}

// ProgressFunc receives progress snapshots. It is called from many
// goroutines and must not block.
type ProgressFunc func(Progress)

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithProgress registers a progress callback.
func WithProgress(fn ProgressFunc) CoordinatorOption {
	return func(c *Coordinator) {
		c.onProgress = fn
	}
}

// WithSources limits the run to the given walks.
func WithSources(sources ...model.Source) CoordinatorOption {
	return func(c *Coordinator) {
		c.sources = sources
	}
}

// Coordinator runs the search walks concurrently and fans every item found
// out to a detail fetch.
type Coordinator struct {
	api        ghclient.ActivityFetcher
	cfg        Config
	sources    []model.Source
	onProgress ProgressFunc
}

// NewCoordinator creates a coordinator. Zero limits in cfg fall back to the
// defaults in constants.
func NewCoordinator(api ghclient.ActivityFetcher, cfg Config, opts ...CoordinatorOption) *Coordinator {
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = constants.MaxSearchPages
	}
	if cfg.PerPage <= 0 {
		cfg.PerPage = constants.PageSize
	}
	if cfg.Workers <= 0 {
		cfg.Workers = constants.DefaultMaxConnections
	}

	c := &Coordinator{
		api:     api,
		cfg:     cfg,
		sources: model.AllSources,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type outcome struct {
	source model.Source
	record *model.ActivityRecord
	err    error
}

// Collect runs every walk and every detail fetch they spawn, and returns
// once all of them have finished. Walk and item failures are logged and
// counted; an error is returned only when ctx is cancelled.
func (c *Coordinator) Collect(ctx context.Context) (*Result, error) {
	var (
		requests   atomic.Int64
		dispatched atomic.Int64
		finished   atomic.Int64
		walksDone  atomic.Int32
	)

	fetcher := NewFetcher(c.api, c.cfg.Username, c.cfg.Window, c.cfg.PerPage, c.cfg.ReviewComments)
	sem := semaphore.NewWeighted(int64(c.cfg.Workers))
	results := make(chan outcome, c.cfg.Workers)

	report := func() {
		if c.onProgress == nil {
			return
		}
		c.onProgress(Progress{
			WalksDone:  int(walksDone.Load()),
			WalksTotal: len(c.sources),
			Dispatched: dispatched.Load(),
			Finished:   finished.Load(),
		})
	}

	// Single writer for everything fetch tasks produce
	var records []*model.ActivityRecord
	recordCounts := make(map[model.Source]int)
	errorCounts := make(map[model.Source]int)
	collected := make(chan struct{})
	go func() {
		defer close(collected)
		for o := range results {
			if o.err != nil {
				errorCounts[o.source]++
				log.Warn("item fetch failed", "walk", o.source.Label(), "error", o.err)
				continue
			}
			if o.record != nil {
				recordCounts[o.source]++
				records = append(records, o.record)
			}
		}
	}()

	var details errgroup.Group
	dispatch := func(item model.Item) {
		dispatched.Add(1)
		report()
		details.Go(func() error {
			defer func() {
				finished.Add(1)
				report()
			}()

			if err := sem.Acquire(ctx, 1); err != nil {
				return nil
			}
			defer sem.Release(1)

			record, err := fetcher.Fetch(ctx, item)
			results <- outcome{source: item.Source, record: record, err: err}
			return nil
		})
	}

	stats := make([]*WalkStats, len(c.sources))
	var walkers errgroup.Group
	for i, source := range c.sources {
		query := BuildQuery(source, c.cfg.Username, c.cfg.Window.Since())
		ws := &WalkStats{Source: source, Query: query}
		stats[i] = ws

		walkers.Go(func() error {
			defer func() {
				walksDone.Add(1)
				report()
			}()

			log.Info("starting search walk", "walk", source.Label(), "query", query)
			walker := NewWalker(c.api, source, query, c.cfg.MaxPages, c.cfg.PerPage, &requests)
			pages, err := walker.Walk(ctx, func(item model.Item) {
				ws.Items++
				if c.excluded(item.Key.Repo) {
					ws.Skipped++
					return
				}
				dispatch(item)
			})
			ws.Pages = pages
			ws.Warning = err
			return nil
		})
	}

	// Walkers first: they are the only callers of details.Go
	_ = walkers.Wait()
	_ = details.Wait()
	close(results)
	<-collected

	for _, ws := range stats {
		ws.Records = recordCounts[ws.Source]
		ws.Errors = errorCounts[ws.Source]
	}

	result := &Result{
		Records:        records,
		SearchRequests: requests.Load(),
		Walks:          stats,
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

func (c *Coordinator) excluded(repo string) bool {
	for _, r := range c.cfg.ExcludeRepos {
		if strings.EqualFold(r, repo) {
			return true
		}
	}
	return false
}
