package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"github.com/spiffcs/recap/config"
	"github.com/spiffcs/recap/internal/activity"
	"github.com/spiffcs/recap/internal/constants"
	"github.com/spiffcs/recap/internal/duration"
	"github.com/spiffcs/recap/internal/ghclient"
	"github.com/spiffcs/recap/internal/log"
	"github.com/spiffcs/recap/internal/metrics"
	"github.com/spiffcs/recap/internal/output"
	"github.com/spiffcs/recap/internal/tui"
)

// digestRuntime bundles TUI-related state that's threaded through the digest command.
type digestRuntime struct {
	useTUI  bool
	events  chan tui.Event
	tuiDone chan error
	diag    *heldOutput // logs and diagnostics held back while the TUI owns stderr
	stderr  io.Writer   // where held output is released

	verbosity int
	closeOnce sync.Once
}

// runTUI draws the progress display. Tests replace it.
var runTUI = tui.Run

// heldOutput buffers writes from the logger and diagnostics, which may come
// from several goroutines.
type heldOutput struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (h *heldOutput) Write(p []byte) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.buf.Write(p)
}

func (h *heldOutput) WriteTo(w io.Writer) (int64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.buf.WriteTo(w)
}

// startTUI initializes and starts the TUI goroutine if TUI mode is enabled.
// Quitting the TUI early calls cancel.
func (rt *digestRuntime) startTUI(cancel context.CancelFunc, opts ...tui.ModelOption) {
	if !rt.useTUI {
		return
	}
	rt.events = make(chan tui.Event, 100)
	rt.tuiDone = make(chan error, 1)
	go func() {
		err := runTUI(rt.events, opts...)
		if errors.Is(err, tui.ErrInterrupted) {
			cancel()
		}
		rt.tuiDone <- err
	}()
}

// close closes the event channel, waits for the TUI to finish and releases
// any logs and diagnostics that were held back. Safe to call more than once.
func (rt *digestRuntime) close() {
	rt.closeOnce.Do(func() {
		closeTUI(rt.events, rt.tuiDone)
		if rt.diag != nil {
			log.Initialize(rt.verbosity, os.Stderr)
			log.SetDiagOutput(rt.stderr)
			_, _ = rt.diag.WriteTo(rt.stderr)
		}
	})
}

// sendEvent sends a task event to the TUI channel if it exists.
func (rt *digestRuntime) sendEvent(task tui.TaskID, status tui.TaskStatus, opts ...tui.TaskEventOption) {
	sendTaskEvent(rt.events, task, status, opts...)
}

// NewCmdDigest creates the digest command.
func NewCmdDigest(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "digest",
		Short: "Print a day-by-day digest of your recent GitHub activity (same as root recap)",
		Long: `Searches GitHub for pull requests and issues you authored, commented on
or reviewed during the window, fetches your commits and comments on each,
and prints them grouped by day.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDigest(cmd, opts)
		},
	}

	addDigestFlags(cmd, opts)
	return cmd
}

// addDigestFlags adds the digest-specific flags to a command.
func addDigestFlags(cmd *cobra.Command, opts *Options) {
	cmd.Flags().StringVarP(&opts.User, "user", "u", "", "GitHub user to report on (default: $GITHUB_USERNAME, config, then the token owner)")
	cmd.Flags().IntVarP(&opts.Days, "days", "d", constants.DefaultWindowDays, "Number of days of activity to include")
	cmd.Flags().StringVar(&opts.Window, "window", "", "Window as a duration (e.g., 1w, 10d, 1mo); overrides --days")
	cmd.Flags().IntVarP(&opts.Workers, "workers", "w", constants.DefaultMaxConnections, "Number of concurrent detail fetches")
	cmd.Flags().IntVar(&opts.MaxPages, "max-pages", constants.MaxSearchPages, "Maximum search result pages per query")
	cmd.Flags().IntVar(&opts.MinSearchQuota, "min-search-quota", constants.MinSearchQuota, "Minimum remaining search requests required to start")
	cmd.Flags().StringVar(&opts.APIURL, "api-url", "", "GitHub API base URL (for GitHub Enterprise)")
	cmd.Flags().BoolVar(&opts.NoReviewComments, "no-review-comments", false, "Skip fetching pull request review comments")
	cmd.Flags().StringVar(&opts.MetricsFile, "metrics-file", "", "Write run metrics in Prometheus text format to file")
	cmd.Flags().StringVarP(&opts.Format, "output", "o", "", "Output format (markdown, json, table)")
	cmd.Flags().CountVarP(&opts.Verbosity, "verbose", "v", "Increase verbosity (-v info, -vv debug, -vvv trace)")

	// TUI flag with tri-state: nil = auto, true = force, false = disable
	cmd.Flags().Var(newTUIFlag(opts), "tui", "Enable/disable TUI progress (default: auto-detect)")

	// Profiling flags
	cmd.Flags().StringVar(&opts.CPUProfile, "cpuprofile", "", "Write CPU profile to file")
	cmd.Flags().StringVar(&opts.MemProfile, "memprofile", "", "Write memory profile to file")
	cmd.Flags().StringVar(&opts.Trace, "trace", "", "Write execution trace to file")
}

func runDigest(cmd *cobra.Command, opts *Options) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt)
	defer cancel()

	format, err := output.ParseFormat(opts.Format)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	settings, err := resolveSettings(cmd, opts, cfg)
	if err != nil {
		return err
	}

	token := cfg.GetGitHubToken()
	if token == "" {
		return fmt.Errorf("GitHub token not configured. Set the GITHUB_TOKEN environment variable")
	}

	// Setup
	rt, cleanup, err := setupRuntime(opts)
	if err != nil {
		return err
	}
	defer cleanup()
	defer rt.close()
	rt.startTUI(cancel, tui.WithWindowDays(settings.Days))

	var recorder *metrics.Recorder
	if opts.MetricsFile != "" {
		recorder = metrics.New()
	}

	client, err := newClient(ctx, token, settings, recorder)
	if err != nil {
		return err
	}

	// Preflight
	rt.sendEvent(tui.TaskAuth, tui.StatusRunning)
	login, quota, err := client.Preflight(ctx, log.DiagWriter(), settings.MinSearchQuota)
	if err != nil {
		rt.sendEvent(tui.TaskAuth, tui.StatusError, tui.WithError(err))
		return err
	}
	if recorder != nil {
		recorder.RecordQuota(quota)
	}
	if settings.Username == "" {
		settings.Username = login
	}
	rt.sendEvent(tui.TaskAuth, tui.StatusComplete, tui.WithMessage(settings.Username))

	// Collect
	window := activity.NewWindow(settings.Days, time.Now())
	log.Info("collecting activity", "user", settings.Username, "since", window.Since(), "workers", settings.Workers)

	coordinator := activity.NewCoordinator(client, activity.Config{
		Username:       settings.Username,
		Window:         window,
		MaxPages:       settings.MaxPages,
		PerPage:        constants.PageSize,
		Workers:        settings.Workers,
		ReviewComments: settings.ReviewComments,
		ExcludeRepos:   settings.ExcludeRepos,
	}, activity.WithProgress(newProgressReporter(rt, client.RateLimitState())))

	rt.sendEvent(tui.TaskSearch, tui.StatusRunning)
	rt.sendEvent(tui.TaskDetails, tui.StatusRunning)
	start := time.Now()
	result, err := coordinator.Collect(ctx)
	elapsed := time.Since(start)
	if !rt.useTUI {
		log.ProgressDone()
	}
	if err != nil {
		rt.sendEvent(tui.TaskSearch, tui.StatusError, tui.WithError(err))
		return fmt.Errorf("collection interrupted: %w", err)
	}
	reportWalks(rt, result)
	log.Diagf("Total search requests made: %d\n", result.SearchRequests)

	// Render
	rt.sendEvent(tui.TaskRender, tui.StatusRunning)
	merged := activity.Merge(result.Records)
	digest := output.BuildDigest(activity.BuildDisplay(merged), settings.Days)
	summary := output.Summarize(digest)
	log.Info("digest summary", "summary", summary.String())
	rt.sendEvent(tui.TaskRender, tui.StatusComplete, tui.WithCount(summary.Items))

	if recorder != nil {
		recorder.RecordRun(result, elapsed)
		if err := recorder.WriteFile(opts.MetricsFile); err != nil {
			log.Warn("failed to write metrics file", "path", opts.MetricsFile, "error", err)
		}
	}

	// Output
	rt.close()
	return output.NewFormatter(format).Format(digest, cmd.OutOrStdout())
}

// resolveSettings layers explicitly set flags over the loaded config.
func resolveSettings(cmd *cobra.Command, opts *Options, cfg *config.Config) (config.Settings, error) {
	s := cfg.GetSettings()
	if user := cfg.GetUsername(); user != "" {
		s.Username = user
	}

	flags := cmd.Flags()
	if flags.Changed("user") {
		s.Username = opts.User
	}
	if flags.Changed("days") {
		s.Days = opts.Days
	}
	if opts.Window != "" {
		days, err := duration.ParseDays(opts.Window)
		if err != nil {
			return s, fmt.Errorf("invalid --window: %w", err)
		}
		s.Days = days
	}
	if flags.Changed("workers") {
		s.Workers = opts.Workers
	}
	if flags.Changed("max-pages") {
		s.MaxPages = opts.MaxPages
	}
	if flags.Changed("min-search-quota") {
		s.MinSearchQuota = opts.MinSearchQuota
	}
	if opts.APIURL != "" {
		s.APIURL = opts.APIURL
	}
	if opts.NoReviewComments {
		s.ReviewComments = false
	}

	return s, s.Validate()
}

// newClient builds the shared API client. The transport connection cap is
// never lower than the number of detail workers.
func newClient(ctx context.Context, token string, s config.Settings, recorder *metrics.Recorder) (*ghclient.Client, error) {
	clientOpts := []ghclient.Option{
		ghclient.WithMaxConnections(max(s.MaxConnections, s.Workers)),
		ghclient.WithSearchRate(s.SearchRatePerMinute),
	}
	if s.APIURL != "" {
		clientOpts = append(clientOpts, ghclient.WithBaseURL(s.APIURL))
	}
	if recorder != nil {
		clientOpts = append(clientOpts, ghclient.WithTransportWrapper(recorder.InstrumentTransport))
	}
	return ghclient.NewClient(ctx, token, clientOpts...)
}

// setupRuntime creates the runtime struct and returns a cleanup function for profiling.
func setupRuntime(opts *Options) (*digestRuntime, func(), error) {
	profiler := NewProfiler(opts)
	if err := profiler.Start(); err != nil {
		return nil, nil, err
	}

	useTUI := shouldUseTUI(opts)
	rt := &digestRuntime{useTUI: useTUI, verbosity: opts.Verbosity}

	// Hold logs while the TUI draws so they don't interleave with the display
	if useTUI {
		rt.stderr = log.DiagOutput()
		rt.diag = &heldOutput{}
		log.Initialize(opts.Verbosity, rt.diag)
		log.SetDiagOutput(rt.diag)
	} else {
		log.Initialize(opts.Verbosity, os.Stderr)
	}

	return rt, profiler.Stop, nil
}

// newProgressReporter turns coordinator snapshots into TUI events, or into
// progress lines when the TUI is off. Updates are throttled.
func newProgressReporter(rt *digestRuntime, limits *ghclient.RateLimitState) activity.ProgressFunc {
	var lastUpdate atomic.Int64 // Unix nanoseconds
	var searchLimited atomic.Bool
	interval := int64(constants.TUIUpdateInterval)

	return func(p activity.Progress) {
		now := time.Now().UnixNano()
		last := lastUpdate.Load()
		final := p.WalksDone == p.WalksTotal && p.Finished == p.Dispatched
		if now-last < interval && !final {
			return
		}
		if !lastUpdate.CompareAndSwap(last, now) {
			return
		}

		if !rt.useTUI {
			if p.Dispatched > 0 {
				log.Progress("Fetching details: %d/%d items (%d/%d searches done)...",
					p.Finished, p.Dispatched, p.WalksDone, p.WalksTotal)
			}
			return
		}

		rt.sendEvent(tui.TaskSearch, tui.StatusRunning,
			tui.WithMessage(fmt.Sprintf("%d/%d queries", p.WalksDone, p.WalksTotal)),
			tui.WithProgress(float64(p.WalksDone)/float64(max(p.WalksTotal, 1))))
		if p.Dispatched > 0 {
			rt.sendEvent(tui.TaskDetails, tui.StatusRunning,
				tui.WithMessage(fmt.Sprintf("%d/%d", p.Finished, p.Dispatched)),
				tui.WithProgress(float64(p.Finished)/float64(p.Dispatched)))
		}

		_, _, resetAt, limited := limits.Status(ghclient.ResourceSearch)
		if limited != searchLimited.Load() {
			searchLimited.Store(limited)
			tui.SendEvent(rt.events, tui.RateLimitEvent{
				Resource: ghclient.ResourceSearch,
				Limited:  limited,
				ResetAt:  resetAt,
			})
		}
	}
}

// reportWalks logs per-walk outcomes and completes the collection tasks.
func reportWalks(rt *digestRuntime, result *activity.Result) {
	var items, errs, warnings int
	for _, w := range result.Walks {
		items += w.Items
		errs += w.Errors
		if w.Warning != nil {
			warnings++
		}
		log.Info("search complete",
			"walk", w.Source.Label(),
			"pages", w.Pages,
			"items", w.Items,
			"skipped", w.Skipped,
			"records", w.Records,
			"errors", w.Errors)
	}

	searchStatus := tui.StatusComplete
	if warnings == len(result.Walks) && warnings > 0 {
		searchStatus = tui.StatusError
	}
	rt.sendEvent(tui.TaskSearch, searchStatus,
		tui.WithMessage(fmt.Sprintf("%d items, %d requests", items, result.SearchRequests)))

	if items == 0 {
		rt.sendEvent(tui.TaskDetails, tui.StatusSkipped, tui.WithMessage("nothing to fetch"))
		return
	}
	msg := fmt.Sprintf("%d records", len(result.Records))
	if errs > 0 {
		msg = fmt.Sprintf("%d records, %d failed", len(result.Records), errs)
	}
	rt.sendEvent(tui.TaskDetails, tui.StatusComplete, tui.WithMessage(msg))
}

// sendTaskEvent sends a task event to the TUI channel if it exists.
func sendTaskEvent(events chan tui.Event, task tui.TaskID, status tui.TaskStatus, opts ...tui.TaskEventOption) {
	if events == nil {
		return
	}
	tui.SendTaskEvent(events, task, status, opts...)
}

// closeTUI closes the event channel and waits for the TUI to finish.
func closeTUI(events chan tui.Event, tuiDone chan error) {
	if events == nil {
		return
	}
	close(events)
	if tuiDone != nil {
		<-tuiDone
	}
}
