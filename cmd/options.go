package cmd

import "github.com/spiffcs/recap/internal/constants"

// Options holds the shared command-line options for the recap CLI.
type Options struct {
	Format           string
	User             string
	Days             int
	Window           string // Human duration (e.g. "1w"); overrides Days when set
	Workers          int
	MaxPages         int
	MinSearchQuota   int
	APIURL           string
	MetricsFile      string
	NoReviewComments bool
	Verbosity        int
	TUI              *bool // nil = auto-detect, true = force TUI, false = disable TUI

	// Profiling options
	CPUProfile string // Write CPU profile to file
	MemProfile string // Write memory profile to file
	Trace      string // Write execution trace to file
}

// Option is a functional option for configuring Options.
type Option func(*Options)

// NewOptions creates a new Options with defaults and applies any provided options.
func NewOptions(opts ...Option) *Options {
	o := &Options{
		Days:           constants.DefaultWindowDays,
		Workers:        constants.DefaultMaxConnections,
		MaxPages:       constants.MaxSearchPages,
		MinSearchQuota: constants.MinSearchQuota,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithFormat sets the output format (markdown, json, table).
func WithFormat(format string) Option {
	return func(o *Options) {
		o.Format = format
	}
}

// WithUser sets the user whose activity is reported.
func WithUser(user string) Option {
	return func(o *Options) {
		o.User = user
	}
}

// WithDays sets the window length in days.
func WithDays(days int) Option {
	return func(o *Options) {
		o.Days = days
	}
}

// WithWindow sets the window as a human duration (e.g., "1w", "10d").
func WithWindow(window string) Option {
	return func(o *Options) {
		o.Window = window
	}
}

// WithVerbosity sets the verbosity level.
func WithVerbosity(v int) Option {
	return func(o *Options) {
		o.Verbosity = v
	}
}

// WithWorkers sets the number of concurrent detail fetches.
func WithWorkers(workers int) Option {
	return func(o *Options) {
		o.Workers = workers
	}
}

// WithTUI controls TUI mode (nil = auto-detect, true = force, false = disable).
func WithTUI(tui *bool) Option {
	return func(o *Options) {
		o.TUI = tui
	}
}

// WithMetricsFile sets where run metrics are written.
func WithMetricsFile(path string) Option {
	return func(o *Options) {
		o.MetricsFile = path
	}
}

// WithCPUProfile sets the CPU profile output file.
func WithCPUProfile(path string) Option {
	return func(o *Options) {
		o.CPUProfile = path
	}
}

// WithMemProfile sets the memory profile output file.
func WithMemProfile(path string) Option {
	return func(o *Options) {
		o.MemProfile = path
	}
}

// WithTrace sets the execution trace output file.
func WithTrace(path string) Option {
	return func(o *Options) {
		o.Trace = path
	}
}
