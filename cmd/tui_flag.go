package cmd

import (
	"fmt"
	"strconv"

	"github.com/spiffcs/recap/internal/tui"
)

// tuiFlag is the --tui value: true, false or auto. A bare --tui means true.
type tuiFlag struct {
	opts *Options
}

func newTUIFlag(opts *Options) *tuiFlag {
	return &tuiFlag{opts: opts}
}

func (f *tuiFlag) String() string {
	if f.opts.TUI == nil {
		return "auto"
	}
	return strconv.FormatBool(*f.opts.TUI)
}

func (f *tuiFlag) Set(s string) error {
	if s == "auto" {
		f.opts.TUI = nil
		return nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return fmt.Errorf("invalid value %q: use true, false, or auto", s)
	}
	f.opts.TUI = &v
	return nil
}

func (f *tuiFlag) Type() string { return "bool" }

func (f *tuiFlag) IsBoolFlag() bool { return true }

// shouldUseTUI reports whether progress is drawn with the TUI. Verbose runs
// always log instead, since the TUI discards log output while it owns stderr.
func shouldUseTUI(opts *Options) bool {
	switch {
	case opts.Verbosity > 0:
		return false
	case opts.TUI != nil:
		return *opts.TUI
	default:
		return tui.ShouldUseTUI()
	}
}
