// Package tui draws the digest's progress display on stderr while the
// searches and detail fetches run.
package tui

import (
	"errors"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"
)

// ErrInterrupted is returned by Run when the user quits before the run ends.
var ErrInterrupted = errors.New("interrupted")

// Run draws the display until events is closed or a DoneEvent arrives.
// It renders inline on stderr so stdout only carries the digest.
func Run(events <-chan Event, opts ...ModelOption) error {
	p := tea.NewProgram(NewModel(events, opts...), tea.WithOutput(os.Stderr))
	final, err := p.Run()
	if err != nil {
		return err
	}
	if m, ok := final.(Model); ok && !m.done {
		return ErrInterrupted
	}
	return nil
}

// ciEnvVars are set by CI systems whose logs cannot render the display.
var ciEnvVars = []string{
	"CI",
	"GITHUB_ACTIONS",
	"JENKINS_URL",
	"TRAVIS",
	"CIRCLECI",
	"GITLAB_CI",
	"BUILDKITE",
}

// ShouldUseTUI reports whether stderr can host the display.
func ShouldUseTUI() bool {
	return canDraw(term.IsTerminal(int(os.Stderr.Fd())), os.Getenv)
}

func canDraw(isTTY bool, getenv func(string) string) bool {
	if !isTTY || getenv("TERM") == "dumb" {
		return false
	}
	for _, v := range ciEnvVars {
		if getenv(v) != "" {
			return false
		}
	}
	return true
}
