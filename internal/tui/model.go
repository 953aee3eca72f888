package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spiffcs/recap/internal/format"
)

const (
	minBarWidth = 10
	maxBarWidth = 30
)

// Model is the Bubble Tea model behind Run.
type Model struct {
	tasks    []Task
	spinner  spinner.Model
	progress progress.Model
	events   <-chan Event

	days     int    // window length shown in the header, 0 hides it
	username string // set when TaskAuth completes
	done     bool

	rateLimited    string // resource currently exhausted, if any
	rateLimitReset time.Time
}

// doneMsg is produced when the event channel closes.
type doneMsg struct{}

// ModelOption configures a Model.
type ModelOption func(*Model)

// WithTasks replaces the default digest tasks.
func WithTasks(tasks []Task) ModelOption {
	return func(m *Model) {
		m.tasks = tasks
	}
}

// WithWindowDays shows the window length in the header.
func WithWindowDays(days int) ModelOption {
	return func(m *Model) {
		m.days = days
	}
}

// DefaultTasks returns the task list for a digest run.
func DefaultTasks() []Task {
	return []Task{
		NewTask(TaskAuth, "Authenticating"),
		NewTask(TaskSearch, "Searching activity"),
		NewTask(TaskDetails, "Fetching commits and comments"),
		NewTask(TaskRender, "Building digest"),
	}
}

// NewModel creates a model that reads from events.
func NewModel(events <-chan Event, opts ...ModelOption) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot

	m := Model{
		tasks:   DefaultTasks(),
		spinner: s,
		progress: progress.New(
			progress.WithScaledGradient("#60a5fa", "#1e3a8a"),
			progress.WithWidth(maxBarWidth),
			progress.WithoutPercentage(),
		),
		events: events,
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// Init starts the spinner and the event pump.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForEvent(m.events))
}

// Update handles key presses, resizes, animation frames and events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if s := msg.String(); s == "ctrl+c" || s == "q" {
			return m, tea.Quit
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.progress.Width = min(max(msg.Width/4, minBarWidth), maxBarWidth)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progress.FrameMsg:
		next, cmd := m.progress.Update(msg)
		m.progress = next.(progress.Model)
		return m, cmd

	case TaskEvent:
		var cmd tea.Cmd
		m, cmd = m.updateTask(msg)
		return m, tea.Batch(cmd, waitForEvent(m.events))

	case RateLimitEvent:
		switch {
		case msg.Limited:
			m.rateLimited = msg.Resource
			m.rateLimitReset = msg.ResetAt
		case m.rateLimited == msg.Resource:
			m.rateLimited = ""
		}
		return m, waitForEvent(m.events)

	case DoneEvent, doneMsg:
		m.done = true
		return m, tea.Quit
	}

	return m, nil
}

// updateTask applies a TaskEvent to its task.
func (m Model) updateTask(e TaskEvent) (Model, tea.Cmd) {
	var cmd tea.Cmd
	for i := range m.tasks {
		if m.tasks[i].ID != e.Task {
			continue
		}
		m.tasks[i].apply(e, time.Now())
		if e.Progress > 0 {
			cmd = m.progress.SetPercent(e.Progress)
		}
		if e.Task == TaskAuth && e.Status == StatusComplete && e.Message != "" {
			m.username = e.Message
		}
		break
	}
	return m, cmd
}

// View renders the header, one line per task and any rate limit warning.
func (m Model) View() string {
	var b strings.Builder

	if m.days > 0 {
		b.WriteString(messageStyle.Render(fmt.Sprintf("  Collecting the last %d days of activity", m.days)))
		b.WriteString("\n\n")
	}

	for _, task := range m.tasks {
		if task.ID == TaskAuth {
			b.WriteString(m.authLine(task))
		} else {
			b.WriteString(task.View(m.spinner.View(), m.progress))
		}
		b.WriteString("\n")
	}

	if m.rateLimited != "" {
		if left := time.Until(m.rateLimitReset); left > 0 {
			b.WriteString(warnStyle.Render(fmt.Sprintf(
				"\n  %s rate limit exhausted - remaining requests will fail (resets in %s)\n",
				m.rateLimited, format.Countdown(left))))
		}
	}

	if !m.done {
		b.WriteString(footerStyle.Render("\n  Press Ctrl+C to cancel"))
	}
	b.WriteString("\n")
	return b.String()
}

// authLine names the authenticated user instead of the task once known.
func (m Model) authLine(task Task) string {
	switch task.Status {
	case StatusRunning:
		return fmt.Sprintf("  %s Authenticating...", spinnerStyle.Render(m.spinner.View()))
	case StatusComplete:
		if m.username != "" {
			return fmt.Sprintf("  %s Authenticated as %s", iconComplete, userStyle.Render(m.username))
		}
	case StatusError:
		if task.Error != nil {
			return fmt.Sprintf("  %s Authenticating %s", iconError, errorStyle.Render(task.Error.Error()))
		}
	}
	return task.View(m.spinner.View(), m.progress)
}

// waitForEvent reads the next event, or reports doneMsg once events closes.
func waitForEvent(events <-chan Event) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-events
		if !ok {
			return doneMsg{}
		}
		return event
	}
}
