package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/spiffcs/recap/internal/constants"
	"github.com/spiffcs/recap/internal/format"
)

// Task is one line of the progress display.
type Task struct {
	ID       TaskID
	Name     string
	Status   TaskStatus
	Message  string
	Count    int
	Progress float64
	Error    error
	Elapsed  time.Duration // Set once the task completes or fails

	started time.Time
}

// NewTask creates a pending task.
func NewTask(id TaskID, name string) Task {
	return Task{
		ID:     id,
		Name:   name,
		Status: StatusPending,
	}
}

// apply folds an event into the task. now stamps the first running event
// and the terminal one so the elapsed time can be shown.
func (t *Task) apply(e TaskEvent, now time.Time) {
	if e.Status == StatusRunning && t.started.IsZero() {
		t.started = now
	}
	if (e.Status == StatusComplete || e.Status == StatusError) && !t.started.IsZero() && t.Elapsed == 0 {
		t.Elapsed = now.Sub(t.started)
	}

	t.Status = e.Status
	if e.Message != "" {
		t.Message, _ = format.Truncate(e.Message, constants.TUIMessageWidth)
	}
	if e.Count > 0 {
		t.Count = e.Count
	}
	if e.Progress > 0 {
		t.Progress = e.Progress
	}
	if e.Error != nil {
		t.Error = e.Error
	}
}

// View renders the task line. The progress bar only shows while running.
func (t Task) View(spinnerFrame string, bar progress.Model) string {
	var b strings.Builder
	b.WriteString("  ")
	b.WriteString(StatusIcon(t.Status, spinnerFrame))
	b.WriteString(" ")
	if t.Status == StatusPending {
		b.WriteString(taskDimStyle.Render(t.Name))
	} else {
		b.WriteString(taskNameStyle.Render(t.Name))
	}

	switch t.Status {
	case StatusRunning:
		if t.Progress > 0 {
			fmt.Fprintf(&b, " %s %d%%", bar.ViewAs(t.Progress), int(t.Progress*100))
		}
		if t.Message != "" {
			b.WriteString(" " + messageStyle.Render("("+t.Message+")"))
		}
	case StatusComplete:
		var details []string
		if t.Count > 0 {
			details = append(details, fmt.Sprintf("%d", t.Count))
		} else if t.Message != "" {
			details = append(details, t.Message)
		}
		if t.Elapsed > 0 {
			details = append(details, t.Elapsed.Round(10*time.Millisecond).String())
		}
		if len(details) > 0 {
			b.WriteString(" " + messageStyle.Render("("+strings.Join(details, ", ")+")"))
		}
	case StatusSkipped:
		if t.Message != "" {
			b.WriteString(" " + taskDimStyle.Render("("+t.Message+")"))
		}
	case StatusError:
		if t.Error != nil {
			b.WriteString(" " + errorStyle.Render(t.Error.Error()))
		}
	}

	return b.String()
}
