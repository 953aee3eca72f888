package tui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spiffcs/recap/internal/constants"
	"github.com/spiffcs/recap/internal/format"
)

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	model, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T, want Model", next)
	}
	return model
}

func TestModelAuthShowsUsername(t *testing.T) {
	m := NewModel(nil)
	m = update(t, m, TaskEvent{Task: TaskAuth, Status: StatusComplete, Message: "octocat"})

	view := m.View()
	if !strings.Contains(view, "Authenticated as") || !strings.Contains(view, "octocat") {
		t.Errorf("view missing authenticated user:\n%s", view)
	}
}

func TestModelTaskProgress(t *testing.T) {
	m := NewModel(nil)
	m = update(t, m, TaskEvent{Task: TaskDetails, Status: StatusRunning, Progress: 0.5, Message: "6/12"})

	var got Task
	for _, task := range m.tasks {
		if task.ID == TaskDetails {
			got = task
		}
	}
	if got.Status != StatusRunning || got.Progress != 0.5 || got.Message != "6/12" {
		t.Errorf("task not updated: %+v", got)
	}
}

func TestModelTruncatesLongMessage(t *testing.T) {
	m := NewModel(nil)
	m = update(t, m, TaskEvent{Task: TaskSearch, Status: StatusRunning, Message: strings.Repeat("x", 200)})

	for _, task := range m.tasks {
		if task.ID != TaskSearch {
			continue
		}
		if w := format.Width(task.Message); w > constants.TUIMessageWidth {
			t.Errorf("message width = %d, want <= %d", w, constants.TUIMessageWidth)
		}
		if !strings.Contains(task.Message, "...") {
			t.Errorf("truncated message missing ellipsis: %q", task.Message)
		}
	}
}

func TestModelTaskError(t *testing.T) {
	m := NewModel(nil)
	m = update(t, m, TaskEvent{Task: TaskSearch, Status: StatusError, Error: errors.New("boom")})

	if !strings.Contains(m.View(), "boom") {
		t.Errorf("view missing task error:\n%s", m.View())
	}
}

func TestModelRateLimitWarning(t *testing.T) {
	m := NewModel(nil)
	m = update(t, m, RateLimitEvent{Resource: "search", Limited: true, ResetAt: time.Now().Add(time.Minute)})

	if !strings.Contains(m.View(), "search rate limit exhausted") {
		t.Errorf("view missing rate limit warning:\n%s", m.View())
	}

	m = update(t, m, RateLimitEvent{Resource: "search", Limited: false})
	if strings.Contains(m.View(), "rate limit exhausted") {
		t.Errorf("warning not cleared:\n%s", m.View())
	}
}

func TestModelDone(t *testing.T) {
	m := NewModel(nil)
	m = update(t, m, DoneEvent{})

	if !m.done {
		t.Error("model not marked done")
	}
	if strings.Contains(m.View(), "Ctrl+C") {
		t.Error("cancel hint shown after completion")
	}
}

func TestWithTasks(t *testing.T) {
	m := NewModel(nil, WithTasks([]Task{NewTask(TaskRender, "Only")}))
	if len(m.tasks) != 1 || m.tasks[0].ID != TaskRender {
		t.Errorf("WithTasks not applied: %+v", m.tasks)
	}
}

func TestModelHeader(t *testing.T) {
	if strings.Contains(NewModel(nil).View(), "Collecting") {
		t.Error("header shown without a window")
	}

	m := NewModel(nil, WithWindowDays(7))
	if !strings.Contains(m.View(), "Collecting the last 7 days of activity") {
		t.Errorf("view missing header:\n%s", m.View())
	}
}

func TestModelResizesProgressBar(t *testing.T) {
	tests := []struct {
		width int
		want  int
	}{
		{20, minBarWidth},
		{80, 20},
		{400, maxBarWidth},
	}

	for _, tt := range tests {
		m := update(t, NewModel(nil), tea.WindowSizeMsg{Width: tt.width, Height: 24})
		if m.progress.Width != tt.want {
			t.Errorf("width %d: bar = %d, want %d", tt.width, m.progress.Width, tt.want)
		}
	}
}

func TestModelEventsClosed(t *testing.T) {
	m := update(t, NewModel(nil), doneMsg{})
	if !m.done {
		t.Error("model not marked done when events close")
	}
}
