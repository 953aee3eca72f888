package tui

import "time"

// TaskID identifies a line in the progress display.
type TaskID int

const (
	TaskAuth    TaskID = iota // Validating the token and search quota
	TaskSearch                // Walking the four search queries
	TaskDetails               // Fetching commits and comments per item
	TaskRender                // Merging and rendering the digest
)

// TaskStatus is the lifecycle state of a task.
type TaskStatus int

const (
	StatusPending TaskStatus = iota
	StatusRunning
	StatusComplete
	StatusError
	StatusSkipped // Nothing to do, e.g. no items matched the searches
)

// Event is anything the digest command sends to the progress display.
type Event interface {
	isEvent()
}

// TaskEvent updates one task. Zero fields leave the task's value unchanged.
type TaskEvent struct {
	Task     TaskID
	Status   TaskStatus
	Message  string  // e.g. "6/12" or "3 records, 1 failed"
	Count    int     // e.g. digest entries rendered
	Progress float64 // 0.0 to 1.0
	Error    error   // set with StatusError
}

// RateLimitEvent reports that a rate limit resource was exhausted mid-run,
// or that it recovered.
type RateLimitEvent struct {
	Resource string
	Limited  bool
	ResetAt  time.Time
}

// DoneEvent ends the display.
type DoneEvent struct{}

func (TaskEvent) isEvent()      {}
func (RateLimitEvent) isEvent() {}
func (DoneEvent) isEvent()      {}

// SendEvent delivers e without blocking. Events are dropped when ch is nil
// or full.
func SendEvent(ch chan<- Event, e Event) {
	if ch == nil {
		return
	}
	select {
	case ch <- e:
	default:
	}
}

// TaskEventOption sets an optional TaskEvent field.
type TaskEventOption func(*TaskEvent)

// SendTaskEvent builds a TaskEvent from opts and sends it with SendEvent.
func SendTaskEvent(ch chan<- Event, task TaskID, status TaskStatus, opts ...TaskEventOption) {
	e := TaskEvent{Task: task, Status: status}
	for _, opt := range opts {
		opt(&e)
	}
	SendEvent(ch, e)
}

func WithMessage(msg string) TaskEventOption {
	return func(e *TaskEvent) { e.Message = msg }
}

func WithCount(n int) TaskEventOption {
	return func(e *TaskEvent) { e.Count = n }
}

func WithProgress(p float64) TaskEventOption {
	return func(e *TaskEvent) { e.Progress = p }
}

func WithError(err error) TaskEventOption {
	return func(e *TaskEvent) { e.Error = err }
}
