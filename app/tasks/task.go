package tasks

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

type TaskType string

const (
	TaskTypeLoadFeed     TaskType = "load_feed"
	TaskTypePrefetchFeed TaskType = "prefetch_feed"
)

const (
	DefaultMaxRetries = 3
)

var (
	ErrQueueFull = errors.New("task queue is full")
	ErrStopped   = errors.New("scheduler stopped")
)

// TaskInterface is a unit of work run by the Scheduler. Meta exposes the
// bookkeeping the scheduler keeps for retries and logging.
type TaskInterface interface {
	Execute(ctx context.Context) error
	Meta() *Task
}

// Abortable tasks are told when they are dropped without running, so that
// whoever waits on them is released.
type Abortable interface {
	Abort(err error)
}

type Task struct {
	ID         string
	Type       TaskType
	FeedName   string
	RetryCount int
	MaxRetries int
	StartedAt  *time.Time
}

func (t *Task) Meta() *Task {
	return t
}

// Retry counts another attempt and reports whether one is still allowed.
func (t *Task) Retry() bool {
	if t.RetryCount >= t.MaxRetries {
		return false
	}
	t.RetryCount++
	return true
}

func (t *Task) Start() {
	now := time.Now()
	t.StartedAt = &now
}

// Duration is the time since the current attempt started.
func (t *Task) Duration() time.Duration {
	if t.StartedAt == nil {
		return 0
	}
	return time.Since(*t.StartedAt)
}

func NewTask(taskType TaskType, feedName string) Task {
	return Task{
		ID:         uuid.NewString(),
		Type:       taskType,
		FeedName:   feedName,
		MaxRetries: DefaultMaxRetries,
	}
}
