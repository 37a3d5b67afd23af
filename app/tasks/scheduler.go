package tasks

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

// Producer returns the tasks to enqueue on startup and on every tick.
type Producer func() []TaskInterface

type Options struct {
	Name        string
	WorkerCount int
	QueueSize   int
	Interval    time.Duration // zero disables the ticker
	TaskTimeout time.Duration
	Producer    Producer
}

type Scheduler struct {
	name        string
	workerCount int
	interval    time.Duration
	taskTimeout time.Duration
	producer    Producer
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	stopOnce    sync.Once
	taskQueue   chan TaskInterface

	mu      sync.RWMutex // guards stopped against sends racing the final drain
	stopped bool
}

func NewScheduler(opts Options) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	if opts.WorkerCount <= 0 {
		opts.WorkerCount = 1
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 300
	}
	if opts.TaskTimeout <= 0 {
		opts.TaskTimeout = 5 * time.Minute
	}

	return &Scheduler{
		name:        opts.Name,
		workerCount: opts.WorkerCount,
		interval:    opts.Interval,
		taskTimeout: opts.TaskTimeout,
		producer:    opts.Producer,
		ctx:         ctx,
		cancel:      cancel,
		taskQueue:   make(chan TaskInterface, opts.QueueSize),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	if s.producer == nil {
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		s.enqueueProduced()

		if s.interval <= 0 {
			return
		}

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueProduced()
			}
		}
	}()
}

// Stop cancels running tasks, waits for the workers and aborts everything
// still queued.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.stopped = true
		s.mu.Unlock()

		s.cancel()
		s.wg.Wait()

		for {
			select {
			case task := <-s.taskQueue:
				abortTask(task)
			default:
				return
			}
		}
	})
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.stopped {
		return ErrStopped
	}

	select {
	case s.taskQueue <- task:
		return nil
	default:
		return ErrQueueFull
	}
}

func (s *Scheduler) enqueueProduced() {
	tasks := s.producer()
	if len(tasks) == 0 {
		slog.Debug("No tasks produced", "scheduler", s.name)
		return
	}

	slog.Debug("Enqueueing produced tasks", "scheduler", s.name, "count", len(tasks))

	for _, task := range tasks {
		if err := s.EnqueueTask(task); err != nil {
			meta := task.Meta()
			slog.Warn("Failed to enqueue task", "scheduler", s.name, "type", string(meta.Type), "feed", meta.FeedName, "error", err)
		}
	}
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			return
		case task := <-s.taskQueue:
			if s.ctx.Err() != nil {
				abortTask(task)
				return
			}
			s.executeTask(id, task)
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	meta := task.Meta()
	meta.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, s.taskTimeout)
	defer cancel()

	err := task.Execute(taskCtx)
	if err == nil {
		return
	}

	if meta.MaxRetries == 0 {
		// Tasks without retries report their own failures.
		slog.Debug("Worker task execution failed", "scheduler", s.name, "worker_id", workerID, "type", string(meta.Type), "id", meta.ID, "error", err)
		return
	}

	slog.Error("Worker task execution failed", "scheduler", s.name, "worker_id", workerID, "type", string(meta.Type), "id", meta.ID, "retry_count", meta.RetryCount, "error", err)

	if s.ctx.Err() != nil || !meta.Retry() {
		slog.Error("Task failed after maximum retries", "scheduler", s.name, "type", string(meta.Type), "id", meta.ID, "retry_count", meta.RetryCount, "max_retries", meta.MaxRetries, "last_error", err)
		return
	}

	retryDelay := min(time.Duration(1<<uint(meta.RetryCount-1))*time.Second, 30*time.Second)

	slog.Warn("Task retry scheduled", "scheduler", s.name, "type", string(meta.Type), "feed", meta.FeedName, "retry_count", meta.RetryCount, "max_retries", meta.MaxRetries, "delay", retryDelay.String())

	go func() {
		timer := time.NewTimer(retryDelay)
		defer timer.Stop()

		select {
		case <-s.ctx.Done():
			slog.Debug("Scheduler stopped, skipping task retry", "scheduler", s.name, "type", string(meta.Type), "id", meta.ID)
		case <-timer.C:
			if retryErr := s.EnqueueTask(task); retryErr != nil {
				slog.Error("Failed to re-enqueue task for retry", "scheduler", s.name, "type", string(meta.Type), "id", meta.ID, "retry_count", meta.RetryCount, "error", retryErr)
			}
		}
	}()
}

func abortTask(task TaskInterface) {
	if abortable, ok := task.(Abortable); ok {
		abortable.Abort(ErrStopped)
	}
}
