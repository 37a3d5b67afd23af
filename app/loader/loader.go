package loader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lysyi3m/feed-reader/app/database"
	"github.com/lysyi3m/feed-reader/app/feed"
	"github.com/lysyi3m/feed-reader/app/tasks"
	"github.com/lysyi3m/feed-reader/app/view"
)

const recordTimeout = 5 * time.Second

type ContentSource interface {
	Get(ctx context.Context, f feed.Feed) (*feed.Content, error)
}

// Recorder receives one record per load attempt.
type Recorder interface {
	RecordLoad(ctx context.Context, record database.LoadRecord) error
}

var (
	_ ContentSource = (*feed.Source)(nil)
	_ Recorder      = (*database.LoadRepository)(nil)
)

type Options struct {
	QueueSize int
	Timeout   time.Duration
}

// Loader replaces the displayed feed. Loads run one at a time in the order
// they were issued, so the last load issued is the last one shown.
type Loader struct {
	catalog   *feed.Catalog
	state     *view.State
	source    ContentSource
	recorder  Recorder
	filterer  *feed.Filterer
	scheduler *tasks.Scheduler
}

// NewLoader creates a loader. recorder may be nil.
func NewLoader(catalog *feed.Catalog, state *view.State, source ContentSource, recorder Recorder, opts Options) *Loader {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 100
	}
	if opts.Timeout <= 0 {
		opts.Timeout = time.Minute
	}

	return &Loader{
		catalog:  catalog,
		state:    state,
		source:   source,
		recorder: recorder,
		filterer: feed.NewFilterer(),
		scheduler: tasks.NewScheduler(tasks.Options{
			Name:        "loader",
			WorkerCount: 1,
			QueueSize:   opts.QueueSize,
			TaskTimeout: opts.Timeout,
		}),
	}
}

func (l *Loader) Start() {
	l.scheduler.Start()
	slog.Debug("Loader started", "feeds", l.catalog.Len())
}

// Stop waits for the running load and fails the queued ones with
// tasks.ErrStopped.
func (l *Loader) Stop() {
	l.scheduler.Stop()
	slog.Debug("Loader stopped")
}

// Load queues a load of the feed at index and returns immediately. Invalid
// indexes and canceled contexts resolve at once without touching the display.
func (l *Loader) Load(ctx context.Context, index int) *Pending {
	pending := newPending(index)

	f, err := l.catalog.At(index)
	if err != nil {
		l.finish(ctx, pending, feed.Feed{}, 0, 0, err)
		return pending
	}

	if err := ctx.Err(); err != nil {
		l.finish(ctx, pending, f, 0, 0, err)
		return pending
	}

	task := newLoadFeedTask(ctx, pending, f, l)
	if err := l.scheduler.EnqueueTask(task); err != nil {
		l.finish(ctx, pending, f, 0, 0, fmt.Errorf("failed to queue load: %w", err))
		return pending
	}

	slog.Debug("Load queued", "id", pending.ID, "index", index, "feed", f.Name)
	return pending
}

// LoadFeed is the callback form of Load. onComplete, when set, is called
// exactly once with the load result.
func (l *Loader) LoadFeed(ctx context.Context, index int, onComplete func(error)) *Pending {
	pending := l.Load(ctx, index)
	if onComplete != nil {
		go func() {
			<-pending.Done()
			onComplete(pending.Err())
		}()
	}
	return pending
}

func (l *Loader) apply(ctx context.Context, index int, f feed.Feed) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	display := l.state.Display
	display.BeginLoad(index)

	content, err := l.source.Get(ctx, f)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		display.Abort(index)
		return 0, fmt.Errorf("failed to load feed %q: %w", f.Name, err)
	}

	items := l.filterer.Visible(content.Items, f.Filters)
	entries := view.NewEntries(items)
	display.Complete(index, f.Name, entries)

	return len(entries), nil
}

// finish records the attempt and then resolves the pending load.
func (l *Loader) finish(ctx context.Context, pending *Pending, f feed.Feed, entries int, duration time.Duration, err error) {
	status := statusFor(err)

	if err != nil {
		slog.Warn("Feed load failed", "id", pending.ID, "index", pending.Index, "feed", f.Name, "status", string(status), "error", err)
	} else {
		slog.Info("Feed loaded", "id", pending.ID, "index", pending.Index, "feed", f.Name, "entries", entries, "duration", duration)
	}

	if l.recorder != nil {
		record := database.LoadRecord{
			ID:         pending.ID,
			FeedIndex:  pending.Index,
			FeedName:   f.Name,
			FeedURL:    f.URL,
			Status:     status,
			EntryCount: entries,
			Duration:   duration,
		}
		if err != nil {
			record.Error = err.Error()
		}

		recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
		if recErr := l.recorder.RecordLoad(recordCtx, record); recErr != nil {
			slog.Error("Failed to record load", "id", pending.ID, "error", recErr)
		}
		cancel()
	}

	pending.resolve(err)
}

func statusFor(err error) database.LoadStatus {
	switch {
	case err == nil:
		return database.LoadStatusSuccess
	case errors.Is(err, feed.ErrInvalidIndex),
		errors.Is(err, tasks.ErrQueueFull),
		errors.Is(err, tasks.ErrStopped):
		return database.LoadStatusRejected
	case errors.Is(err, context.Canceled):
		return database.LoadStatusCanceled
	default:
		return database.LoadStatusFailed
	}
}
