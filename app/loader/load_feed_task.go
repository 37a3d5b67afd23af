package loader

import (
	"context"

	"github.com/lysyi3m/feed-reader/app/feed"
	"github.com/lysyi3m/feed-reader/app/tasks"
)

var (
	_ tasks.TaskInterface = (*LoadFeedTask)(nil)
	_ tasks.Abortable     = (*LoadFeedTask)(nil)
)

// LoadFeedTask applies one queued load to the display. It is never retried by
// the scheduler: a retry would run behind loads issued later.
type LoadFeedTask struct {
	tasks.Task
	Feed  feed.Feed
	Index int

	reqCtx  context.Context
	pending *Pending
	loader  *Loader
}

func newLoadFeedTask(reqCtx context.Context, pending *Pending, f feed.Feed, loader *Loader) *LoadFeedTask {
	task := tasks.NewTask(tasks.TaskTypeLoadFeed, f.Name)
	task.ID = pending.ID
	task.MaxRetries = 0

	return &LoadFeedTask{
		Task:    task,
		Feed:    f,
		Index:   pending.Index,
		reqCtx:  reqCtx,
		pending: pending,
		loader:  loader,
	}
}

func (t *LoadFeedTask) Execute(ctx context.Context) error {
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	stop := context.AfterFunc(t.reqCtx, func() {
		cancel(context.Cause(t.reqCtx))
	})
	defer stop()

	entries, err := t.loader.apply(ctx, t.Index, t.Feed)
	if err != nil {
		if reqErr := t.reqCtx.Err(); reqErr != nil {
			err = reqErr
		}
	}

	t.loader.finish(t.reqCtx, t.pending, t.Feed, entries, t.Duration(), err)
	return err
}

// Abort resolves a load that was dropped from the queue without running.
func (t *LoadFeedTask) Abort(err error) {
	t.loader.finish(t.reqCtx, t.pending, t.Feed, 0, 0, err)
}
