package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/feed-reader/app/feed"
)

// Refresher fetches a feed bypassing and then updating the content cache.
type Refresher interface {
	Refresh(ctx context.Context, f feed.Feed) (*feed.Content, error)
}

// PrefetchFeedTask warms the content cache so that user-triggered loads are
// served without waiting on the network.
type PrefetchFeedTask struct {
	Task
	Feed      feed.Feed
	refresher Refresher
}

func NewPrefetchFeedTask(f feed.Feed, refresher Refresher) *PrefetchFeedTask {
	return &PrefetchFeedTask{
		Task:      NewTask(TaskTypePrefetchFeed, f.Name),
		Feed:      f,
		refresher: refresher,
	}
}

func (t *PrefetchFeedTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	content, err := t.refresher.Refresh(ctx, t.Feed)
	if err != nil {
		return fmt.Errorf("failed to prefetch feed: %w", err)
	}

	slog.Info("Task completed",
		"type", string(t.Type),
		"feed", t.FeedName,
		"duration", t.Duration(),
		"items", len(content.Items))

	return nil
}

// PrefetchProducer returns a Producer that prefetches every catalog feed.
func PrefetchProducer(catalog *feed.Catalog, refresher Refresher) Producer {
	return func() []TaskInterface {
		feeds := catalog.Feeds()
		tasks := make([]TaskInterface, 0, len(feeds))
		for _, f := range feeds {
			tasks = append(tasks, NewPrefetchFeedTask(f, refresher))
		}
		return tasks
	}
}
