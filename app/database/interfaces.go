package database

import (
	"context"
)

type LoadJournal interface {
	RecordLoad(ctx context.Context, record LoadRecord) error
	GetRecentLoads(ctx context.Context, limit int) ([]LoadRecord, error)
	GetLoadStats(ctx context.Context) ([]FeedLoadStats, error)
	GetLoadCount(ctx context.Context) (int, error)
}

var _ LoadJournal = (*LoadRepository)(nil)
