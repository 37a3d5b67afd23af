package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// LoadRepository persists the load journal. Feed content itself is never stored.
type LoadRepository struct {
	db *DB
}

func NewLoadRepository(db *DB) *LoadRepository {
	return &LoadRepository{db: db}
}

func (r *LoadRepository) RecordLoad(ctx context.Context, record LoadRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO feed_loads (
			id, feed_index, feed_name, feed_url, status,
			entry_count, duration_ms, error, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			status = excluded.status,
			entry_count = excluded.entry_count,
			duration_ms = excluded.duration_ms,
			error = excluded.error
	`, record.ID, record.FeedIndex, record.FeedName, record.FeedURL, string(record.Status),
		record.EntryCount, record.Duration.Milliseconds(), record.Error, record.CreatedAt.UnixMilli())

	if err != nil {
		return fmt.Errorf("failed to record load: %w", err)
	}

	return nil
}

// GetRecentLoads returns the newest journal entries first
func (r *LoadRepository) GetRecentLoads(ctx context.Context, limit int) ([]LoadRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, feed_index, feed_name, feed_url, status,
		       entry_count, duration_ms, error, created_at
		FROM feed_loads
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query loads: %w", err)
	}
	defer rows.Close()

	records := []LoadRecord{}
	for rows.Next() {
		var record LoadRecord
		var status string
		var durationMs, createdAt int64

		err := rows.Scan(&record.ID, &record.FeedIndex, &record.FeedName, &record.FeedURL, &status,
			&record.EntryCount, &durationMs, &record.Error, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan load: %w", err)
		}

		record.Status = LoadStatus(status)
		record.Duration = time.Duration(durationMs) * time.Millisecond
		record.CreatedAt = time.UnixMilli(createdAt)
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate loads: %w", err)
	}

	return records, nil
}

// GetLoadStats aggregates the journal per feed index
func (r *LoadRepository) GetLoadStats(ctx context.Context) ([]FeedLoadStats, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT feed_index,
		       MAX(feed_name),
		       COUNT(*),
		       SUM(CASE WHEN status = ? THEN 1 ELSE 0 END),
		       SUM(CASE WHEN status = ? THEN 1 ELSE 0 END),
		       COALESCE(MAX(CASE WHEN status = ? THEN created_at END), 0)
		FROM feed_loads
		WHERE feed_index >= 0
		GROUP BY feed_index
		ORDER BY feed_index
	`, string(LoadStatusSuccess), string(LoadStatusFailed), string(LoadStatusSuccess))
	if err != nil {
		return nil, fmt.Errorf("failed to query load stats: %w", err)
	}
	defer rows.Close()

	stats := []FeedLoadStats{}
	for rows.Next() {
		var s FeedLoadStats
		var lastLoaded int64

		if err := rows.Scan(&s.FeedIndex, &s.FeedName, &s.Total, &s.Succeeded, &s.Failed, &lastLoaded); err != nil {
			return nil, fmt.Errorf("failed to scan load stats: %w", err)
		}
		if lastLoaded > 0 {
			s.LastLoadedAt = time.UnixMilli(lastLoaded)
		}
		stats = append(stats, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate load stats: %w", err)
	}

	return stats, nil
}

func (r *LoadRepository) GetLoadCount(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM feed_loads`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get load count: %w", err)
	}
	return count, nil
}
