package database

import (
	"time"
)

type LoadStatus string

const (
	LoadStatusSuccess  LoadStatus = "success"
	LoadStatusFailed   LoadStatus = "failed"
	LoadStatusCanceled LoadStatus = "canceled"
	LoadStatusRejected LoadStatus = "rejected" // invalid index or full queue
)

// LoadRecord is one entry of the load journal.
type LoadRecord struct {
	ID         string        `json:"id"`
	FeedIndex  int           `json:"feed_index"`
	FeedName   string        `json:"feed_name"`
	FeedURL    string        `json:"feed_url"`
	Status     LoadStatus    `json:"status"`
	EntryCount int           `json:"entry_count"`
	Duration   time.Duration `json:"duration"`
	Error      string        `json:"error,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
}

type FeedLoadStats struct {
	FeedIndex    int       `json:"feed_index"`
	FeedName     string    `json:"feed_name"`
	Total        int       `json:"total"`
	Succeeded    int       `json:"succeeded"`
	Failed       int       `json:"failed"`
	LastLoadedAt time.Time `json:"last_loaded_at"`
}
