package feed

import (
	"time"
)

// Catalog types
type Feed struct {
	Name    string   `yaml:"name"`
	URL     string   `yaml:"url"`
	Filters []Filter `yaml:"filters"`
}

type Filter struct {
	Field    string   `yaml:"field"`
	Includes []string `yaml:"includes"`
	Excludes []string `yaml:"excludes"`
}

// Feed content types
type Metadata struct {
	Title           string
	Link            string
	Description     string
	ImageURL        string
	Language        string
	FeedPublishedAt *time.Time
}

type Item struct {
	GUID        string
	Title       string
	Link        string
	Description string
	Content     string
	PublishedAt time.Time
	UpdatedAt   *time.Time
	Authors     []string // "email (name)", "name" or "email"
	Categories  []string

	ContentHash  string
	IsFiltered   bool
	FilterReason string
}

// Content is one fetched and parsed snapshot of a feed.
type Content struct {
	URL       string
	Metadata  Metadata
	Items     []Item
	FetchedAt time.Time
}
