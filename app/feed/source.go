package feed

import (
	"context"
	"log/slog"
	"time"
)

// Source produces feed content, serving fresh cache entries before going
// to the network.
type Source struct {
	fetcher *Fetcher
	parser  *Parser
	cache   *Cache
}

// NewSource creates a source. cache may be nil to always fetch.
func NewSource(fetcher *Fetcher, parser *Parser, cache *Cache) *Source {
	return &Source{
		fetcher: fetcher,
		parser:  parser,
		cache:   cache,
	}
}

func (s *Source) Get(ctx context.Context, f Feed) (*Content, error) {
	if s.cache != nil {
		if content, ok := s.cache.Get(f.URL); ok {
			slog.Debug("Feed served from cache", "feed", f.Name, "fetched_at", content.FetchedAt)
			return content, nil
		}
	}
	return s.Refresh(ctx, f)
}

// Refresh fetches and parses the feed regardless of the cache, then stores
// the result.
func (s *Source) Refresh(ctx context.Context, f Feed) (*Content, error) {
	data, err := s.fetcher.Fetch(ctx, f.URL)
	if err != nil {
		return nil, err
	}

	metadata, items, err := s.parser.Run(data)
	if err != nil {
		return nil, &ParseError{URL: f.URL, Err: err}
	}

	content := &Content{
		URL:       f.URL,
		Metadata:  *metadata,
		Items:     items,
		FetchedAt: time.Now().UTC(),
	}

	if s.cache != nil {
		s.cache.Set(content)
	}

	slog.Debug("Feed fetched", "feed", f.Name, "title", metadata.Title, "items", len(items))

	return content, nil
}
