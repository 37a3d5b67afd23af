package feed

import (
	"testing"
	"time"
)

func TestCacheGetFresh(t *testing.T) {
	cache := NewCache(time.Minute)

	cache.Set(&Content{URL: "https://example.com/feed", FetchedAt: time.Now()})

	content, ok := cache.Get("https://example.com/feed")
	if !ok {
		t.Fatal("Expected fresh cache entry")
	}
	if content.URL != "https://example.com/feed" {
		t.Errorf("Expected cached URL, got '%s'", content.URL)
	}
	if cache.Len() != 1 {
		t.Errorf("Expected 1 entry, got %d", cache.Len())
	}

	if _, ok := cache.Get("https://example.com/other"); ok {
		t.Error("Expected miss for unknown URL")
	}
}

func TestCacheGetExpired(t *testing.T) {
	cache := NewCache(50 * time.Millisecond)

	cache.Set(&Content{URL: "https://example.com/feed", FetchedAt: time.Now()})
	time.Sleep(150 * time.Millisecond)

	if _, ok := cache.Get("https://example.com/feed"); ok {
		t.Error("Expected expired entry to be ignored")
	}
}

func TestCacheSetReplaces(t *testing.T) {
	cache := NewCache(time.Minute)

	cache.Set(&Content{URL: "https://example.com/feed", Items: []Item{{Title: "old"}}})
	cache.Set(&Content{URL: "https://example.com/feed", Items: []Item{{Title: "new"}}})

	content, ok := cache.Get("https://example.com/feed")
	if !ok {
		t.Fatal("Expected cache entry")
	}
	if len(content.Items) != 1 || content.Items[0].Title != "new" {
		t.Errorf("Expected latest content, got %+v", content.Items)
	}
	if cache.Len() != 1 {
		t.Errorf("Expected 1 entry, got %d", cache.Len())
	}
}
