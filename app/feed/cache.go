package feed

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const maxCachedFeeds = 1024

// Cache keeps the latest content per feed URL for a fixed lifetime.
type Cache struct {
	lru *expirable.LRU[string, *Content]
}

func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		lru: expirable.NewLRU[string, *Content](maxCachedFeeds, nil, ttl),
	}
}

// Get returns the cached content if it was stored less than the cache
// lifetime ago.
func (c *Cache) Get(feedURL string) (*Content, bool) {
	return c.lru.Get(feedURL)
}

func (c *Cache) Set(content *Content) {
	c.lru.Add(content.URL, content)
}

func (c *Cache) Len() int {
	return c.lru.Len()
}
