package api

import (
	"context"
	"time"

	"github.com/lysyi3m/feed-reader/app/database"
	"github.com/lysyi3m/feed-reader/app/feed"
	"github.com/lysyi3m/feed-reader/app/loader"
	"github.com/lysyi3m/feed-reader/app/view"
)

type LoaderInterface interface {
	Load(ctx context.Context, index int) *loader.Pending
}

type RendererInterface interface {
	Run(snapshot view.Snapshot, menuHidden bool, feeds []feed.Feed) string
}

var (
	_ LoaderInterface   = (*loader.Loader)(nil)
	_ RendererInterface = (*view.Renderer)(nil)
)

type Handler struct {
	catalog     *feed.Catalog
	state       *view.State
	loader      LoaderInterface
	journal     database.LoadJournal
	renderer    RendererInterface
	loadTimeout time.Duration
}

type feedInfo struct {
	Index   int           `json:"index"`
	Name    string        `json:"name"`
	URL     string        `json:"url"`
	Filters []feed.Filter `json:"filters,omitempty"`
}

type loadResponse struct {
	ID      string `json:"id"`
	Index   int    `json:"index"`
	Title   string `json:"title,omitempty"`
	Entries int    `json:"entries"`
	Version uint64 `json:"version,omitempty"`
}
