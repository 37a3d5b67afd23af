package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lysyi3m/feed-reader/app/database"
	"github.com/lysyi3m/feed-reader/app/feed"
	"github.com/lysyi3m/feed-reader/app/tasks"
	"github.com/lysyi3m/feed-reader/app/view"
)

// NewHandler creates the HTTP handlers. journal may be nil when no database
// is configured.
func NewHandler(catalog *feed.Catalog, state *view.State, loader LoaderInterface,
	journal database.LoadJournal, loadTimeout time.Duration) *Handler {
	if loadTimeout <= 0 {
		loadTimeout = time.Minute
	}
	return &Handler{
		catalog:     catalog,
		state:       state,
		loader:      loader,
		journal:     journal,
		renderer:    view.NewRenderer(),
		loadTimeout: loadTimeout,
	}
}

func (h *Handler) GetPage(c *gin.Context) {
	page := h.renderer.Run(h.state.Display.Snapshot(), h.state.Menu.Hidden(), h.catalog.Feeds())

	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(page))
}

func (h *Handler) ListFeeds(c *gin.Context) {
	feeds := h.catalog.Feeds()

	infos := make([]feedInfo, 0, len(feeds))
	for i, f := range feeds {
		infos = append(infos, feedInfo{Index: i, Name: f.Name, URL: f.URL, Filters: f.Filters})
	}

	c.JSON(http.StatusOK, gin.H{
		"feeds": infos,
		"total": len(infos),
	})
}

func (h *Handler) GetDisplay(c *gin.Context) {
	c.JSON(http.StatusOK, h.state.Display.Snapshot())
}

func (h *Handler) LoadFeed(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Feed index must be an integer"})
		return
	}

	if c.Query("async") == "1" {
		h.loadAsync(c, index)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.loadTimeout)
	defer cancel()

	pending := h.loader.Load(ctx, index)
	if err := pending.Wait(ctx); err != nil {
		h.respondError(c, "load_feed", index, err)
		return
	}

	if isFormPost(c) {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}

	snapshot := h.state.Display.Snapshot()
	c.JSON(http.StatusOK, loadResponse{
		ID:      pending.ID,
		Index:   index,
		Title:   snapshot.Title,
		Entries: len(snapshot.Entries),
		Version: snapshot.Version,
	})
}

func (h *Handler) loadAsync(c *gin.Context, index int) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), h.loadTimeout)

	pending := h.loader.Load(ctx, index)
	go func() {
		<-pending.Done()
		cancel()
	}()

	select {
	case <-pending.Done():
		if err := pending.Err(); err != nil {
			h.respondError(c, "load_feed", index, err)
			return
		}
	default:
	}

	c.JSON(http.StatusAccepted, loadResponse{ID: pending.ID, Index: index})
}

func (h *Handler) ToggleMenu(c *gin.Context) {
	hidden := h.state.Menu.Toggle()

	if isFormPost(c) {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}

	c.JSON(http.StatusOK, gin.H{"hidden": hidden})
}

func (h *Handler) GetMenu(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"hidden": h.state.Menu.Hidden()})
}

func (h *Handler) GetHealth(c *gin.Context) {
	snapshot := h.state.Display.Snapshot()

	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"feeds":     h.catalog.Len(),
		"phase":     snapshot.Phase,
	}

	if h.journal != nil {
		if loadCount, err := h.journal.GetLoadCount(c.Request.Context()); err == nil {
			health["loads"] = loadCount
		}
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetLoads(c *gin.Context) {
	if h.journal == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Load journal is disabled"})
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 || limit > 1000 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 1000"})
		return
	}

	loads, err := h.journal.GetRecentLoads(c.Request.Context(), limit)
	if err != nil {
		slog.Error("Database error", "operation", "get_recent_loads", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	stats, err := h.journal.GetLoadStats(c.Request.Context())
	if err != nil {
		slog.Error("Database error", "operation", "get_load_stats", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"loads": loads,
		"stats": stats,
	})
}

func (h *Handler) respondError(c *gin.Context, operation string, index int, err error) {
	status := errorStatus(err)
	if status >= http.StatusInternalServerError {
		slog.Error("Request failed", "operation", operation, "index", index, "status", status, "error", err)
	}

	c.JSON(status, gin.H{
		"error":   http.StatusText(status),
		"index":   index,
		"details": err.Error(),
	})
}

func errorStatus(err error) int {
	var fetchErr *feed.FetchError
	var parseErr *feed.ParseError

	switch {
	case errors.Is(err, feed.ErrInvalidIndex):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, tasks.ErrQueueFull), errors.Is(err, tasks.ErrStopped), errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	case errors.As(err, &fetchErr), errors.As(err, &parseErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func isFormPost(c *gin.Context) bool {
	switch c.ContentType() {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		return true
	default:
		return false
	}
}
