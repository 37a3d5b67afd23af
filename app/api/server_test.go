package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lysyi3m/feed-reader/app/database"
	"github.com/lysyi3m/feed-reader/app/feed"
	"github.com/lysyi3m/feed-reader/app/loader"
	"github.com/lysyi3m/feed-reader/app/view"
)

func rss(title string, items ...string) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0"?><rss version="2.0"><channel><title>` + title + `</title>`)
	for i, item := range items {
		b.WriteString("<item><title>" + item + "</title>")
		b.WriteString("<link>https://example.com/" + title + "/" + string(rune('a'+i)) + "</link>")
		b.WriteString("<description>About " + item + "</description></item>")
	}
	b.WriteString("</channel></rss>")
	return b.String()
}

type testApp struct {
	router  http.Handler
	state   *view.State
	journal *database.LoadRepository
	loader  *loader.Loader
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	upstream := http.NewServeMux()
	upstream.HandleFunc("/first", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(rss("First", "Hello", "World")))
	})
	upstream.HandleFunc("/second", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(rss("Second", "Other")))
	})
	upstream.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	upstreamServer := httptest.NewServer(upstream)
	t.Cleanup(upstreamServer.Close)

	catalog, err := feed.NewCatalog([]feed.Feed{
		{Name: "First Feed", URL: upstreamServer.URL + "/first"},
		{Name: "Second Feed", URL: upstreamServer.URL + "/second"},
		{Name: "Missing Feed", URL: upstreamServer.URL + "/missing"},
	}, nil)
	require.NoError(t, err)

	db, err := database.NewConnection(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	_, _, err = database.RunMigrations(db)
	require.NoError(t, err)
	journal := database.NewLoadRepository(db)

	state := view.NewState()
	source := feed.NewSource(feed.NewFetcher(upstreamServer.Client(), "test", 5*time.Second, 0), feed.NewParser(), nil)
	l := loader.NewLoader(catalog, state, source, journal, loader.Options{Timeout: 10 * time.Second})
	l.Start()
	t.Cleanup(l.Stop)

	handler := NewHandler(catalog, state, l, journal, 10*time.Second)

	return &testApp{
		router:  NewServer(handler),
		state:   state,
		journal: journal,
		loader:  l,
	}
}

func (a *testApp) do(t *testing.T, method, target string, body url.Values) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(body.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func (a *testApp) page(t *testing.T) *goquery.Document {
	t.Helper()

	rec := a.do(t, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")

	doc, err := goquery.NewDocumentFromReader(rec.Body)
	require.NoError(t, err)
	return doc
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func TestPageBeforeInteraction(t *testing.T) {
	app := newTestApp(t)

	doc := app.page(t)
	assert.True(t, doc.Find("body").HasClass("menu-hidden"))
	assert.Equal(t, 3, doc.Find(".feed-list li button[data-id]").Length())
	assert.Equal(t, 0, doc.Find(".feed .entry").Length())
}

func TestMenuToggle(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodPost, "/menu/toggle", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var menu struct {
		Hidden bool `json:"hidden"`
	}
	decode(t, rec, &menu)
	assert.False(t, menu.Hidden)
	assert.False(t, app.page(t).Find("body").HasClass("menu-hidden"))

	rec = app.do(t, http.MethodPost, "/menu/toggle", url.Values{})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	assert.True(t, app.page(t).Find("body").HasClass("menu-hidden"))

	rec = app.do(t, http.MethodGet, "/menu", nil)
	decode(t, rec, &menu)
	assert.True(t, menu.Hidden)
}

func TestLoadFeedEndpoint(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodPost, "/feeds/0/load", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp loadResponse
	decode(t, rec, &resp)
	assert.Equal(t, "First Feed", resp.Title)
	assert.Equal(t, 2, resp.Entries)
	assert.NotEmpty(t, resp.ID)

	doc := app.page(t)
	assert.Equal(t, "First Feed", doc.Find(".header-title").Text())
	assert.Equal(t, 2, doc.Find(".feed .entry").Length())
	first := doc.Find(".feed .entry").First()
	assert.Equal(t, "Hello", first.Find("h2").Text())
	assert.Equal(t, "About Hello", first.Find("p").Text())

	rec = app.do(t, http.MethodPost, "/feeds/1/load", url.Values{})
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	rec = app.do(t, http.MethodGet, "/display", nil)
	var snapshot view.Snapshot
	decode(t, rec, &snapshot)
	assert.Equal(t, view.PhaseLoaded, snapshot.Phase)
	assert.Equal(t, "Second Feed", snapshot.Title)
	require.Len(t, snapshot.Entries, 1)
	assert.Equal(t, "Other", snapshot.Entries[0].Title)
}

func TestLoadFeedErrors(t *testing.T) {
	app := newTestApp(t)

	tests := []struct {
		target string
		status int
	}{
		{"/feeds/abc/load", http.StatusBadRequest},
		{"/feeds/7/load", http.StatusBadRequest},
		{"/feeds/-1/load", http.StatusBadRequest},
		{"/feeds/2/load", http.StatusBadGateway},
		{"/feeds/9/load?async=1", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := app.do(t, http.MethodPost, tt.target, nil)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}

	assert.Equal(t, view.PhaseEmpty, app.state.Display.Snapshot().Phase)
}

func TestLoadFeedAsync(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodPost, "/feeds/1/load?async=1", nil)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp loadResponse
	decode(t, rec, &resp)
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, 1, resp.Index)

	require.Eventually(t, func() bool {
		return app.state.Display.Snapshot().Title == "Second Feed"
	}, 5*time.Second, 10*time.Millisecond)
}

func TestListFeeds(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodGet, "/feeds", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Feeds []feedInfo `json:"feeds"`
		Total int        `json:"total"`
	}
	decode(t, rec, &body)
	assert.Equal(t, 3, body.Total)
	require.Len(t, body.Feeds, 3)
	for i, f := range body.Feeds {
		assert.Equal(t, i, f.Index)
		assert.NotEmpty(t, f.Name)
		assert.True(t, feed.ValidURL(f.URL, feed.DefaultSchemes))
	}
}

func TestLoadsAndHealth(t *testing.T) {
	app := newTestApp(t)

	app.do(t, http.MethodPost, "/feeds/0/load", nil)
	app.do(t, http.MethodPost, "/feeds/2/load", nil)

	rec := app.do(t, http.MethodGet, "/loads?limit=10", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Loads []database.LoadRecord    `json:"loads"`
		Stats []database.FeedLoadStats `json:"stats"`
	}
	decode(t, rec, &body)
	require.Len(t, body.Loads, 2)
	assert.Equal(t, database.LoadStatusFailed, body.Loads[0].Status)
	assert.Equal(t, database.LoadStatusSuccess, body.Loads[1].Status)
	assert.Len(t, body.Stats, 2)

	rec = app.do(t, http.MethodGet, "/loads?limit=0", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = app.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var health map[string]any
	decode(t, rec, &health)
	assert.EqualValues(t, 3, health["feeds"])
	assert.EqualValues(t, 2, health["loads"])
	assert.Equal(t, "loaded", health["phase"])
}

func TestErrorStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, errorStatus(feed.ErrInvalidIndex))
	assert.Equal(t, http.StatusGatewayTimeout, errorStatus(&feed.FetchError{URL: "u", Err: context.DeadlineExceeded}))
	assert.Equal(t, http.StatusBadGateway, errorStatus(&feed.FetchError{URL: "u", StatusCode: 500}))
	assert.Equal(t, http.StatusBadGateway, errorStatus(&feed.ParseError{URL: "u"}))
	assert.Equal(t, http.StatusServiceUnavailable, errorStatus(context.Canceled))
}

func TestCORSPreflight(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodOptions, "/feeds", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

type stalledSource struct{}

func (stalledSource) Get(ctx context.Context, f feed.Feed) (*feed.Content, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestLoadFeedTimeoutReturnsGatewayTimeout(t *testing.T) {
	catalog, err := feed.NewCatalog([]feed.Feed{{Name: "Stalled", URL: "https://stalled.example.com/rss"}}, nil)
	require.NoError(t, err)

	state := view.NewState()
	l := loader.NewLoader(catalog, state, stalledSource{}, nil, loader.Options{Timeout: 50 * time.Millisecond})
	l.Start()
	t.Cleanup(l.Stop)

	router := NewServer(NewHandler(catalog, state, l, nil, 10*time.Second))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/feeds/0/load", nil))

	assert.Equal(t, http.StatusGatewayTimeout, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "deadline exceeded")
	assert.Equal(t, view.PhaseEmpty, state.Display.Snapshot().Phase)
}
