package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newTestFetcher(retries int) *Fetcher {
	fetcher := NewFetcher(&http.Client{}, "Test Agent/1.0", 2*time.Second, retries)
	fetcher.RetryInterval = time.Millisecond
	return fetcher
}

func TestFetcherFetch(t *testing.T) {
	var userAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent = r.Header.Get("User-Agent")
		w.Write([]byte("<rss/>"))
	}))
	defer server.Close()

	data, err := newTestFetcher(0).Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if string(data) != "<rss/>" {
		t.Errorf("Expected body '<rss/>', got '%s'", data)
	}
	if userAgent != "Test Agent/1.0" {
		t.Errorf("Expected user agent 'Test Agent/1.0', got '%s'", userAgent)
	}
}

func TestFetcherRetriesServerErrors(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("<rss/>"))
	}))
	defer server.Close()

	if _, err := newTestFetcher(3).Fetch(context.Background(), server.URL); err != nil {
		t.Fatalf("Expected success after retries, got: %v", err)
	}

	if attempts.Load() != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts.Load())
	}
}

func TestFetcherGivesUpAfterRetries(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := newTestFetcher(2).Fetch(context.Background(), server.URL)

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("Expected FetchError, got: %v", err)
	}
	if fetchErr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", fetchErr.StatusCode)
	}
	if attempts.Load() != 3 {
		t.Errorf("Expected 1 attempt plus 2 retries, got %d", attempts.Load())
	}
}

func TestFetcherDoesNotRetryClientErrors(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		http.NotFound(w, r)
	}))
	defer server.Close()

	_, err := newTestFetcher(5).Fetch(context.Background(), server.URL)

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) || fetchErr.StatusCode != http.StatusNotFound {
		t.Fatalf("Expected 404 FetchError, got: %v", err)
	}
	if attempts.Load() != 1 {
		t.Errorf("Expected a single attempt, got %d", attempts.Load())
	}
}

func TestFetcherUnsupportedScheme(t *testing.T) {
	_, err := newTestFetcher(3).Fetch(context.Background(), "ftp://mirror.example.com/feed.xml")

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("Expected FetchError, got: %v", err)
	}
}

func TestFetcherCanceledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<rss/>"))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestFetcher(3).Fetch(ctx, server.URL)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got: %v", err)
	}
}
