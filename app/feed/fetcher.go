package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const maxFeedSize = 10 << 20

// Fetcher downloads feed documents. Failed requests are retried with
// exponential backoff unless the failure is permanent (4xx, bad URL).
type Fetcher struct {
	client    *http.Client
	userAgent string
	timeout   time.Duration
	retries   int

	// RetryInterval is the first backoff delay.
	RetryInterval time.Duration
}

func NewFetcher(client *http.Client, userAgent string, timeout time.Duration, retries int) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &Fetcher{
		client:        client,
		userAgent:     userAgent,
		timeout:       timeout,
		retries:       retries,
		RetryInterval: 500 * time.Millisecond,
	}
}

func (f *Fetcher) Fetch(ctx context.Context, feedURL string) ([]byte, error) {
	u, err := url.Parse(feedURL)
	if err != nil {
		return nil, &FetchError{URL: feedURL, Err: err}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, &FetchError{URL: feedURL, Err: fmt.Errorf("unsupported scheme %q", u.Scheme)}
	}

	var data []byte
	operation := func() error {
		body, err := f.fetchOnce(ctx, feedURL)
		if err != nil {
			var fetchErr *FetchError
			if ctx.Err() != nil || (errors.As(err, &fetchErr) && fetchErr.Permanent()) {
				return backoff.Permanent(err)
			}
			return err
		}
		data = body
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = f.RetryInterval
	policy.MaxInterval = 10 * time.Second

	notify := func(err error, delay time.Duration) {
		slog.Warn("Feed fetch failed, retrying", "url", feedURL, "delay", delay.String(), "error", err)
	}

	err = backoff.RetryNotify(operation, backoff.WithContext(backoff.WithMaxRetries(policy, uint64(f.retries)), ctx), notify)
	if err != nil {
		var fetchErr *FetchError
		if errors.As(err, &fetchErr) {
			return nil, fetchErr
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &FetchError{URL: feedURL, Err: err}
	}

	return data, nil
}

func (f *Fetcher) fetchOnce(ctx context.Context, feedURL string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, &FetchError{URL: feedURL, Err: fmt.Errorf("failed to create request: %w", err)}
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/feed+json, application/xml;q=0.9, */*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: feedURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{URL: feedURL, StatusCode: resp.StatusCode, Err: errors.New(resp.Status)}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedSize))
	if err != nil {
		return nil, &FetchError{URL: feedURL, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	return data, nil
}
