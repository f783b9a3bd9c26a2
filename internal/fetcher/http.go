package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	DefaultTimeout  = 30 * time.Second
	DefaultMaxBytes = 512 << 20
)

// HTTPFetcher downloads objects over HTTP(S) with a per-attempt timeout and
// exponential backoff on transient failures.
type HTTPFetcher struct {
	client      *http.Client
	timeout     time.Duration
	maxAttempts int
	maxBytes    int64
	backoff     time.Duration
}

// HTTPOption configures an HTTPFetcher.
type HTTPOption func(*HTTPFetcher)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(f *HTTPFetcher) { f.client = c }
}

// WithTimeout bounds each attempt.
func WithTimeout(d time.Duration) HTTPOption {
	return func(f *HTTPFetcher) { f.timeout = d }
}

// WithMaxAttempts sets the total number of attempts, including the first.
func WithMaxAttempts(n int) HTTPOption {
	return func(f *HTTPFetcher) { f.maxAttempts = max(n, 1) }
}

// WithMaxBytes caps the accepted body size.
func WithMaxBytes(n int64) HTTPOption {
	return func(f *HTTPFetcher) { f.maxBytes = n }
}

// WithBackoff sets the initial retry delay; it doubles after each attempt.
func WithBackoff(d time.Duration) HTTPOption {
	return func(f *HTTPFetcher) { f.backoff = d }
}

// NewHTTPFetcher creates an HTTPFetcher.
func NewHTTPFetcher(opts ...HTTPOption) *HTTPFetcher {
	f := &HTTPFetcher{
		client:      &http.Client{},
		timeout:     DefaultTimeout,
		maxAttempts: 1,
		maxBytes:    DefaultMaxBytes,
		backoff:     time.Second,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Download fetches url and returns the body.
func (f *HTTPFetcher) Download(ctx context.Context, url string) ([]byte, error) {
	backoff := f.backoff
	var lastErr error

	for attempt := 1; attempt <= f.maxAttempts; attempt++ {
		data, err := f.attempt(ctx, url)
		if err == nil {
			return data, nil
		}
		lastErr = err
		if !retryable(err) || attempt == f.maxAttempts {
			break
		}

		slog.Warn("Download failed, will retry.",
			"url", url,
			"attempt", attempt,
			"maxAttempts", f.maxAttempts,
			"backoff", backoff.String(),
			"error", err,
		)
		select {
		case <-time.After(backoff):
			backoff *= 2
		case <-ctx.Done():
			return nil, &FetchError{Ref: url, Err: ctx.Err()}
		}
	}
	return nil, lastErr
}

func (f *HTTPFetcher) attempt(ctx context.Context, url string) ([]byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{Ref: url, Err: err}
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{Ref: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &FetchError{Ref: url, StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, &FetchError{Ref: url, Err: fmt.Errorf("failed to read body: %w", err)}
	}
	if int64(len(data)) > f.maxBytes {
		return nil, &FetchError{Ref: url, Err: fmt.Errorf("object exceeds %d bytes", f.maxBytes)}
	}
	return data, nil
}

// retryable reports whether another attempt could succeed. Caller
// cancellation is final; per-attempt timeouts and 5xx/429 are not.
func retryable(err error) bool {
	var fe *FetchError
	if !errors.As(err, &fe) {
		return false
	}
	if fe.StatusCode != 0 {
		return fe.StatusCode == http.StatusTooManyRequests || fe.StatusCode >= 500
	}
	return !errors.Is(fe.Err, context.Canceled)
}
