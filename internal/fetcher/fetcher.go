// Package fetcher downloads media bytes from HTTP(S) URLs and Cloud Storage.
// Every fetcher is stateless and safe for concurrent use.
package fetcher

import (
	"context"
	"fmt"
	"strings"
)

// FetchError describes a failed download.
type FetchError struct {
	Ref        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.Ref, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.Ref, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Downloader is the contract shared by all fetchers.
type Downloader interface {
	Download(ctx context.Context, ref string) ([]byte, error)
}

// Router dispatches http(s) references to the HTTP fetcher and everything else
// to Cloud Storage.
type Router struct {
	HTTP Downloader
	GCS  Downloader
}

// Download implements services.ObjectFetcher.
func (r *Router) Download(ctx context.Context, ref string) ([]byte, error) {
	if isHTTP(ref) {
		if r.HTTP == nil {
			return nil, &FetchError{Ref: ref, Err: fmt.Errorf("no HTTP fetcher configured")}
		}
		return r.HTTP.Download(ctx, ref)
	}
	if r.GCS == nil {
		return nil, &FetchError{Ref: ref, Err: fmt.Errorf("unsupported storage reference")}
	}
	return r.GCS.Download(ctx, ref)
}

func isHTTP(ref string) bool {
	lower := strings.ToLower(ref)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
