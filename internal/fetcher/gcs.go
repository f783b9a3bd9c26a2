package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"cloud.google.com/go/storage"
)

// GCSFetcher reads objects from Cloud Storage. References are either
// gs://bucket/object or a bare object path in the default bucket.
type GCSFetcher struct {
	client        *storage.Client
	defaultBucket string
	maxBytes      int64
	timeout       time.Duration
}

// NewGCSFetcher creates a GCSFetcher. An empty defaultBucket only allows
// gs:// references. Each download is bounded by timeout.
func NewGCSFetcher(client *storage.Client, defaultBucket string, maxBytes int64, timeout time.Duration) *GCSFetcher {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &GCSFetcher{client: client, defaultBucket: defaultBucket, maxBytes: maxBytes, timeout: timeout}
}

// Download implements services.ObjectFetcher.
func (f *GCSFetcher) Download(ctx context.Context, ref string) ([]byte, error) {
	bucket, object, err := ParseObjectRef(ref, f.defaultBucket)
	if err != nil {
		return nil, &FetchError{Ref: ref, Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	reader, err := f.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, &FetchError{Ref: ref, Err: fmt.Errorf("object gs://%s/%s does not exist", bucket, object)}
		}
		return nil, &FetchError{Ref: ref, Err: fmt.Errorf("failed to get GCS object reader for gs://%s/%s: %w", bucket, object, err)}
	}
	defer reader.Close()

	data, err := io.ReadAll(io.LimitReader(reader, f.maxBytes+1))
	if err != nil {
		return nil, &FetchError{Ref: ref, Err: fmt.Errorf("failed to read GCS object: %w", err)}
	}
	if int64(len(data)) > f.maxBytes {
		return nil, &FetchError{Ref: ref, Err: fmt.Errorf("object exceeds %d bytes", f.maxBytes)}
	}
	return data, nil
}

// ParseObjectRef splits a storage reference into bucket and object name.
func ParseObjectRef(ref, defaultBucket string) (bucket, object string, err error) {
	if rest, ok := strings.CutPrefix(ref, "gs://"); ok {
		bucket, object, _ = strings.Cut(rest, "/")
		if bucket == "" || object == "" {
			return "", "", fmt.Errorf("malformed storage reference %q", ref)
		}
		return bucket, object, nil
	}
	if strings.Contains(ref, "://") {
		return "", "", fmt.Errorf("unsupported storage reference %q", ref)
	}
	if defaultBucket == "" {
		return "", "", fmt.Errorf("no default bucket configured for storage path %q", ref)
	}
	object = strings.TrimPrefix(ref, "/")
	if object == "" {
		return "", "", fmt.Errorf("empty storage path")
	}
	return defaultBucket, object, nil
}
