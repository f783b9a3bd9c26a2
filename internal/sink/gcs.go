package sink

import (
	"context"
	"fmt"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/Lllllllleong/mediabatchflow/internal/gcp"
)

// GCSSink mirrors media into a Cloud Storage bucket.
type GCSSink struct {
	bucket     *storage.BucketHandle
	bucketName string
	prefix     string
}

// NewGCSSink creates a GCSSink writing under prefix in bucketName.
func NewGCSSink(client *storage.Client, bucketName, prefix string) *GCSSink {
	return &GCSSink{
		bucket:     client.Bucket(bucketName),
		bucketName: bucketName,
		prefix:     strings.Trim(prefix, "/"),
	}
}

// Save writes the object unless it already exists and returns its gs:// URI.
func (s *GCSSink) Save(ctx context.Context, key, name string, data []byte) (string, error) {
	objectName := path.Join(s.prefix, key, name)
	if err := gcp.SaveToGCSAtomically(ctx, s.bucket, objectName, data); err != nil {
		return "", err
	}
	return fmt.Sprintf("gs://%s/%s", s.bucketName, objectName), nil
}
