// Package sink persists downloaded media, locally or to a Cloud Storage mirror.
package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalSink writes files under a root directory.
type LocalSink struct {
	root string
}

// NewLocalSink creates a LocalSink rooted at dir.
func NewLocalSink(dir string) *LocalSink {
	return &LocalSink{root: dir}
}

// Save writes data to <root>/<key>/<name> via a temp file and rename, so a
// reader never observes a partially written file.
func (s *LocalSink) Save(_ context.Context, key, name string, data []byte) (string, error) {
	dest, err := s.Path(key, name)
	if err != nil {
		return "", err
	}
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".partial-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("failed to write %s: %w", dest, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", dest, err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return "", fmt.Errorf("failed to move file into place at %s: %w", dest, err)
	}
	return dest, nil
}

// Read returns the bytes previously saved under key and name.
func (s *LocalSink) Read(key, name string) ([]byte, error) {
	p, err := s.Path(key, name)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(p)
}

// Path resolves key and name to a file path, rejecting anything that would
// escape the root.
func (s *LocalSink) Path(key, name string) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("invalid file name %q", name)
	}
	root := filepath.Clean(s.root)
	p := filepath.Join(root, filepath.FromSlash(key), name)
	rel, err := filepath.Rel(root, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes sink root", filepath.Join(key, name))
	}
	return p, nil
}
