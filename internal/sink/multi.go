package sink

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Saver is implemented by every sink.
type Saver interface {
	Save(ctx context.Context, key, name string, data []byte) (string, error)
}

// Multi writes to every sink concurrently. It fails if any sink fails, and
// reports the locations that succeeded.
type Multi []Saver

// Save implements services.Sink.
func (m Multi) Save(ctx context.Context, key, name string, data []byte) (string, error) {
	locations := make([]string, len(m))
	errs := make([]error, len(m))

	var g errgroup.Group
	for i, s := range m {
		g.Go(func() error {
			locations[i], errs[i] = s.Save(ctx, key, name, data)
			return nil
		})
	}
	_ = g.Wait()

	var saved []string
	for _, loc := range locations {
		if loc != "" {
			saved = append(saved, loc)
		}
	}
	return strings.Join(saved, ","), errors.Join(errs...)
}
