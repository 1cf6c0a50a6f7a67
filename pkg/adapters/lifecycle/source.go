// Package lifecycle exposes checklist file changes as a lifecycle.Source.
package lifecycle

import (
	"context"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/tenken/pkg/adapters/fs"
)

type changeSource struct {
	changes <-chan fs.Change
	out     chan lifecycle.Event
}

// NewSource bridges a watch channel to the generic lifecycle Event stream.
// Events carry the fs.Change value.
func NewSource(changes <-chan fs.Change) lifecycle.Source {
	return &changeSource{
		changes: changes,
		out:     make(chan lifecycle.Event),
	}
}

func (s *changeSource) Events() <-chan lifecycle.Event {
	return s.out
}

// Start forwards changes until the watch channel closes or ctx ends.
func (s *changeSource) Start(ctx context.Context) error {
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(s.out)
		for {
			select {
			case <-ctx.Done():
				return nil
			case c, ok := <-s.changes:
				if !ok {
					return nil
				}
				select {
				case s.out <- c:
				case <-ctx.Done():
					return nil
				}
			}
		}
	})
	return nil
}
