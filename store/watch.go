package store

import (
	"context"

	"github.com/yeremiapane/siparist/utils"
)

// Watch emits the full set of documents of coll matching f, ordered by order,
// once on start and again after every committed change to coll. The channel
// is closed when ctx is done.
func Watch[T any](ctx context.Context, s *Store, coll string, f Filter, order string) <-chan []T {
	changes := s.Subscribe(ctx, coll)
	out := make(chan []T, 1)

	go func() {
		defer close(out)

		emit := func() bool {
			docs := make([]T, 0)
			if err := s.QueryOrdered(ctx, coll, f, order, &docs); err != nil {
				if ctx.Err() != nil {
					return false
				}
				utils.ErrorLogger.Printf("watch %s: query failed: %v", coll, err)
				return true
			}
			select {
			case out <- docs:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if !emit() {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-changes:
				if !ok || !emit() {
					return
				}
			}
		}
	}()

	return out
}
