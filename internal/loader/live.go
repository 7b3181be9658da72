package loader

import "context"

// Snapshot is one delivery from a live source. Err is set when the
// subscription itself failed.
type Snapshot[T any] struct {
	Items []T
	Err   error
}

// LiveSource is a subscription-based list producer that keeps delivering
// snapshots until the context is torn down.
type LiveSource[T any] interface {
	// Subscribe starts the live query. The returned channel is closed when
	// ctx is cancelled; implementations must not deliver after that.
	Subscribe(ctx context.Context) (<-chan Snapshot[T], error)
}

// FirstSnapshot adapts a live source into a one-shot Source: it takes the
// subscription's first delivery and cancels the subscription, so a loader can
// race a live query against its timer like any other primary.
func FirstSnapshot[T any](live LiveSource[T]) Source[T] {
	return SourceFunc[T](func(ctx context.Context) ([]T, error) {
		subCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		deliveries, err := live.Subscribe(subCtx)
		if err != nil {
			return nil, err
		}
		select {
		case snap, ok := <-deliveries:
			if !ok {
				return nil, subCtx.Err()
			}
			if snap.Err != nil {
				return nil, snap.Err
			}
			return snap.Items, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	})
}
