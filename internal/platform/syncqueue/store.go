package syncqueue

import "context"

// Store persists queued items. List returns them oldest-first; the manager
// relies on that for FIFO replay.
type Store interface {
	Enqueue(ctx context.Context, item *Item) error
	List(ctx context.Context) ([]*Item, error)
	Remove(ctx context.Context, id int64) error
	RecordFailure(ctx context.Context, id int64, cause string) error
	Len(ctx context.Context) (int, error)
}
