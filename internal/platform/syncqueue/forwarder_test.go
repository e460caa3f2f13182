package syncqueue

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// captureDispatcher records every dispatched item and fails while err is set.
type captureDispatcher struct {
	mu    sync.Mutex
	err   error
	types []string
	keys  []uuid.UUID
}

func (d *captureDispatcher) Dispatch(_ context.Context, item *Item) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.types = append(d.types, item.Type)
	d.keys = append(d.keys, item.IdempotencyKey)
	return nil
}

func (d *captureDispatcher) setErr(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.err = err
}

func newForwarder(d Dispatcher) (*Forwarder, *Manager, *MemoryStore) {
	store := NewMemoryStore()
	m := NewManager(store, d, zerolog.Nop())
	return NewForwarder(m, d, zerolog.Nop()), m, store
}

func TestForwarder_DispatchesDirectlyWhileOnline(t *testing.T) {
	d := &captureDispatcher{}
	f, m, store := newForwarder(d)

	f.Mirror(context.Background(), TypeRecordCreate, map[string]string{"pharmacy": "Central"})

	if len(d.types) != 1 || d.types[0] != TypeRecordCreate {
		t.Fatalf("expected one direct dispatch, got %v", d.types)
	}
	if n, _ := store.Len(context.Background()); n != 0 {
		t.Errorf("a dispatched operation must not be queued, queue has %d", n)
	}
	if !m.Online() {
		t.Error("a successful dispatch must not flip the manager offline")
	}
}

func TestForwarder_QueuesOnDispatchFailure(t *testing.T) {
	d := &captureDispatcher{err: fmt.Errorf("upstream unavailable")}
	f, m, store := newForwarder(d)

	f.Mirror(context.Background(), TypeRecordCreate, map[string]string{"pharmacy": "Central"})

	if m.Online() {
		t.Error("a failed dispatch must mark connectivity lost")
	}
	items, _ := store.List(context.Background())
	if len(items) != 1 {
		t.Fatalf("expected the failed operation queued, got %d items", len(items))
	}
	if items[0].Type != TypeRecordCreate {
		t.Errorf("unexpected queued type %q", items[0].Type)
	}
	if items[0].IdempotencyKey == uuid.Nil {
		t.Error("queued item must keep its idempotency key")
	}
}

func TestForwarder_QueuesWithoutDispatchWhileOffline(t *testing.T) {
	d := &captureDispatcher{err: fmt.Errorf("upstream unavailable")}
	f, _, store := newForwarder(d)

	f.Mirror(context.Background(), TypeRecordCreate, map[string]string{"pharmacy": "Central"})
	d.setErr(nil)

	// Still marked offline: later operations go behind the queued one so
	// the replay order is preserved, not dispatched out of band.
	f.Mirror(context.Background(), TypeRecordAttend, map[string]string{"id": uuid.NewString()})

	if len(d.types) != 0 {
		t.Errorf("offline operations must not be dispatched directly, got %v", d.types)
	}
	items, _ := store.List(context.Background())
	if len(items) != 2 {
		t.Fatalf("expected both operations queued, got %d", len(items))
	}
	if items[0].Type != TypeRecordCreate || items[1].Type != TypeRecordAttend {
		t.Errorf("queue must preserve operation order, got %q then %q", items[0].Type, items[1].Type)
	}
}

func TestForwarder_QueueDrainsOnReconnect(t *testing.T) {
	d := &captureDispatcher{err: fmt.Errorf("upstream unavailable")}
	f, m, store := newForwarder(d)

	f.Mirror(context.Background(), TypeRecordCreate, map[string]string{"pharmacy": "Central"})
	f.Mirror(context.Background(), TypeRecordCancel, map[string]string{"id": uuid.NewString()})

	d.setErr(nil)
	if err := m.SetOnline(context.Background(), true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if n, _ := store.Len(context.Background()); n != 0 {
		t.Errorf("reconnect should drain the queue, %d items left", n)
	}
	if len(d.types) != 2 || d.types[0] != TypeRecordCreate || d.types[1] != TypeRecordCancel {
		t.Errorf("expected FIFO replay of both operations, got %v", d.types)
	}
}
