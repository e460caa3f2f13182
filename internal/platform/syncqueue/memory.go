package syncqueue

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps the queue in process memory. Used in tests and in
// deployments that accept losing the queue on restart.
type MemoryStore struct {
	mu     sync.Mutex
	nextID int64
	items  []*Item
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nextID: 1}
}

func (s *MemoryStore) Enqueue(_ context.Context, item *Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	item.ID = s.nextID
	s.nextID++
	if item.EnqueuedAt.IsZero() {
		item.EnqueuedAt = time.Now()
	}
	s.items = append(s.items, item)
	return nil
}

func (s *MemoryStore) List(_ context.Context) ([]*Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Item, len(s.items))
	copy(out, s.items)
	return out, nil
}

func (s *MemoryStore) Remove(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, item := range s.items {
		if item.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return nil
		}
	}
	return nil
}

func (s *MemoryStore) RecordFailure(_ context.Context, id int64, cause string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range s.items {
		if item.ID == id {
			item.Attempts++
			item.LastError = cause
			return nil
		}
	}
	return nil
}

func (s *MemoryStore) Len(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items), nil
}
