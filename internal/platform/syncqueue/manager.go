package syncqueue

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrDrainInProgress is returned when Drain is called while another drain
// is running. The queue is left untouched.
var ErrDrainInProgress = errors.New("syncqueue: drain already in progress")

// Dispatcher replays one queued item against the upstream.
type Dispatcher interface {
	Dispatch(ctx context.Context, item *Item) error
}

type DrainResult struct {
	Attempted int `json:"attempted"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// Manager owns the queue lifecycle: enqueue while offline, drain on the
// offline-to-online transition or on demand. Drains are single-flight and
// replay strictly oldest-first so dependent writes (create before attend)
// land in order.
type Manager struct {
	store      Store
	dispatcher Dispatcher
	logger     zerolog.Logger

	online   atomic.Bool
	draining atomic.Bool
	mu       sync.Mutex
}

func NewManager(store Store, dispatcher Dispatcher, logger zerolog.Logger) *Manager {
	m := &Manager{store: store, dispatcher: dispatcher, logger: logger}
	m.online.Store(true)
	return m
}

func (m *Manager) Online() bool { return m.online.Load() }

// SetOnline records the connectivity signal. Coming back online triggers a
// drain; going offline is just noted.
func (m *Manager) SetOnline(ctx context.Context, online bool) error {
	was := m.online.Swap(online)
	if !was && online {
		m.logger.Info().Msg("connectivity restored, draining sync queue")
		if _, err := m.Drain(ctx); err != nil && !errors.Is(err, ErrDrainInProgress) {
			return err
		}
	}
	return nil
}

// Enqueue stores an operation for later replay, minting its idempotency key.
func (m *Manager) Enqueue(ctx context.Context, itemType string, payload interface{}) (*Item, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	item := &Item{
		Type:           itemType,
		Payload:        raw,
		IdempotencyKey: uuid.New(),
		EnqueuedAt:     time.Now(),
	}
	if err := m.EnqueueItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// EnqueueItem stores a pre-built item, keeping the idempotency key it
// already carries. Used when a direct dispatch failed and the exact same
// operation must be replayed later.
func (m *Manager) EnqueueItem(ctx context.Context, item *Item) error {
	if item.EnqueuedAt.IsZero() {
		item.EnqueuedAt = time.Now()
	}
	if err := m.store.Enqueue(ctx, item); err != nil {
		return err
	}
	m.logger.Debug().Str("type", item.Type).Int64("item_id", item.ID).Msg("operation queued")
	return nil
}

// Drain replays every queued item in FIFO order. A failing item stays in
// the queue with its failure recorded; the drain moves on to the next one.
func (m *Manager) Drain(ctx context.Context) (*DrainResult, error) {
	if !m.draining.CompareAndSwap(false, true) {
		return nil, ErrDrainInProgress
	}
	defer m.draining.Store(false)

	m.mu.Lock()
	defer m.mu.Unlock()

	items, err := m.store.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return &DrainResult{}, nil
	}

	result := &DrainResult{}
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.Attempted++
		if err := m.dispatcher.Dispatch(ctx, item); err != nil {
			result.Failed++
			m.logger.Warn().Err(err).Int64("item_id", item.ID).Str("type", item.Type).
				Msg("sync item failed, keeping in queue")
			if serr := m.store.RecordFailure(ctx, item.ID, err.Error()); serr != nil {
				return result, serr
			}
			continue
		}
		result.Succeeded++
		if err := m.store.Remove(ctx, item.ID); err != nil {
			return result, err
		}
	}

	m.logger.Info().
		Int("attempted", result.Attempted).
		Int("succeeded", result.Succeeded).
		Int("failed", result.Failed).
		Msg("sync queue drained")
	return result, nil
}

// Pending returns the queued items, oldest first.
func (m *Manager) Pending(ctx context.Context) ([]*Item, error) {
	return m.store.List(ctx)
}
