package syncqueue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Forwarder mirrors locally applied mutations to the central server. While
// the link is up it dispatches immediately; a failed dispatch parks the
// operation in the queue under the same idempotency key and flips the
// manager offline, so the next drain replays it in order. Forwarding is
// best-effort and never fails the local request.
type Forwarder struct {
	manager    *Manager
	dispatcher Dispatcher
	logger     zerolog.Logger
}

func NewForwarder(manager *Manager, dispatcher Dispatcher, logger zerolog.Logger) *Forwarder {
	return &Forwarder{manager: manager, dispatcher: dispatcher, logger: logger}
}

func (f *Forwarder) Mirror(ctx context.Context, op string, payload interface{}) {
	raw, err := json.Marshal(payload)
	if err != nil {
		f.logger.Error().Err(err).Str("type", op).Msg("cannot marshal operation for forwarding")
		return
	}
	item := &Item{
		Type:           op,
		Payload:        raw,
		IdempotencyKey: uuid.New(),
		EnqueuedAt:     time.Now(),
	}

	if !f.manager.Online() {
		// Queueing behind earlier items keeps the replay order intact.
		if err := f.manager.EnqueueItem(ctx, item); err != nil {
			f.logger.Error().Err(err).Str("type", op).Msg("cannot queue operation while offline")
		}
		return
	}

	if err := f.dispatcher.Dispatch(ctx, item); err != nil {
		f.logger.Warn().Err(err).Str("type", op).Msg("central dispatch failed, queueing for replay")
		if err := f.manager.SetOnline(ctx, false); err != nil {
			f.logger.Error().Err(err).Msg("cannot mark connectivity lost")
		}
		if err := f.manager.EnqueueItem(ctx, item); err != nil {
			f.logger.Error().Err(err).Str("type", op).Msg("cannot queue failed operation")
		}
	}
}
