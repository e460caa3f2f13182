// Package syncqueue holds writes made while the upstream API is unreachable
// and replays them in order once connectivity returns.
package syncqueue

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Item types understood by the HTTP dispatcher.
const (
	TypeRecordCreate = "record.create"
	TypeRecordUpdate = "record.update"
	TypeRecordDelete = "record.delete"
	TypeRecordAttend = "record.attend"
	TypeRecordCancel = "record.cancel"
)

// Item is one queued operation. The idempotency key is minted at enqueue
// time so a replay that races a crash cannot double-apply on the server.
type Item struct {
	ID             int64           `db:"id" json:"id"`
	Type           string          `db:"type" json:"type"`
	Payload        json.RawMessage `db:"payload" json:"payload"`
	IdempotencyKey uuid.UUID       `db:"idempotency_key" json:"idempotency_key"`
	Attempts       int             `db:"attempts" json:"attempts"`
	LastError      string          `db:"last_error" json:"last_error,omitempty"`
	EnqueuedAt     time.Time       `db:"enqueued_at" json:"enqueued_at"`
}
