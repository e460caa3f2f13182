package record

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SearchParams narrows a record listing. Zero values mean "no filter".
type SearchParams struct {
	PatientID   uuid.UUID
	PatientName string
	Status      string
	From        time.Time
	To          time.Time
}

type Repository interface {
	Create(ctx context.Context, r *Record) error
	GetByID(ctx context.Context, id uuid.UUID) (*Record, error)
	GetByIdempotencyKey(ctx context.Context, key uuid.UUID) (*Record, error)
	Update(ctx context.Context, r *Record) error
	Delete(ctx context.Context, id uuid.UUID) error
	// LatestNonCancelled returns the patient's most recent record whose
	// status is not cancelled, or nil when they have none.
	LatestNonCancelled(ctx context.Context, patientID uuid.UUID) (*Record, error)
	Search(ctx context.Context, params SearchParams, limit, offset int) ([]*Record, int, error)
}
