package record

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/medlogs/medlogs/pkg/dates"
)

// repeatWindowDays is how far back the repeat-last-prescription query looks.
const repeatWindowDays = 20

type Service struct {
	records Repository
}

func NewService(records Repository) *Service {
	return &Service{records: records}
}

func validateDraft(r *Record) error {
	if r.PatientID == uuid.Nil {
		return fmt.Errorf("patient is required")
	}
	if r.ProfessionalID == uuid.Nil {
		return fmt.Errorf("professional is required")
	}
	r.Pharmacy = strings.TrimSpace(r.Pharmacy)
	if r.Pharmacy == "" {
		return fmt.Errorf("pharmacy is required")
	}
	r.Lines = pruneBlankLines(r.Lines)
	if len(r.Lines) == 0 {
		return fmt.Errorf("at least one medication line is required")
	}
	for i, l := range r.Lines {
		if l.MedicationID == uuid.Nil {
			return fmt.Errorf("line %d is missing a medication", i+1)
		}
	}
	return nil
}

// Create stores a new dispensation record in the pending state. The total is
// recomputed from the lines regardless of what the caller sent, reference
// dates are normalized to UTC noon, and an optional idempotency key
// deduplicates replayed offline submissions: a key already seen returns the
// previously-created record untouched.
func (s *Service) Create(ctx context.Context, r *Record) (*Record, error) {
	if r.IdempotencyKey != nil {
		existing, err := s.records.GetByIdempotencyKey(ctx, *r.IdempotencyKey)
		if err != nil {
			return nil, fmt.Errorf("idempotency lookup: %w", err)
		}
		if existing != nil {
			return existing, nil
		}
	}

	if err := validateDraft(r); err != nil {
		return nil, err
	}

	now := time.Now()
	r.Status = StatusPending
	r.EntryDate = now
	r.DeliveryDate = nil
	r.CancelReason = nil
	if r.ReferenceDate.IsZero() {
		r.ReferenceDate = dates.NormalizeToUTCNoon(now)
	} else {
		r.ReferenceDate = dates.NormalizeToUTCNoon(r.ReferenceDate)
	}
	r.TotalValue = r.ComputeTotal()

	if err := s.records.Create(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Record, error) {
	return s.records.GetByID(ctx, id)
}

// Update edits lines, dates, pharmacy and observation in any state. It never
// touches status, entry date or delivery date: the state machine moves only
// through Attend and Cancel.
func (s *Service) Update(ctx context.Context, r *Record) (*Record, error) {
	existing, err := s.records.GetByID(ctx, r.ID)
	if err != nil {
		return nil, err
	}

	if err := validateDraft(r); err != nil {
		return nil, err
	}

	existing.Pharmacy = r.Pharmacy
	existing.Lines = r.Lines
	existing.Observation = r.Observation
	if !r.ReferenceDate.IsZero() {
		existing.ReferenceDate = dates.NormalizeToUTCNoon(r.ReferenceDate)
	}
	existing.TotalValue = existing.ComputeTotal()

	if err := s.records.Update(ctx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

// Attend marks a pending record as fulfilled. The delivery date may not lie
// in the future; it is pinned to UTC noon before being stored.
func (s *Service) Attend(ctx context.Context, id uuid.UUID, deliveryDate time.Time) (*Record, error) {
	r, err := s.records.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.Status != StatusPending {
		return nil, ErrNotPending
	}
	if deliveryDate.IsZero() {
		return nil, fmt.Errorf("delivery date is required")
	}
	if !dates.SameOrBeforeToday(deliveryDate, time.Now()) {
		return nil, fmt.Errorf("delivery date cannot be in the future")
	}

	d := dates.NormalizeToUTCNoon(deliveryDate)
	r.Status = StatusAttended
	r.DeliveryDate = &d

	if err := s.records.Update(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// Cancel moves a pending record to cancelled. The reason is mandatory and is
// kept for audit display; the delivery date is cleared.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, reason string) (*Record, error) {
	r, err := s.records.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.Status != StatusPending {
		return nil, ErrNotPending
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, fmt.Errorf("cancellation reason is required")
	}

	r.Status = StatusCancelled
	r.DeliveryDate = nil
	r.CancelReason = &reason

	if err := s.records.Update(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.records.Delete(ctx, id)
}

func (s *Service) Search(ctx context.Context, params SearchParams, limit, offset int) ([]*Record, int, error) {
	return s.records.Search(ctx, params, limit, offset)
}

// RepeatTemplate finds the patient's most recent non-cancelled record and,
// when it was entered within the last 20 days, offers its medication lines
// as a copyable template. Outside the window (or with no history) it returns
// nil without error.
func (s *Service) RepeatTemplate(ctx context.Context, patientID uuid.UUID) (*Template, error) {
	last, err := s.records.LatestNonCancelled(ctx, patientID)
	if err != nil || last == nil {
		return nil, err
	}
	if !dates.WithinLastDays(last.EntryDate, time.Now(), repeatWindowDays) {
		return nil, nil
	}

	lines := make([]Line, len(last.Lines))
	copy(lines, last.Lines)
	return &Template{
		SourceRecordID: last.ID,
		Pharmacy:       last.Pharmacy,
		Lines:          lines,
	}, nil
}
