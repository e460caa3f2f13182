package record

import (
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
)

// Record lifecycle statuses. A record starts pending and ends attended or
// cancelled; both terminal states are reached only through Attend/Cancel.
const (
	StatusPending   = "pending"
	StatusAttended  = "attended"
	StatusCancelled = "cancelled"
)

// ErrNotPending is returned when Attend or Cancel is called on a record that
// already left the pending state.
var ErrNotPending = errors.New("record is not pending")

// Line is one dispensed medication within a record. Quantity is a free-text
// unit descriptor ("2 caixas", "30 comprimidos"); Value is the line price.
type Line struct {
	ID           uuid.UUID `db:"id" json:"id"`
	RecordID     uuid.UUID `db:"record_id" json:"record_id"`
	MedicationID uuid.UUID `db:"medication_id" json:"medication_id"`
	Quantity     string    `db:"quantity" json:"quantity"`
	Value        float64   `db:"value" json:"value"`
}

// Record maps to the record table: one dispensation event linking a patient,
// the issuing professional and a list of medication lines.
type Record struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	PatientID      uuid.UUID  `db:"patient_id" json:"patient_id"`
	PatientName    string     `db:"patient_name" json:"patient_name,omitempty"`
	ProfessionalID uuid.UUID  `db:"professional_id" json:"professional_id"`
	Pharmacy       string     `db:"pharmacy" json:"pharmacy"`
	Lines          []Line     `json:"lines"`
	ReferenceDate  time.Time  `db:"reference_date" json:"reference_date"`
	EntryDate      time.Time  `db:"entry_date" json:"entry_date"`
	DeliveryDate   *time.Time `db:"delivery_date" json:"delivery_date,omitempty"`
	Observation    *string    `db:"observation" json:"observation,omitempty"`
	CancelReason   *string    `db:"cancel_reason" json:"cancel_reason,omitempty"`
	TotalValue     float64    `db:"total_value" json:"total_value"`
	Status         string     `db:"status" json:"status"`
	IdempotencyKey *uuid.UUID `db:"idempotency_key" json:"-"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// ComputeTotal sums the line values. Non-finite values count as zero; the
// stored total is always derived here, never taken from the client.
func (r *Record) ComputeTotal() float64 {
	var total float64
	for _, l := range r.Lines {
		v := l.Value
		if math.IsNaN(v) || math.IsInf(v, 0) {
			v = 0
		}
		total += v
	}
	return total
}

// pruneBlankLines drops fully-empty line rows (no medication, no quantity,
// no value) so a trailing blank form row does not fail validation.
func pruneBlankLines(lines []Line) []Line {
	kept := lines[:0:0]
	for _, l := range lines {
		if l.MedicationID == uuid.Nil && l.Quantity == "" && l.Value == 0 {
			continue
		}
		kept = append(kept, l)
	}
	return kept
}

// Template is the copyable part of a previous record offered by the
// repeat-last-prescription query: medication lines only, no dates or status.
type Template struct {
	SourceRecordID uuid.UUID `json:"source_record_id"`
	Pharmacy       string    `json:"pharmacy"`
	Lines          []Line    `json:"lines"`
}
