package patient

import (
	"time"

	"github.com/google/uuid"
)

// Patient maps to the patient table. A patient is identified by a national
// document, a health card number, or both; at least one must be present.
type Patient struct {
	ID         uuid.UUID `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	Document   *string   `db:"document" json:"document,omitempty"`
	HealthCard *string   `db:"health_card" json:"health_card,omitempty"`
	Notes      *string   `db:"notes" json:"notes,omitempty"`
	Status     string    `db:"status" json:"status"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}
