package medication

import (
	"time"

	"github.com/google/uuid"
)

// Medication maps to the medication table (drug catalog). Names are unique
// case-insensitively; records reference medications by id.
type Medication struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
