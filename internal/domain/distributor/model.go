package distributor

import (
	"time"

	"github.com/google/uuid"
)

// Distributor maps to the distributor table: the maintained list of
// pharmacy/distributor origins a record can be issued from.
type Distributor struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Kind      string    `db:"kind" json:"kind"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
