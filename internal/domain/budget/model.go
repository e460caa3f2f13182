package budget

import (
	"time"

	"github.com/google/uuid"
)

// Budget is the monthly spending allowance for dispensations. One row per
// calendar month.
type Budget struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Year      int       `db:"year" json:"year"`
	Month     int       `db:"month" json:"month"`
	Amount    float64   `db:"amount" json:"amount"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Summary compares the configured allowance against what was actually spent
// in the month. Spent counts non-cancelled records by their reference date.
type Summary struct {
	Year      int     `json:"year"`
	Month     int     `json:"month"`
	Budget    float64 `json:"budget"`
	Spent     float64 `json:"spent"`
	Remaining float64 `json:"remaining"`
	Exceeded  bool    `json:"exceeded"`
}
