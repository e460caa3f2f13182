package budget

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, b *Budget) error
	GetByID(ctx context.Context, id uuid.UUID) (*Budget, error)
	// GetByMonth returns nil when no budget is configured for the month.
	GetByMonth(ctx context.Context, year, month int) (*Budget, error)
	Update(ctx context.Context, b *Budget) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, year int) ([]*Budget, error)
	// SpentForMonth sums the total value of non-cancelled records whose
	// reference date falls in the given month.
	SpentForMonth(ctx context.Context, year, month int) (float64, error)
}
