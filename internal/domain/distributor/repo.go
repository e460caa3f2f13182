package distributor

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, d *Distributor) error
	GetByID(ctx context.Context, id uuid.UUID) (*Distributor, error)
	GetByName(ctx context.Context, name string) (*Distributor, error)
	Update(ctx context.Context, d *Distributor) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, activeOnly bool, limit, offset int) ([]*Distributor, int, error)
}
