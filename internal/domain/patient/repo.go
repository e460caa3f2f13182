package patient

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetByDocument(ctx context.Context, document string) (*Patient, error)
	GetByHealthCard(ctx context.Context, healthCard string) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	// Delete removes the patient and, by cascade, every record referencing them.
	Delete(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, name, status string, limit, offset int) ([]*Patient, int, error)
}
