package distributor

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var validKinds = map[string]bool{
	"pharmacy": true, "distributor": true,
}

type Service struct {
	distributors Repository
}

func NewService(distributors Repository) *Service {
	return &Service{distributors: distributors}
}

func (s *Service) Create(ctx context.Context, d *Distributor) error {
	d.Name = strings.TrimSpace(d.Name)
	if d.Name == "" {
		return fmt.Errorf("name is required")
	}
	if d.Kind == "" {
		d.Kind = "pharmacy"
	}
	if !validKinds[d.Kind] {
		return fmt.Errorf("invalid kind: %s", d.Kind)
	}
	if existing, err := s.distributors.GetByName(ctx, d.Name); err == nil && existing != nil {
		return fmt.Errorf("distributor %q already exists", existing.Name)
	}
	d.Active = true
	return s.distributors.Create(ctx, d)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Distributor, error) {
	return s.distributors.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, d *Distributor) error {
	d.Name = strings.TrimSpace(d.Name)
	if d.Name == "" {
		return fmt.Errorf("name is required")
	}
	if !validKinds[d.Kind] {
		return fmt.Errorf("invalid kind: %s", d.Kind)
	}
	if existing, err := s.distributors.GetByName(ctx, d.Name); err == nil && existing != nil && existing.ID != d.ID {
		return fmt.Errorf("distributor %q already exists", existing.Name)
	}
	return s.distributors.Update(ctx, d)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.distributors.Delete(ctx, id)
}

func (s *Service) List(ctx context.Context, activeOnly bool, limit, offset int) ([]*Distributor, int, error) {
	return s.distributors.List(ctx, activeOnly, limit, offset)
}
