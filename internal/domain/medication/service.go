package medication

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type Service struct {
	medications Repository
}

func NewService(medications Repository) *Service {
	return &Service{medications: medications}
}

func (s *Service) Create(ctx context.Context, m *Medication) error {
	m.Name = strings.TrimSpace(m.Name)
	if m.Name == "" {
		return fmt.Errorf("name is required")
	}
	if existing, err := s.medications.GetByName(ctx, m.Name); err == nil && existing != nil {
		return fmt.Errorf("medication %q already exists", existing.Name)
	}
	return s.medications.Create(ctx, m)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Medication, error) {
	return s.medications.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, m *Medication) error {
	m.Name = strings.TrimSpace(m.Name)
	if m.Name == "" {
		return fmt.Errorf("name is required")
	}
	if existing, err := s.medications.GetByName(ctx, m.Name); err == nil && existing != nil && existing.ID != m.ID {
		return fmt.Errorf("medication %q already exists", existing.Name)
	}
	return s.medications.Update(ctx, m)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.medications.Delete(ctx, id)
}

func (s *Service) Search(ctx context.Context, term string, limit, offset int) ([]*Medication, int, error) {
	return s.medications.Search(ctx, term, limit, offset)
}
