package patient

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var validStatuses = map[string]bool{
	"active": true, "pending": true, "inactive": true,
}

type Service struct {
	patients Repository
}

func NewService(patients Repository) *Service {
	return &Service{patients: patients}
}

// normalize trims identity fields and nils out blanks so the uniqueness
// checks and the partial unique indexes see the same value.
func normalize(p *Patient) {
	p.Name = strings.TrimSpace(p.Name)
	if p.Document != nil {
		d := strings.TrimSpace(*p.Document)
		if d == "" {
			p.Document = nil
		} else {
			p.Document = &d
		}
	}
	if p.HealthCard != nil {
		h := strings.TrimSpace(*p.HealthCard)
		if h == "" {
			p.HealthCard = nil
		} else {
			p.HealthCard = &h
		}
	}
}

func (s *Service) validate(ctx context.Context, p *Patient) error {
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	if p.Document == nil && p.HealthCard == nil {
		return fmt.Errorf("document or health card is required")
	}
	if !validStatuses[p.Status] {
		return fmt.Errorf("invalid status: %s", p.Status)
	}
	if p.Document != nil {
		if existing, err := s.patients.GetByDocument(ctx, *p.Document); err == nil && existing != nil && existing.ID != p.ID {
			return fmt.Errorf("document already registered to %s", existing.Name)
		}
	}
	if p.HealthCard != nil {
		if existing, err := s.patients.GetByHealthCard(ctx, *p.HealthCard); err == nil && existing != nil && existing.ID != p.ID {
			return fmt.Errorf("health card already registered to %s", existing.Name)
		}
	}
	return nil
}

func (s *Service) Create(ctx context.Context, p *Patient) error {
	normalize(p)
	if p.Status == "" {
		p.Status = "active"
	}
	if err := s.validate(ctx, p); err != nil {
		return err
	}
	return s.patients.Create(ctx, p)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.patients.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, p *Patient) error {
	normalize(p)
	if p.Status == "" {
		p.Status = "active"
	}
	if err := s.validate(ctx, p); err != nil {
		return err
	}
	return s.patients.Update(ctx, p)
}

// Delete hard-deletes the patient. Their dispensation records go with them;
// there is no soft delete or undo.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.patients.Delete(ctx, id)
}

func (s *Service) Search(ctx context.Context, name, status string, limit, offset int) ([]*Patient, int, error) {
	if status != "" && !validStatuses[status] {
		return nil, 0, fmt.Errorf("invalid status: %s", status)
	}
	return s.patients.Search(ctx, name, status, limit, offset)
}
