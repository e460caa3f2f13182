package budget

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type Service struct {
	budgets Repository
}

func NewService(budgets Repository) *Service {
	return &Service{budgets: budgets}
}

func validateBudget(b *Budget) error {
	if b.Year < 2000 || b.Year > 2200 {
		return fmt.Errorf("year %d is out of range", b.Year)
	}
	if b.Month < 1 || b.Month > 12 {
		return fmt.Errorf("month must be between 1 and 12")
	}
	if b.Amount < 0 {
		return fmt.Errorf("amount cannot be negative")
	}
	return nil
}

func (s *Service) Create(ctx context.Context, b *Budget) error {
	if err := validateBudget(b); err != nil {
		return err
	}
	existing, err := s.budgets.GetByMonth(ctx, b.Year, b.Month)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("a budget for %04d-%02d already exists", b.Year, b.Month)
	}
	return s.budgets.Create(ctx, b)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Budget, error) {
	return s.budgets.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, b *Budget) error {
	if err := validateBudget(b); err != nil {
		return err
	}
	existing, err := s.budgets.GetByMonth(ctx, b.Year, b.Month)
	if err != nil {
		return err
	}
	if existing != nil && existing.ID != b.ID {
		return fmt.Errorf("a budget for %04d-%02d already exists", b.Year, b.Month)
	}
	return s.budgets.Update(ctx, b)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.budgets.Delete(ctx, id)
}

func (s *Service) List(ctx context.Context, year int) ([]*Budget, error) {
	return s.budgets.List(ctx, year)
}

// Summarize reports allowance against spend for a month. A month without a
// configured budget still summarizes, with a zero allowance.
func (s *Service) Summarize(ctx context.Context, year, month int) (*Summary, error) {
	if month < 1 || month > 12 {
		return nil, fmt.Errorf("month must be between 1 and 12")
	}
	b, err := s.budgets.GetByMonth(ctx, year, month)
	if err != nil {
		return nil, err
	}
	spent, err := s.budgets.SpentForMonth(ctx, year, month)
	if err != nil {
		return nil, err
	}

	summary := &Summary{Year: year, Month: month, Spent: spent}
	if b != nil {
		summary.Budget = b.Amount
	}
	summary.Remaining = summary.Budget - spent
	summary.Exceeded = spent > summary.Budget
	return summary, nil
}
