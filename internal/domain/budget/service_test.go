package budget

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
)

type mockRepo struct {
	budgets map[uuid.UUID]*Budget
	spent   map[string]float64
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		budgets: make(map[uuid.UUID]*Budget),
		spent:   make(map[string]float64),
	}
}

func monthKey(year, month int) string { return fmt.Sprintf("%04d-%02d", year, month) }

func (m *mockRepo) Create(_ context.Context, b *Budget) error {
	b.ID = uuid.New()
	b.CreatedAt = time.Now()
	b.UpdatedAt = time.Now()
	m.budgets[b.ID] = b
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Budget, error) {
	b, ok := m.budgets[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return b, nil
}

func (m *mockRepo) GetByMonth(_ context.Context, year, month int) (*Budget, error) {
	for _, b := range m.budgets {
		if b.Year == year && b.Month == month {
			return b, nil
		}
	}
	return nil, nil
}

func (m *mockRepo) Update(_ context.Context, b *Budget) error {
	if _, ok := m.budgets[b.ID]; !ok {
		return fmt.Errorf("not found")
	}
	m.budgets[b.ID] = b
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.budgets, id)
	return nil
}

func (m *mockRepo) List(_ context.Context, year int) ([]*Budget, error) {
	var out []*Budget
	for _, b := range m.budgets {
		if year == 0 || b.Year == year {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *mockRepo) SpentForMonth(_ context.Context, year, month int) (float64, error) {
	return m.spent[monthKey(year, month)], nil
}

func TestCreate_RejectsDuplicateMonth(t *testing.T) {
	svc := NewService(newMockRepo())
	if err := svc.Create(context.Background(), &Budget{Year: 2026, Month: 3, Amount: 500}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.Create(context.Background(), &Budget{Year: 2026, Month: 3, Amount: 700}); err == nil {
		t.Error("expected duplicate month to be rejected")
	}
}

func TestCreate_RejectsInvalidMonthAndAmount(t *testing.T) {
	svc := NewService(newMockRepo())
	if err := svc.Create(context.Background(), &Budget{Year: 2026, Month: 13, Amount: 10}); err == nil {
		t.Error("expected month 13 to be rejected")
	}
	if err := svc.Create(context.Background(), &Budget{Year: 2026, Month: 5, Amount: -1}); err == nil {
		t.Error("expected negative amount to be rejected")
	}
}

func TestUpdate_AllowsKeepingOwnMonth(t *testing.T) {
	svc := NewService(newMockRepo())
	b := &Budget{Year: 2026, Month: 4, Amount: 300}
	if err := svc.Create(context.Background(), b); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b.Amount = 450
	if err := svc.Update(context.Background(), b); err != nil {
		t.Errorf("update keeping the same month should pass: %v", err)
	}
}

func TestSummarize_WithinBudget(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	svc.Create(context.Background(), &Budget{Year: 2026, Month: 3, Amount: 500})
	repo.spent[monthKey(2026, 3)] = 320.50

	s, err := svc.Summarize(context.Background(), 2026, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Budget != 500 || s.Spent != 320.50 {
		t.Errorf("unexpected figures: budget=%.2f spent=%.2f", s.Budget, s.Spent)
	}
	if s.Remaining != 179.50 {
		t.Errorf("expected remaining 179.50, got %.2f", s.Remaining)
	}
	if s.Exceeded {
		t.Error("budget should not be marked exceeded")
	}
}

func TestSummarize_Exceeded(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	svc.Create(context.Background(), &Budget{Year: 2026, Month: 3, Amount: 100})
	repo.spent[monthKey(2026, 3)] = 150

	s, err := svc.Summarize(context.Background(), 2026, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !s.Exceeded {
		t.Error("spend above allowance should mark the summary exceeded")
	}
	if s.Remaining != -50 {
		t.Errorf("expected remaining -50, got %.2f", s.Remaining)
	}
}

func TestSummarize_NoBudgetConfigured(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	repo.spent[monthKey(2026, 7)] = 42

	s, err := svc.Summarize(context.Background(), 2026, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Budget != 0 || s.Spent != 42 || !s.Exceeded {
		t.Errorf("unconfigured month should report zero allowance: %+v", s)
	}
}
