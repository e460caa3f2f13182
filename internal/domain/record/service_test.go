package record

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
)

type mockRepo struct {
	records      map[uuid.UUID]*Record
	order        []uuid.UUID
	keyLookupErr error
}

func newMockRepo() *mockRepo {
	return &mockRepo{records: make(map[uuid.UUID]*Record)}
}

func (m *mockRepo) Create(_ context.Context, r *Record) error {
	r.ID = uuid.New()
	r.CreatedAt = time.Now()
	r.UpdatedAt = time.Now()
	m.records[r.ID] = r
	m.order = append(m.order, r.ID)
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Record, error) {
	r, ok := m.records[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return r, nil
}

func (m *mockRepo) GetByIdempotencyKey(_ context.Context, key uuid.UUID) (*Record, error) {
	if m.keyLookupErr != nil {
		return nil, m.keyLookupErr
	}
	for _, r := range m.records {
		if r.IdempotencyKey != nil && *r.IdempotencyKey == key {
			return r, nil
		}
	}
	return nil, nil
}

func (m *mockRepo) Update(_ context.Context, r *Record) error {
	if _, ok := m.records[r.ID]; !ok {
		return fmt.Errorf("not found")
	}
	m.records[r.ID] = r
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.records, id)
	return nil
}

func (m *mockRepo) LatestNonCancelled(_ context.Context, patientID uuid.UUID) (*Record, error) {
	var latest *Record
	for _, r := range m.records {
		if r.PatientID != patientID || r.Status == StatusCancelled {
			continue
		}
		if latest == nil || r.EntryDate.After(latest.EntryDate) {
			latest = r
		}
	}
	return latest, nil
}

func (m *mockRepo) Search(_ context.Context, params SearchParams, limit, offset int) ([]*Record, int, error) {
	var result []*Record
	for _, id := range m.order {
		r, ok := m.records[id]
		if !ok {
			continue
		}
		if params.PatientID != uuid.Nil && r.PatientID != params.PatientID {
			continue
		}
		if params.Status != "" && r.Status != params.Status {
			continue
		}
		result = append(result, r)
	}
	return Paginate(result, limit, offset), len(result), nil
}

func draft(lines ...Line) *Record {
	if len(lines) == 0 {
		lines = []Line{{MedicationID: uuid.New(), Quantity: "1 box", Value: 10}}
	}
	return &Record{
		PatientID:      uuid.New(),
		ProfessionalID: uuid.New(),
		Pharmacy:       "Central Pharmacy",
		Lines:          lines,
	}
}

func TestCreate_StartsPendingWithComputedTotal(t *testing.T) {
	svc := NewService(newMockRepo())
	r, err := svc.Create(context.Background(), draft(
		Line{MedicationID: uuid.New(), Quantity: "2 boxes", Value: 15.00},
		Line{MedicationID: uuid.New(), Quantity: "1 bottle", Value: 8.50},
	))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Status != StatusPending {
		t.Errorf("expected status pending, got %s", r.Status)
	}
	if r.TotalValue != 23.50 {
		t.Errorf("expected total 23.50, got %.2f", r.TotalValue)
	}
	if r.DeliveryDate != nil {
		t.Error("new record must not carry a delivery date")
	}
	if r.EntryDate.IsZero() {
		t.Error("entry date should be stamped on create")
	}
}

func TestCreate_IgnoresClientTotalAndStatus(t *testing.T) {
	svc := NewService(newMockRepo())
	in := draft(Line{MedicationID: uuid.New(), Quantity: "1", Value: 5})
	in.TotalValue = 9999
	in.Status = StatusAttended
	r, err := svc.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.TotalValue != 5 {
		t.Errorf("client-sent total should be recomputed, got %.2f", r.TotalValue)
	}
	if r.Status != StatusPending {
		t.Errorf("client-sent status should be overridden, got %s", r.Status)
	}
}

func TestCreate_RejectsNoLines(t *testing.T) {
	svc := NewService(newMockRepo())
	in := draft()
	in.Lines = nil
	if _, err := svc.Create(context.Background(), in); err == nil {
		t.Error("expected error for record with no lines")
	}
}

func TestCreate_BlankLinesPrunedThenRejectedWhenEmpty(t *testing.T) {
	svc := NewService(newMockRepo())
	in := draft()
	in.Lines = []Line{{}, {Quantity: ""}}
	if _, err := svc.Create(context.Background(), in); err == nil {
		t.Error("expected error when every line is blank")
	}
}

func TestCreate_LineWithoutMedicationRejected(t *testing.T) {
	svc := NewService(newMockRepo())
	in := draft(Line{Quantity: "1 box", Value: 3})
	if _, err := svc.Create(context.Background(), in); err == nil {
		t.Error("expected error for line missing a medication")
	}
}

func TestCreate_IdempotencyKeyReturnsExisting(t *testing.T) {
	svc := NewService(newMockRepo())
	key := uuid.New()

	first := draft()
	first.IdempotencyKey = &key
	created, err := svc.Create(context.Background(), first)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	replay := draft()
	replay.IdempotencyKey = &key
	again, err := svc.Create(context.Background(), replay)
	if err != nil {
		t.Fatalf("unexpected error on replay: %v", err)
	}
	if again.ID != created.ID {
		t.Errorf("replayed create should return the original record, got %s vs %s", again.ID, created.ID)
	}
}

func TestCreate_IdempotencyLookupErrorStopsCreate(t *testing.T) {
	repo := newMockRepo()
	repo.keyLookupErr = fmt.Errorf("connection reset")
	svc := NewService(repo)

	key := uuid.New()
	in := draft()
	in.IdempotencyKey = &key
	if _, err := svc.Create(context.Background(), in); err == nil {
		t.Fatal("a failing idempotency lookup must not fall through to create")
	}
	if len(repo.order) != 0 {
		t.Error("no record should be stored when the lookup fails")
	}
}

func TestAttend_SetsDeliveryDateAndStatus(t *testing.T) {
	svc := NewService(newMockRepo())
	r, _ := svc.Create(context.Background(), draft())

	attended, err := svc.Attend(context.Background(), r.ID, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attended.Status != StatusAttended {
		t.Errorf("expected status attended, got %s", attended.Status)
	}
	if attended.DeliveryDate == nil {
		t.Fatal("attended record must have a delivery date")
	}
	if h := attended.DeliveryDate.Hour(); h != 12 {
		t.Errorf("delivery date should be pinned to UTC noon, got hour %d", h)
	}
}

func TestAttend_RejectsFutureDate(t *testing.T) {
	svc := NewService(newMockRepo())
	r, _ := svc.Create(context.Background(), draft())

	tomorrow := time.Now().AddDate(0, 0, 1)
	if _, err := svc.Attend(context.Background(), r.ID, tomorrow); err == nil {
		t.Error("expected future delivery date to be rejected")
	}
}

func TestAttend_RejectsNonPending(t *testing.T) {
	svc := NewService(newMockRepo())
	r, _ := svc.Create(context.Background(), draft())
	if _, err := svc.Attend(context.Background(), r.ID, time.Now()); err != nil {
		t.Fatalf("first attend failed: %v", err)
	}
	if _, err := svc.Attend(context.Background(), r.ID, time.Now()); err != ErrNotPending {
		t.Errorf("expected ErrNotPending on second attend, got %v", err)
	}
}

func TestCancel_RequiresReason(t *testing.T) {
	svc := NewService(newMockRepo())
	r, _ := svc.Create(context.Background(), draft())

	if _, err := svc.Cancel(context.Background(), r.ID, "   "); err == nil {
		t.Error("expected whitespace-only reason to be rejected")
	}

	cancelled, err := svc.Cancel(context.Background(), r.ID, "patient moved away")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cancelled.Status != StatusCancelled {
		t.Errorf("expected status cancelled, got %s", cancelled.Status)
	}
	if cancelled.DeliveryDate != nil {
		t.Error("cancelled record must not carry a delivery date")
	}
	if cancelled.CancelReason == nil || *cancelled.CancelReason != "patient moved away" {
		t.Error("cancellation reason should be stored trimmed")
	}
}

func TestCancel_RejectsNonPending(t *testing.T) {
	svc := NewService(newMockRepo())
	r, _ := svc.Create(context.Background(), draft())
	svc.Cancel(context.Background(), r.ID, "duplicate entry")
	if _, err := svc.Cancel(context.Background(), r.ID, "again"); err != ErrNotPending {
		t.Errorf("expected ErrNotPending, got %v", err)
	}
}

func TestUpdate_PreservesLifecycleFields(t *testing.T) {
	svc := NewService(newMockRepo())
	r, _ := svc.Create(context.Background(), draft())
	attended, _ := svc.Attend(context.Background(), r.ID, time.Now())
	originalEntry := attended.EntryDate
	originalDelivery := *attended.DeliveryDate

	edit := &Record{
		ID:             r.ID,
		PatientID:      r.PatientID,
		ProfessionalID: r.ProfessionalID,
		Pharmacy:       "Neighborhood Pharmacy",
		Status:         StatusPending, // must be ignored
		Lines:          []Line{{MedicationID: uuid.New(), Quantity: "3 boxes", Value: 7.25}},
	}
	updated, err := svc.Update(context.Background(), edit)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != StatusAttended {
		t.Errorf("update must not change status, got %s", updated.Status)
	}
	if !updated.EntryDate.Equal(originalEntry) {
		t.Error("update must not change the entry date")
	}
	if updated.DeliveryDate == nil || !updated.DeliveryDate.Equal(originalDelivery) {
		t.Error("update must not change the delivery date")
	}
	if updated.TotalValue != 7.25 {
		t.Errorf("total should be recomputed from new lines, got %.2f", updated.TotalValue)
	}
	if updated.Pharmacy != "Neighborhood Pharmacy" {
		t.Errorf("pharmacy should be editable, got %s", updated.Pharmacy)
	}
}

func TestRepeatTemplate_WithinWindow(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	r, _ := svc.Create(context.Background(), draft(
		Line{MedicationID: uuid.New(), Quantity: "1 box", Value: 4},
	))

	tpl, err := svc.RepeatTemplate(context.Background(), r.PatientID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tpl == nil {
		t.Fatal("expected a template for a record entered today")
	}
	if tpl.SourceRecordID != r.ID {
		t.Errorf("template should point at the source record")
	}
	if len(tpl.Lines) != 1 {
		t.Errorf("expected 1 line in template, got %d", len(tpl.Lines))
	}
}

func TestRepeatTemplate_OutsideWindow(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	r, _ := svc.Create(context.Background(), draft())
	repo.records[r.ID].EntryDate = time.Now().AddDate(0, 0, -25)

	tpl, err := svc.RepeatTemplate(context.Background(), r.PatientID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tpl != nil {
		t.Error("records older than the window must not produce a template")
	}
}

func TestRepeatTemplate_SkipsCancelled(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	patientID := uuid.New()

	first := draft()
	first.PatientID = patientID
	created, _ := svc.Create(context.Background(), first)
	svc.Cancel(context.Background(), created.ID, "wrong patient")

	tpl, err := svc.RepeatTemplate(context.Background(), patientID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tpl != nil {
		t.Error("a cancelled record must not feed the repeat template")
	}
}
