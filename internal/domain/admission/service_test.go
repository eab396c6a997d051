package admission

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
)

// -- Mock Repository --

type mockRepo struct {
	cycles   map[uuid.UUID]*Cycle
	statuses map[string]*DailyStatus // key: patientID|date
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		cycles:   make(map[uuid.UUID]*Cycle),
		statuses: make(map[string]*DailyStatus),
	}
}

func statusKey(patientID uuid.UUID, date string) string {
	return patientID.String() + "|" + date
}

func (m *mockRepo) CreateCycle(_ context.Context, c *Cycle) error {
	c.ID = uuid.New()
	m.cycles[c.ID] = c
	return nil
}

func (m *mockRepo) GetCycle(_ context.Context, id uuid.UUID) (*Cycle, error) {
	c, ok := m.cycles[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return c, nil
}

func (m *mockRepo) UpdateCycle(_ context.Context, c *Cycle) error {
	m.cycles[c.ID] = c
	return nil
}

func (m *mockRepo) DeleteCycle(_ context.Context, id uuid.UUID) error {
	delete(m.cycles, id)
	return nil
}

func (m *mockRepo) ListCyclesByPatient(_ context.Context, patientID uuid.UUID) ([]*Cycle, error) {
	var result []*Cycle
	for _, c := range m.cycles {
		if c.PatientID == patientID {
			result = append(result, c)
		}
	}
	return result, nil
}

func (m *mockRepo) UpsertStatus(_ context.Context, s *DailyStatus) error {
	key := statusKey(s.PatientID, s.Date)
	if existing, ok := m.statuses[key]; ok {
		existing.Kind = s.Kind
		existing.Notes = s.Notes
		return nil
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	m.statuses[key] = s
	return nil
}

func (m *mockRepo) DeleteStatus(_ context.Context, patientID uuid.UUID, date string) error {
	delete(m.statuses, statusKey(patientID, date))
	return nil
}

func (m *mockRepo) ListStatusesByPatient(_ context.Context, patientID uuid.UUID) ([]*DailyStatus, error) {
	var result []*DailyStatus
	for _, s := range m.statuses {
		if s.PatientID == patientID {
			result = append(result, s)
		}
	}
	return result, nil
}

func (m *mockRepo) ListStatusesByPatientRange(_ context.Context, patientID uuid.UUID, from, to string) ([]*DailyStatus, error) {
	var result []*DailyStatus
	for _, s := range m.statuses {
		if s.PatientID == patientID && s.Date >= from && s.Date <= to {
			result = append(result, s)
		}
	}
	return result, nil
}

// -- Tests --

func fixedClock() func() time.Time {
	return func() time.Time { return time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC) }
}

func TestCreateCycle_RejectsOverlap(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	pid := uuid.New()

	first := &Cycle{PatientID: pid, AdmitDate: "2024-01-01", Kind: CycleInpatient}
	if err := svc.CreateCycle(context.Background(), first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second := &Cycle{PatientID: pid, AdmitDate: "2024-02-01", Kind: CycleInpatient}
	err := svc.CreateCycle(context.Background(), second)
	if !errors.Is(err, ErrOverlappingCycle) {
		t.Errorf("expected ErrOverlappingCycle, got %v", err)
	}
}

func TestCreateCycle_NormalizesDates(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)

	c := &Cycle{PatientID: uuid.New(), AdmitDate: "20240201", Kind: CycleDaycare}
	if err := svc.CreateCycle(context.Background(), c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.AdmitDate != "2024-02-01" {
		t.Errorf("expected normalized admit date, got %s", c.AdmitDate)
	}
	if c.Status != "active" {
		t.Errorf("expected default status active, got %s", c.Status)
	}
}

func TestCreateCycle_RejectsDischargeBeforeAdmit(t *testing.T) {
	svc := NewService(newMockRepo())

	d := "2024-01-01"
	c := &Cycle{PatientID: uuid.New(), AdmitDate: "2024-02-01", DischargeDate: &d, Kind: CycleInpatient}
	if err := svc.CreateCycle(context.Background(), c); !errors.Is(err, ErrInvalidDischarge) {
		t.Errorf("expected ErrInvalidDischarge, got %v", err)
	}
}

func TestDischarge_ClosesCycle(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	svc.SetClock(fixedClock())
	pid := uuid.New()

	c := &Cycle{PatientID: pid, AdmitDate: "2024-06-01", Kind: CycleInpatient}
	if err := svc.CreateCycle(context.Background(), c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := svc.Discharge(context.Background(), c.ID, "2024-06-10")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.DischargeDate == nil || *got.DischargeDate != "2024-06-10" {
		t.Errorf("expected discharge date set, got %+v", got.DischargeDate)
	}
	if got.Status != "discharged" {
		t.Errorf("expected status discharged, got %s", got.Status)
	}
}

func TestDischarge_FallsBackToToday(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	svc.SetClock(fixedClock())
	pid := uuid.New()

	c := &Cycle{PatientID: pid, AdmitDate: "2024-06-01", Kind: CycleInpatient}
	if err := svc.CreateCycle(context.Background(), c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := svc.Discharge(context.Background(), c.ID, "not-a-date")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.DischargeDate == nil || *got.DischargeDate != "2024-06-15" {
		t.Errorf("expected today's date as fallback, got %+v", got.DischargeDate)
	}
}

func TestRecordStatus_UpsertIsUniquePerDay(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	pid := uuid.New()

	first := &DailyStatus{PatientID: pid, Date: "2024-03-10", Kind: StatusDaycare}
	if err := svc.RecordStatus(context.Background(), first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second := &DailyStatus{PatientID: pid, Date: "20240310", Kind: StatusOutpatient}
	if err := svc.RecordStatus(context.Background(), second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	statuses, _ := repo.ListStatusesByPatient(context.Background(), pid)
	if len(statuses) != 1 {
		t.Fatalf("expected one record per day, got %d", len(statuses))
	}
	if statuses[0].Kind != StatusOutpatient {
		t.Errorf("expected the later kind to win, got %s", statuses[0].Kind)
	}
}

func TestRecordStatus_EmptyKindClears(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	pid := uuid.New()

	st := &DailyStatus{PatientID: pid, Date: "2024-03-10", Kind: StatusDaycare}
	if err := svc.RecordStatus(context.Background(), st); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	clear := &DailyStatus{PatientID: pid, Date: "2024-03-10", Kind: ""}
	if err := svc.RecordStatus(context.Background(), clear); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	statuses, _ := repo.ListStatusesByPatient(context.Background(), pid)
	if len(statuses) != 0 {
		t.Errorf("expected cleared cell, got %d records", len(statuses))
	}
}

func TestRecordStatus_RejectsBadDate(t *testing.T) {
	svc := NewService(newMockRepo())
	st := &DailyStatus{PatientID: uuid.New(), Date: "banana", Kind: StatusDaycare}
	if err := svc.RecordStatus(context.Background(), st); err == nil {
		t.Error("expected error for unparseable date")
	}
}

func TestResolveDay_UsesBothSources(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	pid := uuid.New()

	c := &Cycle{PatientID: pid, AdmitDate: "2024-03-01", Kind: CycleInpatient}
	if err := svc.CreateCycle(context.Background(), c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	st := &DailyStatus{PatientID: pid, Date: "2024-03-10", Kind: StatusDaycare}
	if err := svc.RecordStatus(context.Background(), st); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	view, err := svc.ResolveDay(context.Background(), pid, "2024-03-10")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.Direct == nil || view.Direct.Kind != StatusDaycare {
		t.Errorf("expected direct DAYCARE, got %+v", view.Direct)
	}
	if view.Derived != nil {
		t.Errorf("expected derived suppressed, got %+v", view.Derived)
	}
}
