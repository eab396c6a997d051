package patient

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicops/clinicops/internal/domain/admission"
)

// -- Mock Repositories --

type mockRepo struct {
	patients map[uuid.UUID]*Patient
}

func newMockRepo() *mockRepo {
	return &mockRepo{patients: make(map[uuid.UUID]*Patient)}
}

func (m *mockRepo) Create(_ context.Context, p *Patient) error {
	p.ID = uuid.New()
	m.patients[p.ID] = p
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	p, ok := m.patients[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return p, nil
}

func (m *mockRepo) Update(_ context.Context, p *Patient) error {
	m.patients[p.ID] = p
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.patients, id)
	return nil
}

func (m *mockRepo) List(_ context.Context, limit, offset int) ([]*Patient, int, error) {
	all, _ := m.ListAll(context.Background())
	return all, len(all), nil
}

func (m *mockRepo) ListAll(_ context.Context) ([]*Patient, error) {
	var result []*Patient
	for _, p := range m.patients {
		result = append(result, p)
	}
	return result, nil
}

func (m *mockRepo) Search(_ context.Context, query string, limit, offset int) ([]*Patient, int, error) {
	return m.List(context.Background(), limit, offset)
}

func (m *mockRepo) UpdateEngagement(_ context.Context, id uuid.UUID, status EngagementStatus, reason *TerminalReason) error {
	p, ok := m.patients[id]
	if !ok {
		return fmt.Errorf("not found")
	}
	p.EngagementStatus = status
	p.TerminalReason = reason
	return nil
}

func (m *mockRepo) UpdatePaymentAmount(_ context.Context, id uuid.UUID, amount int64) error {
	p, ok := m.patients[id]
	if !ok {
		return fmt.Errorf("not found")
	}
	p.PaymentAmount = amount
	return nil
}

type mockStatusSource struct {
	statuses map[uuid.UUID][]*admission.DailyStatus
}

func newMockStatusSource() *mockStatusSource {
	return &mockStatusSource{statuses: make(map[uuid.UUID][]*admission.DailyStatus)}
}

func (m *mockStatusSource) ListStatusesByPatient(_ context.Context, patientID uuid.UUID) ([]*admission.DailyStatus, error) {
	return m.statuses[patientID], nil
}

func (m *mockStatusSource) UpsertStatus(_ context.Context, s *admission.DailyStatus) error {
	for _, existing := range m.statuses[s.PatientID] {
		if existing.Date == s.Date {
			existing.Kind = s.Kind
			return nil
		}
	}
	m.statuses[s.PatientID] = append(m.statuses[s.PatientID], s)
	return nil
}

// -- Tests --

func testService() (*Service, *mockRepo, *mockStatusSource) {
	repo := newMockRepo()
	src := newMockStatusSource()
	svc := NewService(repo, src, zerolog.New(os.Stderr).Level(zerolog.Disabled))
	svc.SetClock(func() time.Time { return time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC) })
	return svc, repo, src
}

func addPatient(repo *mockRepo, status EngagementStatus, intake string) *Patient {
	p := &Patient{
		ID:               uuid.New(),
		Name:             "Test Patient",
		EngagementStatus: status,
		RegisteredAt:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	if intake != "" {
		p.IntakeDate = &intake
	}
	repo.patients[p.ID] = p
	return p
}

func TestRescore_Escalates(t *testing.T) {
	svc, repo, src := testService()
	p := addPatient(repo, EngagementActive, "2024-01-01")
	// Last contact 16 days before the fixed clock.
	src.statuses[p.ID] = []*admission.DailyStatus{
		{PatientID: p.ID, Date: "2024-06-14", Kind: admission.StatusOutpatient},
	}

	status, err := svc.Rescore(context.Background(), p.ID, svc.ListThresholds)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != EngagementAtRisk {
		t.Errorf("expected AT_RISK after 16 days, got %s", status)
	}
	if repo.patients[p.ID].EngagementStatus != EngagementAtRisk {
		t.Error("expected persisted status change")
	}
}

func TestRescore_WorklistThresholdsDiffer(t *testing.T) {
	svc, repo, src := testService()
	p := addPatient(repo, EngagementActive, "2024-01-01")
	src.statuses[p.ID] = []*admission.DailyStatus{
		{PatientID: p.ID, Date: "2024-06-14", Kind: admission.StatusOutpatient},
	}

	// 16 days is AT_RISK on the list pair but still ACTIVE on the worklist pair.
	status, err := svc.Rescore(context.Background(), p.ID, svc.WorklistThresholds)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != EngagementActive {
		t.Errorf("expected ACTIVE under worklist thresholds, got %s", status)
	}
}

func TestRescore_TerminalUntouched(t *testing.T) {
	svc, repo, src := testService()
	p := addPatient(repo, EngagementTerminal, "2023-01-01")
	reason := TerminalDeceased
	p.TerminalReason = &reason
	src.statuses[p.ID] = nil

	status, err := svc.Rescore(context.Background(), p.ID, svc.ListThresholds)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != EngagementTerminal {
		t.Errorf("terminal patient must not be rescored, got %s", status)
	}
	if p.TerminalReason == nil || *p.TerminalReason != TerminalDeceased {
		t.Error("terminal reason must be preserved")
	}
}

func TestRescoreAll_CountsPatients(t *testing.T) {
	svc, repo, _ := testService()
	for i := 0; i < 5; i++ {
		addPatient(repo, EngagementActive, "2024-06-29")
	}

	count, err := svc.RescoreAll(context.Background(), svc.ListThresholds)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 5 {
		t.Errorf("expected 5 patients rescored, got %d", count)
	}
}

func TestReturnToActive_ForcesActiveAndSynthesizesStatus(t *testing.T) {
	svc, repo, src := testService()
	p := addPatient(repo, EngagementTerminal, "2023-01-01")
	reason := TerminalConditionWorsened
	p.TerminalReason = &reason

	if err := svc.ReturnToActive(context.Background(), p.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if repo.patients[p.ID].EngagementStatus != EngagementActive {
		t.Errorf("expected ACTIVE, got %s", repo.patients[p.ID].EngagementStatus)
	}
	if repo.patients[p.ID].TerminalReason != nil {
		t.Error("expected terminal reason cleared")
	}

	statuses := src.statuses[p.ID]
	if len(statuses) != 1 {
		t.Fatalf("expected one synthesized status, got %d", len(statuses))
	}
	if statuses[0].Kind != admission.StatusReturned || statuses[0].Date != "2024-06-30" {
		t.Errorf("expected RETURNED dated today, got %s on %s", statuses[0].Kind, statuses[0].Date)
	}
}

func TestSetTerminal_ValidatesReason(t *testing.T) {
	svc, repo, _ := testService()
	p := addPatient(repo, EngagementActive, "2024-01-01")

	if err := svc.SetTerminal(context.Background(), p.ID, "NOT_A_REASON"); err == nil {
		t.Error("expected error for invalid reason")
	}
	if err := svc.SetTerminal(context.Background(), p.ID, TerminalTreatmentComplete); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.patients[p.ID].EngagementStatus != EngagementTerminal {
		t.Error("expected TERMINAL status")
	}
}

func TestCreate_Defaults(t *testing.T) {
	svc, _, _ := testService()
	p := &Patient{Name: "New Patient"}
	if err := svc.Create(context.Background(), p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.EngagementStatus != EngagementActive {
		t.Errorf("expected default ACTIVE, got %s", p.EngagementStatus)
	}
	if p.RegisteredAt.IsZero() {
		t.Error("expected registered_at set")
	}
}

func TestCreate_NormalizesIntake(t *testing.T) {
	svc, _, _ := testService()
	intake := "240201"
	p := &Patient{Name: "New Patient", IntakeDate: &intake}
	if err := svc.Create(context.Background(), p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *p.IntakeDate != "2024-02-01" {
		t.Errorf("expected normalized intake date, got %s", *p.IntakeDate)
	}
}
