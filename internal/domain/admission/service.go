package admission

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clinicops/clinicops/pkg/dateutil"
)

var (
	// ErrOverlappingCycle is returned when a cycle's span would overlap
	// another cycle for the same patient.
	ErrOverlappingCycle = errors.New("admission cycle overlaps an existing cycle")
	// ErrInvalidDischarge is returned when a discharge date precedes the
	// admission date.
	ErrInvalidDischarge = errors.New("discharge date precedes admission date")
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// SetClock overrides the wall clock, for tests.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

func (s *Service) CreateCycle(ctx context.Context, c *Cycle) error {
	if c.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if !ValidCycleKinds[c.Kind] {
		return fmt.Errorf("invalid cycle kind: %s", c.Kind)
	}
	if err := s.normalizeSpan(c); err != nil {
		return err
	}
	if c.Status == "" {
		c.Status = "active"
	}

	existing, err := s.repo.ListCyclesByPatient(ctx, c.PatientID)
	if err != nil {
		return fmt.Errorf("list cycles: %w", err)
	}
	if Overlaps(existing, c.AdmitDate, c.DischargeDate, "") {
		return ErrOverlappingCycle
	}
	return s.repo.CreateCycle(ctx, c)
}

func (s *Service) GetCycle(ctx context.Context, id uuid.UUID) (*Cycle, error) {
	return s.repo.GetCycle(ctx, id)
}

func (s *Service) UpdateCycle(ctx context.Context, c *Cycle) error {
	if !ValidCycleKinds[c.Kind] {
		return fmt.Errorf("invalid cycle kind: %s", c.Kind)
	}
	if err := s.normalizeSpan(c); err != nil {
		return err
	}

	existing, err := s.repo.ListCyclesByPatient(ctx, c.PatientID)
	if err != nil {
		return fmt.Errorf("list cycles: %w", err)
	}
	if Overlaps(existing, c.AdmitDate, c.DischargeDate, c.ID.String()) {
		return ErrOverlappingCycle
	}
	return s.repo.UpdateCycle(ctx, c)
}

// Discharge closes an open cycle on the given date.
func (s *Service) Discharge(ctx context.Context, id uuid.UUID, date string) (*Cycle, error) {
	c, err := s.repo.GetCycle(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("cycle not found: %w", err)
	}

	d := dateutil.NormalizeOr(date, dateutil.Today(s.now()))
	if d < c.AdmitDate {
		return nil, ErrInvalidDischarge
	}
	c.DischargeDate = &d
	c.Status = "discharged"
	if err := s.repo.UpdateCycle(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) DeleteCycle(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteCycle(ctx, id)
}

func (s *Service) ListCycles(ctx context.Context, patientID uuid.UUID) ([]*Cycle, error) {
	return s.repo.ListCyclesByPatient(ctx, patientID)
}

// RecordStatus upserts the day's status for a patient. An empty kind clears
// the cell: the record is deleted rather than stored empty.
func (s *Service) RecordStatus(ctx context.Context, st *DailyStatus) error {
	if st.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	date, err := dateutil.Normalize(st.Date)
	if err != nil {
		return fmt.Errorf("invalid status date: %w", err)
	}
	st.Date = date

	if st.Kind == "" {
		return s.repo.DeleteStatus(ctx, st.PatientID, st.Date)
	}
	if !ValidStatusKinds[st.Kind] {
		return fmt.Errorf("invalid status kind: %s", st.Kind)
	}
	return s.repo.UpsertStatus(ctx, st)
}

func (s *Service) ListStatuses(ctx context.Context, patientID uuid.UUID) ([]*DailyStatus, error) {
	return s.repo.ListStatusesByPatient(ctx, patientID)
}

// ListStatusesForMonth returns the patient's statuses inside a YYYY-MM month.
func (s *Service) ListStatusesForMonth(ctx context.Context, patientID uuid.UUID, yearMonth string) ([]*DailyStatus, error) {
	from, to, err := dateutil.MonthBounds(yearMonth)
	if err != nil {
		return nil, err
	}
	return s.repo.ListStatusesByPatientRange(ctx, patientID, from, to)
}

// ResolveDay loads both sources and computes the display view for one date.
func (s *Service) ResolveDay(ctx context.Context, patientID uuid.UUID, date string) (DayView, error) {
	d, err := dateutil.Normalize(date)
	if err != nil {
		return DayView{}, fmt.Errorf("invalid date: %w", err)
	}
	cycles, err := s.repo.ListCyclesByPatient(ctx, patientID)
	if err != nil {
		return DayView{}, fmt.Errorf("list cycles: %w", err)
	}
	statuses, err := s.repo.ListStatusesByPatient(ctx, patientID)
	if err != nil {
		return DayView{}, fmt.Errorf("list statuses: %w", err)
	}
	return ViewFor(cycles, statuses, d), nil
}

func (s *Service) normalizeSpan(c *Cycle) error {
	admit, err := dateutil.Normalize(c.AdmitDate)
	if err != nil {
		return fmt.Errorf("invalid admit date: %w", err)
	}
	c.AdmitDate = admit

	if c.DischargeDate != nil {
		d, err := dateutil.Normalize(*c.DischargeDate)
		if err != nil {
			return fmt.Errorf("invalid discharge date: %w", err)
		}
		if d < c.AdmitDate {
			return ErrInvalidDischarge
		}
		c.DischargeDate = &d
	}
	return nil
}
