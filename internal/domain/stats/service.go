package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clinicops/clinicops/internal/domain/admission"
	"github.com/clinicops/clinicops/internal/domain/ledger"
	"github.com/clinicops/clinicops/internal/domain/patient"
	"github.com/clinicops/clinicops/pkg/dateutil"
)

// The aggregator reads three stores; the domain repositories satisfy these
// interfaces structurally.

type StatusSource interface {
	ListStatusesByPatient(ctx context.Context, patientID uuid.UUID) ([]*admission.DailyStatus, error)
}

type LedgerSource interface {
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*ledger.Transaction, error)
}

type PatientSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (*patient.Patient, error)
	ListAll(ctx context.Context) ([]*patient.Patient, error)
}

type Service struct {
	patients PatientSource
	statuses StatusSource
	txs      LedgerSource
	now      func() time.Time
}

func NewService(patients PatientSource, statuses StatusSource, txs LedgerSource) *Service {
	return &Service{patients: patients, statuses: statuses, txs: txs, now: time.Now}
}

// SetClock overrides the wall clock, for tests.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// ForPatient aggregates one patient's statistics. from/to are optional;
// both empty means all-time.
func (s *Service) ForPatient(ctx context.Context, patientID uuid.UUID, from, to string) (Stats, error) {
	period, err := parsePeriod(from, to)
	if err != nil {
		return Stats{}, err
	}

	p, err := s.patients.GetByID(ctx, patientID)
	if err != nil {
		return Stats{}, fmt.Errorf("patient not found: %w", err)
	}
	statuses, err := s.statuses.ListStatusesByPatient(ctx, patientID)
	if err != nil {
		return Stats{}, fmt.Errorf("list statuses: %w", err)
	}
	txs, err := s.txs.ListByPatient(ctx, patientID)
	if err != nil {
		return Stats{}, fmt.Errorf("list transactions: %w", err)
	}

	return Aggregate(statuses, txs, p.PaymentAmount, period, dateutil.Today(s.now())), nil
}

// MonthlyRollup sums every patient's statistics over one YYYY-MM month.
func (s *Service) MonthlyRollup(ctx context.Context, yearMonth string) (Stats, error) {
	first, last, err := dateutil.MonthBounds(yearMonth)
	if err != nil {
		return Stats{}, err
	}
	period := &Period{Start: first, End: last}
	today := dateutil.Today(s.now())

	patients, err := s.patients.ListAll(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("list patients: %w", err)
	}

	var total Stats
	for _, p := range patients {
		statuses, err := s.statuses.ListStatusesByPatient(ctx, p.ID)
		if err != nil {
			return Stats{}, fmt.Errorf("list statuses: %w", err)
		}
		txs, err := s.txs.ListByPatient(ctx, p.ID)
		if err != nil {
			return Stats{}, fmt.Errorf("list transactions: %w", err)
		}
		one := Aggregate(statuses, txs, p.PaymentAmount, period, today)
		total.AdmissionDays += one.AdmissionDays
		total.DayCareVisits += one.DayCareVisits
		total.OutpatientVisits += one.OutpatientVisits
		total.PhoneFollowups += one.PhoneFollowups
		total.Revenue += one.Revenue
		total.CachedPayment += one.CachedPayment
	}
	return total, nil
}

func parsePeriod(from, to string) (*Period, error) {
	if from == "" && to == "" {
		return nil, nil
	}
	if from == "" || to == "" {
		return nil, fmt.Errorf("period requires both from and to")
	}
	f, err := dateutil.Normalize(from)
	if err != nil {
		return nil, fmt.Errorf("invalid from date: %w", err)
	}
	t, err := dateutil.Normalize(to)
	if err != nil {
		return nil, fmt.Errorf("invalid to date: %w", err)
	}
	if f > t {
		return nil, fmt.Errorf("period start after end")
	}
	return &Period{Start: f, End: t}, nil
}
