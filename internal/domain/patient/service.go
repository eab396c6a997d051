package patient

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/clinicops/clinicops/internal/domain/admission"
	"github.com/clinicops/clinicops/pkg/dateutil"
)

// rescoreConcurrency bounds the batch re-scoring fan-out. Per-patient
// computations are independent; writes for one patient stay serialized
// because each patient is handled by exactly one goroutine.
const rescoreConcurrency = 8

type Service struct {
	repo     Repository
	statuses StatusSource
	logger   zerolog.Logger
	now      func() time.Time

	// ListThresholds drives the patient-list scoring, WorklistThresholds
	// the follow-up worklist. The pairs intentionally differ; see config.
	ListThresholds     Thresholds
	WorklistThresholds Thresholds
}

func NewService(repo Repository, statuses StatusSource, logger zerolog.Logger) *Service {
	return &Service{
		repo:               repo,
		statuses:           statuses,
		logger:             logger,
		now:                time.Now,
		ListThresholds:     Thresholds{AtRiskDays: 14, ChurnDays: 21},
		WorklistThresholds: Thresholds{AtRiskDays: 21, ChurnDays: 30},
	}
}

// SetClock overrides the wall clock, for tests.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// ThresholdsFor maps a scoring profile name to its configured pair.
// Unknown profiles fall back to the list pair.
func (s *Service) ThresholdsFor(profile string) Thresholds {
	if profile == "worklist" {
		return s.WorklistThresholds
	}
	return s.ListThresholds
}

func (s *Service) Create(ctx context.Context, p *Patient) error {
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	if p.EngagementStatus == "" {
		p.EngagementStatus = EngagementActive
	}
	if p.RegisteredAt.IsZero() {
		p.RegisteredAt = s.now().UTC()
	}
	if p.IntakeDate != nil {
		d, err := dateutil.Normalize(*p.IntakeDate)
		if err != nil {
			return fmt.Errorf("invalid intake date: %w", err)
		}
		p.IntakeDate = &d
	}
	if p.ConsultDate != nil {
		d, err := dateutil.Normalize(*p.ConsultDate)
		if err != nil {
			return fmt.Errorf("invalid consult date: %w", err)
		}
		p.ConsultDate = &d
	}
	return s.repo.Create(ctx, p)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, p *Patient) error {
	return s.repo.Update(ctx, p)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) Search(ctx context.Context, query string, limit, offset int) ([]*Patient, int, error) {
	return s.repo.Search(ctx, query, limit, offset)
}

// Rescore recomputes one patient's engagement status from contact recency
// and persists it when it changed. Terminal and exempt patients are left
// untouched.
func (s *Service) Rescore(ctx context.Context, id uuid.UUID, th Thresholds) (EngagementStatus, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return "", fmt.Errorf("patient not found: %w", err)
	}
	if !p.EngagementStatus.AutoScored() {
		return p.EngagementStatus, nil
	}

	history, err := s.statuses.ListStatusesByPatient(ctx, id)
	if err != nil {
		return "", fmt.Errorf("list statuses: %w", err)
	}

	days := DaysSinceContact(p, history, s.now())
	next := NextStatus(p.EngagementStatus, days, th)
	if next == p.EngagementStatus {
		return next, nil
	}

	if err := s.repo.UpdateEngagement(ctx, id, next, nil); err != nil {
		return "", fmt.Errorf("update engagement: %w", err)
	}
	s.logger.Info().
		Str("patient_id", id.String()).
		Str("from", string(p.EngagementStatus)).
		Str("to", string(next)).
		Int("days_since_contact", days).
		Msg("engagement rescored")
	return next, nil
}

// RescoreAll re-scores every patient. Patients are independent, so the
// batch fans out with bounded concurrency; a single patient's failure
// aborts the batch and is reported to the caller.
func (s *Service) RescoreAll(ctx context.Context, th Thresholds) (int, error) {
	patients, err := s.repo.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("list patients: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(rescoreConcurrency)
	for _, p := range patients {
		p := p
		g.Go(func() error {
			_, err := s.Rescore(ctx, p.ID, th)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return len(patients), nil
}

// ReturnToActive is the manual reactivation transition: it forces ACTIVE
// from any state, including terminal and exempt, and synthesizes a RETURNED
// daily status dated today so the aggregator sees the contact.
func (s *Service) ReturnToActive(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return fmt.Errorf("patient not found: %w", err)
	}
	if err := s.repo.UpdateEngagement(ctx, id, EngagementActive, nil); err != nil {
		return fmt.Errorf("update engagement: %w", err)
	}

	today := dateutil.Today(s.now())
	returned := &admission.DailyStatus{
		PatientID: id,
		Date:      today,
		Kind:      admission.StatusReturned,
	}
	if err := s.statuses.UpsertStatus(ctx, returned); err != nil {
		return fmt.Errorf("record returned status: %w", err)
	}
	s.logger.Info().Str("patient_id", id.String()).Msg("patient returned to active")
	return nil
}

// SetTerminal marks a patient terminal with the given reason. This is an
// explicit staff action; the automatic ladder never enters this state.
func (s *Service) SetTerminal(ctx context.Context, id uuid.UUID, reason TerminalReason) error {
	if !ValidTerminalReasons[reason] {
		return fmt.Errorf("invalid terminal reason: %s", reason)
	}
	return s.repo.UpdateEngagement(ctx, id, EngagementTerminal, &reason)
}

// SetExempt excludes a patient from automatic scoring.
func (s *Service) SetExempt(ctx context.Context, id uuid.UUID) error {
	return s.repo.UpdateEngagement(ctx, id, EngagementExempt, nil)
}
