package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/clinicops/clinicops/pkg/dateutil"
)

// PatientSink receives the cached deposit-inflow total after each
// reconciliation. The patient repository satisfies it.
type PatientSink interface {
	UpdatePaymentAmount(ctx context.Context, id uuid.UUID, amount int64) error
}

// ReconcileResult reports what one reconciliation run did.
type ReconcileResult struct {
	Inserted   []*Transaction `json:"inserted"`
	Balance    Balance        `json:"balance"`
	Duplicates int            `json:"duplicates"`
	Malformed  int            `json:"malformed"`
}

type Service struct {
	repo     Repository
	patients PatientSink
	logger   zerolog.Logger
	now      func() time.Time

	// Reconciliations for one patient must not interleave: two concurrent
	// runs could both compute a dedup set before either insert lands. The
	// unique index on the dedup key backs this lock at the store level.
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func NewService(repo Repository, patients PatientSink, logger zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		patients: patients,
		logger:   logger,
		now:      time.Now,
		locks:    make(map[uuid.UUID]*sync.Mutex),
	}
}

// SetClock overrides the wall clock, for tests.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

func (s *Service) patientLock(id uuid.UUID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

// Reconcile merges an externally-sourced batch into the patient's ledger
// exactly once and recomputes the balance from the full transaction set.
// Any store failure aborts the run with prior state untouched; the caller
// owns retries.
func (s *Service) Reconcile(ctx context.Context, patientID uuid.UUID, incoming []RawItem) (*ReconcileResult, error) {
	lock := s.patientLock(patientID)
	lock.Lock()
	defer lock.Unlock()

	existing, err := s.repo.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}

	today := dateutil.Today(s.now())
	inserts, report := PrepareBatch(patientID, existing, incoming, today)
	if report.Duplicates > 0 || report.Malformed > 0 {
		s.logger.Info().
			Str("patient_id", patientID.String()).
			Int("duplicates", report.Duplicates).
			Int("malformed", report.Malformed).
			Msg("reconcile skipped items")
	}

	if err := s.repo.InsertBatch(ctx, inserts); err != nil {
		return nil, fmt.Errorf("insert batch: %w", err)
	}

	full := append(existing, inserts...)
	balance := ComputeBalance(patientID, full)
	balance.LastSyncedAt = s.now().UTC()
	if err := s.repo.UpsertBalance(ctx, &balance); err != nil {
		return nil, fmt.Errorf("persist balance: %w", err)
	}

	// The cached payment amount is the gross deposit inflow, not the net
	// balance; the statistics aggregator depends on exactly this value.
	if err := s.patients.UpdatePaymentAmount(ctx, patientID, DepositInTotal(full)); err != nil {
		return nil, fmt.Errorf("update payment amount: %w", err)
	}

	s.logger.Info().
		Str("patient_id", patientID.String()).
		Int("inserted", len(inserts)).
		Int64("deposit_balance", balance.Deposit).
		Msg("ledger reconciled")

	return &ReconcileResult{
		Inserted:   inserts,
		Balance:    balance,
		Duplicates: report.Duplicates,
		Malformed:  report.Malformed,
	}, nil
}

func (s *Service) ListTransactions(ctx context.Context, patientID uuid.UUID, from, to string) ([]*Transaction, error) {
	if from != "" && to != "" {
		f, err := dateutil.Normalize(from)
		if err != nil {
			return nil, fmt.Errorf("invalid from date: %w", err)
		}
		t, err := dateutil.Normalize(to)
		if err != nil {
			return nil, fmt.Errorf("invalid to date: %w", err)
		}
		return s.repo.ListByPatientRange(ctx, patientID, f, t)
	}
	return s.repo.ListByPatient(ctx, patientID)
}

// GetBalance returns the cached balance, recomputing from the log when no
// cache row exists yet.
func (s *Service) GetBalance(ctx context.Context, patientID uuid.UUID) (*Balance, error) {
	b, err := s.repo.GetBalance(ctx, patientID)
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	txs, err := s.repo.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	fresh := ComputeBalance(patientID, txs)
	return &fresh, nil
}

// DeleteTransaction removes a single row and refreshes the balance cache.
// Explicit admin action; the engine itself never deletes.
func (s *Service) DeleteTransaction(ctx context.Context, patientID, txID uuid.UUID) error {
	lock := s.patientLock(patientID)
	lock.Lock()
	defer lock.Unlock()

	if err := s.repo.Delete(ctx, txID); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	txs, err := s.repo.ListByPatient(ctx, patientID)
	if err != nil {
		return fmt.Errorf("load transactions: %w", err)
	}
	balance := ComputeBalance(patientID, txs)
	balance.LastSyncedAt = s.now().UTC()
	if err := s.repo.UpsertBalance(ctx, &balance); err != nil {
		return fmt.Errorf("persist balance: %w", err)
	}
	return s.patients.UpdatePaymentAmount(ctx, patientID, DepositInTotal(txs))
}
