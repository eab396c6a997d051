package patient

import (
	"context"

	"github.com/google/uuid"

	"github.com/clinicops/clinicops/internal/domain/admission"
)

type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*Patient, int, error)
	ListAll(ctx context.Context) ([]*Patient, error)
	Search(ctx context.Context, query string, limit, offset int) ([]*Patient, int, error)

	// UpdateEngagement mutates only the engagement fields; last-writer-wins.
	UpdateEngagement(ctx context.Context, id uuid.UUID, status EngagementStatus, reason *TerminalReason) error
	// UpdatePaymentAmount refreshes the cached deposit-inflow total.
	UpdatePaymentAmount(ctx context.Context, id uuid.UUID, amount int64) error
}

// StatusSource provides the daily status history the engagement scoring
// reads and receives the synthesized RETURNED record on reactivation. The
// admission repository satisfies it.
type StatusSource interface {
	ListStatusesByPatient(ctx context.Context, patientID uuid.UUID) ([]*admission.DailyStatus, error)
	UpsertStatus(ctx context.Context, s *admission.DailyStatus) error
}
