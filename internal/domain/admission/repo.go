package admission

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// Cycles
	CreateCycle(ctx context.Context, c *Cycle) error
	GetCycle(ctx context.Context, id uuid.UUID) (*Cycle, error)
	UpdateCycle(ctx context.Context, c *Cycle) error
	DeleteCycle(ctx context.Context, id uuid.UUID) error
	ListCyclesByPatient(ctx context.Context, patientID uuid.UUID) ([]*Cycle, error)

	// Daily statuses
	UpsertStatus(ctx context.Context, s *DailyStatus) error
	DeleteStatus(ctx context.Context, patientID uuid.UUID, date string) error
	ListStatusesByPatient(ctx context.Context, patientID uuid.UUID) ([]*DailyStatus, error)
	ListStatusesByPatientRange(ctx context.Context, patientID uuid.UUID, from, to string) ([]*DailyStatus, error)
}
