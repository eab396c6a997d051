package ledger

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Transaction, error)
	ListByPatientRange(ctx context.Context, patientID uuid.UUID, from, to string) ([]*Transaction, error)
	// InsertBatch writes all rows in one transaction; partial failure
	// surfaces as total failure with nothing committed.
	InsertBatch(ctx context.Context, txs []*Transaction) error
	Delete(ctx context.Context, id uuid.UUID) error

	GetBalance(ctx context.Context, patientID uuid.UUID) (*Balance, error)
	UpsertBalance(ctx context.Context, b *Balance) error
}
