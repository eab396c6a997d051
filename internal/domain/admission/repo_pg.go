package admission

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicops/clinicops/internal/platform/db"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const cycleCols = `id, patient_id, to_char(admit_date, 'YYYY-MM-DD'),
	to_char(discharge_date, 'YYYY-MM-DD'), kind, status, created_at, updated_at`

func (r *repoPG) CreateCycle(ctx context.Context, c *Cycle) error {
	c.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO admission_cycle (id, patient_id, admit_date, discharge_date, kind, status)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		c.ID, c.PatientID, c.AdmitDate, c.DischargeDate, c.Kind, c.Status,
	)
	return err
}

func (r *repoPG) GetCycle(ctx context.Context, id uuid.UUID) (*Cycle, error) {
	return scanCycle(r.conn(ctx).QueryRow(ctx,
		`SELECT `+cycleCols+` FROM admission_cycle WHERE id = $1`, id))
}

func (r *repoPG) UpdateCycle(ctx context.Context, c *Cycle) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE admission_cycle SET
			admit_date=$2, discharge_date=$3, kind=$4, status=$5, updated_at=NOW()
		WHERE id = $1`,
		c.ID, c.AdmitDate, c.DischargeDate, c.Kind, c.Status,
	)
	return err
}

func (r *repoPG) DeleteCycle(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM admission_cycle WHERE id = $1`, id)
	return err
}

func (r *repoPG) ListCyclesByPatient(ctx context.Context, patientID uuid.UUID) ([]*Cycle, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+cycleCols+` FROM admission_cycle WHERE patient_id = $1 ORDER BY admit_date`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cycles []*Cycle
	for rows.Next() {
		c, err := scanCycle(rows)
		if err != nil {
			return nil, err
		}
		cycles = append(cycles, c)
	}
	return cycles, rows.Err()
}

const statusCols = `id, patient_id, to_char(status_date, 'YYYY-MM-DD'), kind, notes, created_at, updated_at`

func (r *repoPG) UpsertStatus(ctx context.Context, s *DailyStatus) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO daily_status (id, patient_id, status_date, kind, notes)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (patient_id, status_date)
		DO UPDATE SET kind = EXCLUDED.kind, notes = EXCLUDED.notes, updated_at = NOW()`,
		s.ID, s.PatientID, s.Date, s.Kind, s.Notes,
	)
	return err
}

func (r *repoPG) DeleteStatus(ctx context.Context, patientID uuid.UUID, date string) error {
	_, err := r.conn(ctx).Exec(ctx,
		`DELETE FROM daily_status WHERE patient_id = $1 AND status_date = $2`, patientID, date)
	return err
}

func (r *repoPG) ListStatusesByPatient(ctx context.Context, patientID uuid.UUID) ([]*DailyStatus, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+statusCols+` FROM daily_status WHERE patient_id = $1 ORDER BY status_date`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectStatuses(rows)
}

func (r *repoPG) ListStatusesByPatientRange(ctx context.Context, patientID uuid.UUID, from, to string) ([]*DailyStatus, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+statusCols+` FROM daily_status
		WHERE patient_id = $1 AND status_date >= $2 AND status_date <= $3
		ORDER BY status_date`, patientID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectStatuses(rows)
}

func scanCycle(row pgx.Row) (*Cycle, error) {
	var c Cycle
	err := row.Scan(&c.ID, &c.PatientID, &c.AdmitDate, &c.DischargeDate,
		&c.Kind, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func collectStatuses(rows pgx.Rows) ([]*DailyStatus, error) {
	var statuses []*DailyStatus
	for rows.Next() {
		var s DailyStatus
		if err := rows.Scan(&s.ID, &s.PatientID, &s.Date, &s.Kind, &s.Notes, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		statuses = append(statuses, &s)
	}
	return statuses, rows.Err()
}
