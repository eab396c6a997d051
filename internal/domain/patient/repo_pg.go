package patient

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

const patientCols = `id, name, chart_no, phone,
	to_char(intake_date, 'YYYY-MM-DD'), to_char(consult_date, 'YYYY-MM-DD'),
	engagement_status, terminal_reason, payment_amount,
	registered_at, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO patient (id, name, chart_no, phone, intake_date, consult_date,
			engagement_status, terminal_reason, payment_amount, registered_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		p.ID, p.Name, p.ChartNo, p.Phone, p.IntakeDate, p.ConsultDate,
		p.EngagementStatus, p.TerminalReason, p.PaymentAmount, p.RegisteredAt,
	)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return scanPatient(r.conn(ctx).QueryRow(ctx,
		`SELECT `+patientCols+` FROM patient WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, p *Patient) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE patient SET
			name=$2, chart_no=$3, phone=$4, intake_date=$5, consult_date=$6,
			updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.Name, p.ChartNo, p.Phone, p.IntakeDate, p.ConsultDate,
	)
	return err
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM patient WHERE id = $1`, id)
	return err
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM patient`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+patientCols+` FROM patient ORDER BY name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectPatients(rows, total)
}

func (r *repoPG) ListAll(ctx context.Context) ([]*Patient, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+patientCols+` FROM patient ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	patients, _, err := collectPatients(rows, 0)
	return patients, err
}

func (r *repoPG) Search(ctx context.Context, query string, limit, offset int) ([]*Patient, int, error) {
	pattern := "%" + query + "%"
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM patient WHERE name ILIKE $1 OR chart_no ILIKE $1`, pattern).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+patientCols+` FROM patient
		WHERE name ILIKE $1 OR chart_no ILIKE $1
		ORDER BY name LIMIT $2 OFFSET $3`, pattern, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectPatients(rows, total)
}

func (r *repoPG) UpdateEngagement(ctx context.Context, id uuid.UUID, status EngagementStatus, reason *TerminalReason) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE patient SET engagement_status=$2, terminal_reason=$3, updated_at=NOW()
		WHERE id = $1`, id, status, reason)
	return err
}

func (r *repoPG) UpdatePaymentAmount(ctx context.Context, id uuid.UUID, amount int64) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE patient SET payment_amount=$2, updated_at=NOW()
		WHERE id = $1`, id, amount)
	return err
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.Name, &p.ChartNo, &p.Phone, &p.IntakeDate, &p.ConsultDate,
		&p.EngagementStatus, &p.TerminalReason, &p.PaymentAmount,
		&p.RegisteredAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func collectPatients(rows pgx.Rows, total int) ([]*Patient, int, error) {
	var patients []*Patient
	for rows.Next() {
		var p Patient
		err := rows.Scan(&p.ID, &p.Name, &p.ChartNo, &p.Phone, &p.IntakeDate, &p.ConsultDate,
			&p.EngagementStatus, &p.TerminalReason, &p.PaymentAmount,
			&p.RegisteredAt, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return nil, 0, err
		}
		patients = append(patients, &p)
	}
	return patients, total, rows.Err()
}
