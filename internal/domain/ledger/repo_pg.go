package ledger

import (
	"context"
	"fmt"

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

const txCols = `id, patient_id, to_char(tx_date, 'YYYY-MM-DD'),
	to_char(date_from, 'YYYY-MM-DD'), to_char(date_to, 'YYYY-MM-DD'),
	kind, amount, count, note, created_at`

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Transaction, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+txCols+` FROM ledger_transaction WHERE patient_id = $1 ORDER BY tx_date, created_at`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTxs(rows)
}

func (r *repoPG) ListByPatientRange(ctx context.Context, patientID uuid.UUID, from, to string) ([]*Transaction, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+txCols+` FROM ledger_transaction
		WHERE patient_id = $1 AND tx_date >= $2 AND tx_date <= $3
		ORDER BY tx_date, created_at`, patientID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTxs(rows)
}

func (r *repoPG) InsertBatch(ctx context.Context, txs []*Transaction) error {
	if len(txs) == 0 {
		return nil
	}

	dbtx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer dbtx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, t := range txs {
		if t.ID == uuid.Nil {
			t.ID = uuid.New()
		}
		batch.Queue(`
			INSERT INTO ledger_transaction (id, patient_id, tx_date, date_from, date_to, kind, amount, count, note)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			t.ID, t.PatientID, t.Date, t.DateFrom, t.DateTo, t.Kind, t.Amount, t.Count, t.Note,
		)
	}

	results := dbtx.SendBatch(ctx, batch)
	for range txs {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("insert batch: %w", err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("close batch: %w", err)
	}
	return dbtx.Commit(ctx)
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM ledger_transaction WHERE id = $1`, id)
	return err
}

func (r *repoPG) GetBalance(ctx context.Context, patientID uuid.UUID) (*Balance, error) {
	var b Balance
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT patient_id, deposit_balance, reward_balance, count_balance, last_synced_at
		FROM ledger_balance WHERE patient_id = $1`, patientID).
		Scan(&b.PatientID, &b.Deposit, &b.Reward, &b.Count, &b.LastSyncedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *repoPG) UpsertBalance(ctx context.Context, b *Balance) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO ledger_balance (patient_id, deposit_balance, reward_balance, count_balance, last_synced_at)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (patient_id)
		DO UPDATE SET deposit_balance = EXCLUDED.deposit_balance,
			reward_balance = EXCLUDED.reward_balance,
			count_balance = EXCLUDED.count_balance,
			last_synced_at = EXCLUDED.last_synced_at`,
		b.PatientID, b.Deposit, b.Reward, b.Count, b.LastSyncedAt,
	)
	return err
}

func collectTxs(rows pgx.Rows) ([]*Transaction, error) {
	var txs []*Transaction
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(&t.ID, &t.PatientID, &t.Date, &t.DateFrom, &t.DateTo,
			&t.Kind, &t.Amount, &t.Count, &t.Note, &t.CreatedAt); err != nil {
			return nil, err
		}
		txs = append(txs, &t)
	}
	return txs, rows.Err()
}
