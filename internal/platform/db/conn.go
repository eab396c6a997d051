package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type contextKey string

const (
	TxKey   contextKey = "db_tx"
	ConnKey contextKey = "db_conn"
)

// Querier is the subset of pgx query methods shared by pools, acquired
// connections and transactions. Repositories run all statements through it
// so the same code works inside and outside a transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Conn resolves the querier for the current context: an open transaction
// wins, then a pinned connection, then the pool itself.
func Conn(ctx context.Context, pool *pgxpool.Pool) Querier {
	if tx := TxFromContext(ctx); tx != nil {
		return tx
	}
	if conn := ConnFromContext(ctx); conn != nil {
		return conn
	}
	return pool
}

// TxFromContext retrieves the active transaction from context, if any.
func TxFromContext(ctx context.Context) pgx.Tx {
	tx, _ := ctx.Value(TxKey).(pgx.Tx)
	return tx
}

// ConnFromContext retrieves a pinned connection from context, if any.
func ConnFromContext(ctx context.Context) *pgxpool.Conn {
	conn, _ := ctx.Value(ConnKey).(*pgxpool.Conn)
	return conn
}

// WithTx runs fn inside a transaction carried through the context, so every
// repository call in fn shares it. The transaction commits when fn returns
// nil and rolls back otherwise.
func WithTx(ctx context.Context, pool *pgxpool.Pool, fn func(ctx context.Context) error) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(context.WithValue(ctx, TxKey, tx)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
