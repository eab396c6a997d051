package db

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
)

func TestTxFromContext_Empty(t *testing.T) {
	if tx := TxFromContext(context.Background()); tx != nil {
		t.Errorf("expected nil transaction from empty context, got %v", tx)
	}
}

func TestConnFromContext_Empty(t *testing.T) {
	if conn := ConnFromContext(context.Background()); conn != nil {
		t.Errorf("expected nil connection from empty context, got %v", conn)
	}
}

func TestConn_FallsBackToPool(t *testing.T) {
	var pool *pgxpool.Pool
	q := Conn(context.Background(), pool)
	if q != Querier(pool) {
		t.Error("expected pool when context carries no transaction or connection")
	}
}

func TestConn_PrefersPinnedConnOverPool(t *testing.T) {
	var pool *pgxpool.Pool
	conn := &pgxpool.Conn{}
	ctx := context.WithValue(context.Background(), ConnKey, conn)
	if q := Conn(ctx, pool); q != Querier(conn) {
		t.Error("expected pinned connection from context")
	}
}
