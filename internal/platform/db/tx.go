package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type contextKey string

const txKey contextKey = "db_tx"

// ConnFromContext retrieves the transaction bound to the context by WithTx,
// or nil when the caller is not inside a transaction. Repositories fall back
// to the pool in that case.
func ConnFromContext(ctx context.Context) pgx.Tx {
	tx, _ := ctx.Value(txKey).(pgx.Tx)
	return tx
}

// WithTx runs fn inside a single database transaction. The transaction is
// attached to the context passed to fn so every repository call inside fn
// shares it. The transaction commits when fn returns nil and rolls back
// otherwise.
func WithTx(ctx context.Context, pool *pgxpool.Pool, fn func(ctx context.Context) error) error {
	if ConnFromContext(ctx) != nil {
		// Already inside a transaction; join it.
		return fn(ctx)
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(context.WithValue(ctx, txKey, tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// AcquireAdvisoryLock takes a transaction-scoped advisory lock keyed by the
// given string. The lock is held until the surrounding transaction ends, so
// it must be called from inside WithTx. Concurrent transactions locking the
// same key serialize against each other.
func AcquireAdvisoryLock(ctx context.Context, key string) error {
	tx := ConnFromContext(ctx)
	if tx == nil {
		return fmt.Errorf("advisory lock requires a transaction")
	}
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key); err != nil {
		return fmt.Errorf("acquire advisory lock %q: %w", key, err)
	}
	return nil
}
