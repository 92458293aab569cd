package db

import (
	"context"
	"database/sql"
	"fmt"
)

// UnitOfWork runs fn in one write transaction. Repositories built from the
// DBTX it receives see and write only that transaction.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx DBTX) error) error
}

// SQLiteUnitOfWork is the UnitOfWork over an OpenDB handle. The DSN makes
// every transaction BEGIN IMMEDIATE, so the write lock is held from the
// first read and two starts for one user serialize.
type SQLiteUnitOfWork struct {
	db *sql.DB
}

func NewSQLiteUnitOfWork(db *sql.DB) *SQLiteUnitOfWork {
	return &SQLiteUnitOfWork{db: db}
}

func (u *SQLiteUnitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context, tx DBTX) error) error {
	return RunTx(ctx, u.db, nil, fn)
}

// TxWrapper decorates the DBTX handed to a transaction body.
type TxWrapper func(DBTX) DBTX

// RunTx begins a transaction on conn and runs fn in it, rolling back when fn
// fails or panics. Hooks registered with AfterCommit run, in order, only
// after a successful commit. wrap may be nil.
func RunTx(ctx context.Context, conn *sql.DB, wrap TxWrapper, fn func(ctx context.Context, tx DBTX) error) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	var body DBTX = tx
	if wrap != nil {
		body = wrap(tx)
	}
	hooks := &commitHooks{}
	if err := fn(context.WithValue(ctx, commitHooksKey{}, hooks), body); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	for _, h := range hooks.fns {
		h(ctx)
	}
	return nil
}

type commitHooksKey struct{}

type commitHooks struct {
	fns []func(context.Context)
}

// AfterCommit defers fn until the transaction that owns ctx commits; a
// rollback discards it. fn gets the caller's context, not the transaction's.
// Outside a transaction fn runs immediately.
func AfterCommit(ctx context.Context, fn func(ctx context.Context)) {
	if hooks, ok := ctx.Value(commitHooksKey{}).(*commitHooks); ok {
		hooks.fns = append(hooks.fns, fn)
		return
	}
	fn(ctx)
}
