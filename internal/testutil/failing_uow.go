package testutil

import (
	"context"
	"database/sql"
	"sync/atomic"

	"github.com/alexanderramin/earnclock/internal/db"
)

// FailOnNthExecUoW fails the FailOn-th write (counting from 1) of each
// transaction with Err, so a rollback test can break a multi-write
// operation at an exact step, such as right after a prior session was
// auto-closed. Reads are not counted.
type FailOnNthExecUoW struct {
	DB     *sql.DB
	FailOn int32
	Err    error
}

func (u *FailOnNthExecUoW) WithinTx(ctx context.Context, fn func(ctx context.Context, tx db.DBTX) error) error {
	return db.RunTx(ctx, u.DB, func(tx db.DBTX) db.DBTX {
		return &failingExec{DBTX: tx, failOn: u.FailOn, err: u.Err}
	}, fn)
}

type failingExec struct {
	db.DBTX
	writes atomic.Int32
	failOn int32
	err    error
}

func (f *failingExec) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if f.writes.Add(1) == f.failOn {
		return nil, f.err
	}
	return f.DBTX.ExecContext(ctx, query, args...)
}
