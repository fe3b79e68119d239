package testutil

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/alexanderramin/budgetree/internal/db"
)

// FailOnNthExecUoW runs each transaction through a real SQLiteUnitOfWork but
// makes write number FailOn (counting from 1) fail with Err. Reads are not
// counted. Service tests use it to break an import or settlement halfway and
// assert nothing was persisted.
type FailOnNthExecUoW struct {
	DB     *sql.DB
	FailOn int32
	Err    error
}

func (u *FailOnNthExecUoW) WithinTx(ctx context.Context, fn func(ctx context.Context, tx db.DBTX) error) error {
	return db.NewSQLiteUnitOfWork(u.DB).WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return fn(ctx, &brokenWrites{DBTX: tx, failOn: u.FailOn, err: u.Err})
	})
}

type brokenWrites struct {
	db.DBTX
	writes int32
	failOn int32
	err    error
}

func (b *brokenWrites) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	b.writes++
	if b.writes == b.failOn {
		return nil, fmt.Errorf("write %d: %w", b.writes, b.err)
	}
	return b.DBTX.ExecContext(ctx, query, args...)
}
