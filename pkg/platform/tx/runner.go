package tx

import (
	"context"
	"database/sql"
	"fmt"
)

// Runner executes a function inside a storage transaction. Services depend on
// this interface so multi-store writes (domain row + activity outbox) commit
// or roll back together.
type Runner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// SQLRunner runs the callback inside a database/sql transaction carried via
// context. Stores pick the transaction up with From and join it.
type SQLRunner struct {
	db *sql.DB
}

// NewSQLRunner constructs a Runner over the given database handle.
func NewSQLRunner(db *sql.DB) *SQLRunner {
	return &SQLRunner{db: db}
}

// RunInTx begins a transaction, stores it in the context and invokes fn.
// A nested call joins the transaction already in the context instead of
// opening a second one; the outermost caller commits.
func (r *SQLRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := From(ctx); ok {
		return fn(ctx)
	}

	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = dbTx.Rollback()
	}()

	if err := fn(WithTx(ctx, dbTx)); err != nil {
		return err
	}
	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// NoopRunner satisfies Runner without transactional semantics. Used with
// memory-backed stores, whose per-entry locks provide the atomicity.
type NoopRunner struct{}

// NewNoopRunner constructs a pass-through Runner.
func NewNoopRunner() NoopRunner { return NoopRunner{} }

func (NoopRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
