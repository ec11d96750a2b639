package postgres

import (
	"context"
	"fmt"
	"sync"

	"github.com/andreyxaxa/Resource-Service/pkg/types/errs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type txKey struct{}

type hooksKey struct{}

type Executor interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// commitHooks collects callbacks that must run only once the transaction is committed.
type commitHooks struct {
	mu  sync.Mutex
	fns []func()
}

func (h *commitHooks) add(fn func()) {
	h.mu.Lock()
	h.fns = append(h.fns, fn)
	h.mu.Unlock()
}

func (h *commitHooks) run() {
	h.mu.Lock()
	fns := h.fns
	h.fns = nil
	h.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

func (p *Postgres) GetExecutor(ctx context.Context) Executor {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return p.Pool
}

func (p *Postgres) InTransaction(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(pgx.Tx)

	return ok
}

// AfterCommit registers fn to run after the transaction carried by ctx commits.
// fn is dropped if the transaction rolls back.
func (p *Postgres) AfterCommit(ctx context.Context, fn func()) error {
	return registerAfterCommit(ctx, fn)
}

func registerAfterCommit(ctx context.Context, fn func()) error {
	hooks, ok := ctx.Value(hooksKey{}).(*commitHooks)
	if !ok {
		return fmt.Errorf("Postgres - AfterCommit: %w", errs.ErrNoTransaction)
	}

	hooks.add(fn)

	return nil
}

// 1) Begin Tx (или переиспользуем уже открытую);
// 2) Updates ctx -> context.WithValue(Tx) && func call;
// 3) err или panic = Tx.Rollback, ok = Tx.Commit;
// 4) ok -> after-commit hooks.
func (p *Postgres) WithinTransaction(ctx context.Context, f func(ctx context.Context) error) error {
	// вложенный вызов работает в рамках внешней транзакции
	if p.InTransaction(ctx) {
		return f(ctx)
	}

	tx, err := p.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("Postgres - WithinTransaction - p.Pool.Begin: %w", err)
	}

	// после Commit это no-op (pgx.ErrTxClosed)
	defer func() {
		_ = tx.Rollback(context.WithoutCancel(ctx))
	}()

	hooks := &commitHooks{}
	txCtx := context.WithValue(context.WithValue(ctx, txKey{}, tx), hooksKey{}, hooks)

	err = f(txCtx)
	if err != nil {
		return fmt.Errorf("Postgres - WithinTransaction: %w", err)
	}

	err = tx.Commit(ctx)
	if err != nil {
		return fmt.Errorf("Postgres - WithinTransaction - tx.Commit: %w", err)
	}

	hooks.run()

	return nil
}
