package repository

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v4"
)

type Tx interface{}

var NoTX interface{}

// TransactionManager runs fn inside a database transaction and hands the
// transaction to fn as tx. Repositories accept that handle, or NoTX for the
// pool, and lock rows (SELECT ... FOR UPDATE) only when they see a real tx.
//
// tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx Tx) error {
//	code, err := codes.ClaimByCode(ctx, tx, "ABCD-EFGH-JKMN")
//	...
//	return orders.Save(ctx, tx, order)
// })
//
// The concrete type of tx is infra-defined (pgx.Tx for Postgres). Side
// effects that must not be observed before commit, such as cache
// invalidation, are registered with AfterCommit.
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}

type commitHooksKey struct{}

type commitHooks struct {
	mu  sync.Mutex
	fns []func(ctx context.Context)
}

// WithCommitHooks returns a context that collects AfterCommit callbacks and
// a function that runs them in registration order. Transaction managers
// call run only after a successful commit; a rolled back transaction simply
// drops the collected callbacks.
func WithCommitHooks(ctx context.Context) (hooked context.Context, run func(ctx context.Context)) {
	h := &commitHooks{}
	run = func(ctx context.Context) {
		h.mu.Lock()
		fns := h.fns
		h.fns = nil
		h.mu.Unlock()
		for _, fn := range fns {
			fn(ctx)
		}
	}
	return context.WithValue(ctx, commitHooksKey{}, h), run
}

// AfterCommit defers fn until the transaction carried by ctx commits.
// Outside WithTx fn runs immediately.
func AfterCommit(ctx context.Context, fn func(ctx context.Context)) {
	h, ok := ctx.Value(commitHooksKey{}).(*commitHooks)
	if !ok {
		fn(ctx)
		return
	}
	h.mu.Lock()
	h.fns = append(h.fns, fn)
	h.mu.Unlock()
}
