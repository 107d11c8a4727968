package dbx

import (
	"context"
	"database/sql"
)

// Transactor runs repository work against a shared *sql.DB, either as a
// single retried statement (Do) or as a retried transaction (InTx). Each
// attempt acquires its own connection from the pool.
type Transactor struct {
	db     *sql.DB
	query  *Retrier
	tx     *Retrier
	txOpts *sql.TxOptions
}

// SerializableTx is the option set for transactions whose reads must not
// be invalidated by concurrent commits.
var SerializableTx = &sql.TxOptions{Isolation: sql.LevelSerializable}

func NewTransactor(db *sql.DB, query, tx *Retrier) *Transactor {
	return &Transactor{db: db, query: query, tx: tx}
}

// WithTxOptions sets the options used to begin every transaction, e.g. a
// stricter isolation level.
func (t *Transactor) WithTxOptions(opts *sql.TxOptions) *Transactor {
	tmp := *t
	tmp.txOpts = opts
	return &tmp
}

// Do runs fn against the pool, retrying per the query policy.
func Do[T any](ctx context.Context, t *Transactor, fn func(ctx context.Context, db DBTX) (T, error)) (T, error) {
	return Retry(ctx, t.query, func(ctx context.Context) (T, error) {
		return fn(ctx, t.db)
	})
}

// InTx runs fn inside a transaction and retries the whole transaction per the
// transaction policy. A failed attempt is rolled back before it is
// classified, so every retry starts from a clean state.
func InTx[T any](ctx context.Context, t *Transactor, fn func(ctx context.Context, tx DBTX) (T, error)) (T, error) {
	return Retry(ctx, t.tx, func(ctx context.Context) (T, error) {
		var out T
		err := WithTx(ctx, t.db, t.txOpts, func(ctx context.Context, tx DBTX) error {
			var err error
			out, err = fn(ctx, tx)
			return err
		})
		if err != nil {
			var zero T
			return zero, err
		}
		return out, nil
	})
}
