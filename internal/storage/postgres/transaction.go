package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// analysisTxKey carries the open transaction of one persist cycle through
// the context, so the comment and run stores join it transparently.
type analysisTxKey struct{}

type TransactionManager struct {
	db *sqlx.DB
}

func NewTransactionManager(db *sqlx.DB) *TransactionManager {
	return &TransactionManager{db: db}
}

// WithTransaction runs fn inside a single transaction. A session's comment
// upsert and run insert commit or roll back together; a partial write would
// leave the run log claiming counts the comments table does not hold.
func (tm *TransactionManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := tm.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	if err := fn(context.WithValue(ctx, analysisTxKey{}, tx)); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

// executor returns the transaction carried by the context, or the bare
// connection when the call is not transactional.
func executor(ctx context.Context, db *sqlx.DB) sqlx.ExtContext {
	if tx, ok := ctx.Value(analysisTxKey{}).(*sqlx.Tx); ok {
		return tx
	}
	return db
}
