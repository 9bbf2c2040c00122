package dbutil

import (
	"context"
	"database/sql"
	"fmt"
)

// Tx remembers whether it has been finished, so a deferred MaybeRollback
// is harmless after Commit.
type Tx struct {
	tx *sql.Tx
}

func NewTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions) (*Tx, error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &Tx{tx: tx}, nil
}

func (tt *Tx) MaybeRollback() {
	if tt.tx != nil {
		tt.tx.Rollback()
		tt.tx = nil
	}
}

func (tt *Tx) Commit() error {
	if tt.tx == nil {
		return sql.ErrTxDone
	}
	err := tt.tx.Commit()
	tt.tx = nil
	return err
}

func (tt *Tx) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return tt.tx.QueryRowContext(ctx, query, args...)
}

func (tt *Tx) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return tt.tx.ExecContext(ctx, query, args...)
}

// InTx runs fn in a transaction and commits if fn succeeds.
func InTx(ctx context.Context, db *sql.DB, fn func(*Tx) error) error {
	tx, err := NewTx(ctx, db, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.MaybeRollback()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}
