// Package dbx holds the database helpers shared by the vault repositories.
// Repositories accept a DBTX so the same code runs on a pool or inside a
// transaction opened by WithTx.
package dbx

import (
	"context"
	"database/sql"
)

// DBTX is implemented by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx runs fn inside a transaction. The transaction is committed when fn
// returns nil and rolled back when it fails or panics; a panic is rethrown
// after the rollback.
//
// A permission batch that must be all-or-nothing is run like this:
//
//	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
//	    setter, err := permissions.NewSetter(ctx, ...repositories bound to tx...)
//	    if err != nil {
//	        return err
//	    }
//	    if res := setter.StoreUserPermissions(ctx, ref, perms, false); len(res.Failed) > 0 {
//	        return errBatchFailed
//	    }
//	    return nil
//	})
func WithTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	err = fn(ctx, tx)
	return err
}
