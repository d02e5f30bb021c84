// Package dbtx abstracts over *sql.DB and *sql.Tx so repositories run the
// same statements on the pooled connection or inside a named transaction.
package dbtx

import (
	"context"
	"database/sql"
)

// Executor is the subset of database/sql shared by *sql.DB and *sql.Tx.
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var (
	_ Executor = (*sql.DB)(nil)
	_ Executor = (*sql.Tx)(nil)
)

// GetExecutor returns the transaction when one is active, the pooled
// connection otherwise.
//
//nolint:ireturn
func GetExecutor(tx *sql.Tx, db *sql.DB) Executor {
	if tx != nil {
		return tx
	}

	return db
}
