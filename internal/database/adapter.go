package database

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// Queries are written with ? bindvars and rebound per driver via
// sqlx.Rebind. The one behavior that cannot be rebound away is
// INSERT ... RETURNING: PostgreSQL returns the id from the statement,
// MySQL and SQLite report it through LastInsertId. The adapter hides
// that split. sqlx.ExtContext is satisfied by both *sqlx.DB and
// *sqlx.Tx, so every helper works inside or outside a transaction.

// InsertReturningID inserts a row and returns its generated id. The
// query must be written without a RETURNING clause; the adapter appends
// one for PostgreSQL.
func InsertReturningID(ctx context.Context, ext sqlx.ExtContext, driver, query string, args ...interface{}) (int64, error) {
	if driver == "postgres" {
		var id int64
		q := ext.Rebind(query + " RETURNING id")
		if err := sqlx.GetContext(ctx, ext, &id, q, args...); err != nil {
			return 0, err
		}
		return id, nil
	}
	res, err := ext.ExecContext(ctx, ext.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ExecAffected executes a rebound statement and reports how many rows
// changed. Repositories use the count to distinguish not-found from
// success on UPDATE and DELETE.
func ExecAffected(ctx context.Context, ext sqlx.ExtContext, query string, args ...interface{}) (int64, error) {
	res, err := ext.ExecContext(ctx, ext.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
