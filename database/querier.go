package database

import "database/sql"

// querier abstracts *sql.DB and *sql.Tx so handler operations can run either
// directly against the pool or inside a caller-managed transaction.
type querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}
