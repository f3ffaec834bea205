package driver

import (
	"context"
)

// Result is a fully materialized query result. Values are whatever the SQL
// driver produced; typed access goes through query.Row.
type Result struct {
	Columns []string
	Rows    [][]any
}

type Warehouse interface {
	ExecuteQuery(ctx context.Context, query string, args ...any) (Result, error)
	Ping(ctx context.Context) error
	Close() error
}
