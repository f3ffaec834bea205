package query

import (
	"context"

	"github.com/agenthands/tydrodash/internal/driver"
)

type MockWarehouse struct {
	QueryExecuted string
	QueryArgs     []any
	MockResult    driver.Result
	Err           error
	Panic         any
}

func (m *MockWarehouse) ExecuteQuery(ctx context.Context, query string, args ...any) (driver.Result, error) {
	m.QueryExecuted = query
	m.QueryArgs = args
	if m.Panic != nil {
		panic(m.Panic)
	}
	if m.Err != nil {
		return driver.Result{}, m.Err
	}
	return m.MockResult, nil
}

func (m *MockWarehouse) Ping(ctx context.Context) error {
	return m.Err
}

func (m *MockWarehouse) Close() error {
	return nil
}
