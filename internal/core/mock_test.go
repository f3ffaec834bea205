package core

import (
	"context"
	"strings"
	"sync"
	"testing/fstest"

	"github.com/agenthands/tydrodash/internal/driver"
	"github.com/agenthands/tydrodash/internal/query"
)

// MockWarehouse answers by template: each canned template body is
// "-- <name>" followed by the SQL, and results are keyed by <name>.
type MockWarehouse struct {
	mu       sync.Mutex
	Results  map[string]driver.Result
	Errs     map[string]error
	Executed []string
}

func (m *MockWarehouse) ExecuteQuery(ctx context.Context, q string, args ...any) (driver.Result, error) {
	name := strings.TrimPrefix(strings.SplitN(q, "\n", 2)[0], "-- ")

	m.mu.Lock()
	defer m.mu.Unlock()
	m.Executed = append(m.Executed, q)
	if err := m.Errs[name]; err != nil {
		return driver.Result{}, err
	}
	if res, ok := m.Results[name]; ok {
		return res, nil
	}
	return driver.Result{Columns: templateColumns[name], Rows: [][]any{}}, nil
}

func (m *MockWarehouse) Ping(ctx context.Context) error { return nil }

func (m *MockWarehouse) Close() error { return nil }

// templateColumns is the layout each template reports when it matches nothing.
var templateColumns = map[string][]string{
	"total-borrow":                      {"total_transactions", "total_users", "total_volume_usd", "avg_amount_usd", "median_amount_usd", "max_amount_usd"},
	"total-supply":                      {"total_transactions", "total_users", "total_volume_usd", "avg_amount_usd", "median_amount_usd", "max_amount_usd"},
	"overtime":                          {"date", "event_name", "transactions", "users", "volume_usd", "average_amount_usd", "median_amount_usd", "max_amount_usd"},
	"deposit-size-distribution":         {"deposit_size_range", "deposit_count", "total_deposit_usd", "min_amount_usd", "max_amount_usd"},
	"inflows-outflows-by-token":         {"event_name", "symbol", "volume", "volume_usd", "average_amount", "average_amount_usd"},
	"total-bridge":                      {"total_borrowed_volume_of_tydro", "total_bridged_out_volume", "borrowed_vs_bridged_out"},
	"bridge-inflows-outflows-by-chain":  {"direction", "chain", "transactions", "volume_usd", "average_amount_usd"},
	"bridge-inflows-outflows-by-token":  {"direction", "symbol", "transactions", "volume_usd", "average_amount_usd"},
	"cex-to-ink-inflow-volume-by-chain": {"label", "volume_usd"},
	"user-behavior-before-and-after-tydro-interaction": {"action_type", "event_name", "users"},
}

var templateNames = []string{
	"total-borrow",
	"total-supply",
	"overtime",
	"deposit-size-distribution",
	"inflows-outflows-by-token",
	"total-bridge",
	"bridge-inflows-outflows-by-chain",
	"bridge-inflows-outflows-by-token",
	"cex-to-ink-inflow-volume-by-chain",
	"user-behavior-before-and-after-tydro-interaction",
}

func mockTemplates(skip ...string) *query.Templates {
	fsys := fstest.MapFS{}
	for _, name := range templateNames {
		skipped := false
		for _, s := range skip {
			if s == name {
				skipped = true
			}
		}
		if skipped {
			continue
		}
		fsys[name+".sql"] = &fstest.MapFile{Data: []byte("-- " + name + "\nSELECT * FROM t WHERE {condition} GROUP BY {period}")}
	}
	return query.NewTemplates(fsys)
}
