package core

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/agenthands/tydrodash/internal/config"
	"github.com/agenthands/tydrodash/internal/core/flow"
	"github.com/agenthands/tydrodash/internal/core/model"
	"github.com/agenthands/tydrodash/internal/core/report"
	"github.com/agenthands/tydrodash/internal/driver"
	"github.com/agenthands/tydrodash/internal/query"
)

var userFlowTemplate = "user-behavior-before-and-after-tydro-interaction"

func userFlowResult(rows ...[]any) driver.Result {
	return driver.Result{Columns: []string{"ACTION_TYPE", "EVENT_NAME", "USERS"}, Rows: rows}
}

func newTestDashboard(w driver.Warehouse, templates *query.Templates) *Dashboard {
	d := NewDashboard(w, templates, config.Default(), nil)
	d.UUIDGenerator = func() string { return "req-1" }
	return d
}

func defaultOptions() Options {
	return Options{Filter: report.Filter{Range: report.AllTime, Granularity: report.Day}}
}

func TestRun_UnknownReport(t *testing.T) {
	d := newTestDashboard(&MockWarehouse{}, mockTemplates())

	_, err := d.Run(context.Background(), "nope", defaultOptions())

	assert.True(t, errors.Is(err, ErrUnknownReport))
}

func TestRun_NoData(t *testing.T) {
	d := newTestDashboard(&MockWarehouse{}, mockTemplates())

	rep, err := d.Run(context.Background(), "cex-inflow", defaultOptions())

	require.NoError(t, err)
	require.NotNil(t, rep.Notice)
	assert.Equal(t, model.CodeNoData, rep.Notice.Code)
	assert.Equal(t, model.LevelInfo, rep.Notice.Level)
	assert.Equal(t, "No CEX -> Ink inflow data returned by the query.", rep.Notice.Message)
	assert.True(t, rep.Empty())
}

func TestRun_SubstitutesFilter(t *testing.T) {
	mock := &MockWarehouse{}
	d := newTestDashboard(mock, mockTemplates())

	opts := Options{Filter: report.Filter{Range: report.PastWeek, Granularity: report.Month}}
	_, err := d.Run(context.Background(), "overtime", opts)

	require.NoError(t, err)
	require.Len(t, mock.Executed, 1)
	assert.Contains(t, mock.Executed[0], "interval '7 day'")
	assert.Contains(t, mock.Executed[0], "GROUP BY month")
	assert.NotContains(t, mock.Executed[0], "{")
}

func TestRun_QueryFailed(t *testing.T) {
	mock := &MockWarehouse{Errs: map[string]error{"overtime": errors.New("warehouse unreachable")}}
	d := newTestDashboard(mock, mockTemplates())

	rep, err := d.Run(context.Background(), "overtime", defaultOptions())

	require.NoError(t, err)
	require.NotNil(t, rep.Notice)
	assert.Equal(t, model.CodeQueryFailed, rep.Notice.Code)
	assert.Equal(t, model.LevelError, rep.Notice.Level)
	assert.Contains(t, rep.Notice.Message, "warehouse unreachable")
	assert.Empty(t, rep.Series)
}

func TestRun_TemplateNotFound(t *testing.T) {
	mock := &MockWarehouse{}
	d := newTestDashboard(mock, mockTemplates("total-bridge"))

	rep, err := d.Run(context.Background(), "bridge-totals", defaultOptions())

	require.NoError(t, err)
	require.NotNil(t, rep.Notice)
	assert.Equal(t, model.CodeTemplateNotFound, rep.Notice.Code)
	assert.Contains(t, rep.Notice.Message, "total-bridge.sql")
	assert.Empty(t, mock.Executed)
}

func TestRun_SchemaMismatch(t *testing.T) {
	mock := &MockWarehouse{Results: map[string]driver.Result{
		"cex-to-ink-inflow-volume-by-chain": {Columns: []string{"exchange", "usd"}, Rows: [][]any{{"Kraken", 10.0}}},
	}}
	d := newTestDashboard(mock, mockTemplates())

	rep, err := d.Run(context.Background(), "cex-inflow", defaultOptions())

	require.NoError(t, err)
	require.NotNil(t, rep.Notice)
	assert.Equal(t, model.CodeSchemaMismatch, rep.Notice.Code)
	assert.Empty(t, rep.Slices)
}

func TestRun_TotalsOneSideEmpty(t *testing.T) {
	mock := &MockWarehouse{Results: map[string]driver.Result{
		"total-borrow": {
			Columns: []string{"total_transactions", "total_users", "total_volume_usd", "avg_amount_usd", "median_amount_usd", "max_amount_usd"},
			Rows:    [][]any{{int64(12), int64(5), "1,250.50", 10.0, 9.0, 400.0}},
		},
	}}
	d := newTestDashboard(mock, mockTemplates())

	rep, err := d.Run(context.Background(), "totals", defaultOptions())

	require.NoError(t, err)
	require.Len(t, rep.Metrics, 3)
	assert.Equal(t, "Borrow Transactions", rep.Metrics[0].Label)
	assert.Equal(t, 12.0, rep.Metrics[0].Value)
	assert.Equal(t, 1250.5, rep.Metrics[2].Value)
	require.NotNil(t, rep.Notice)
	assert.Equal(t, model.CodeNoData, rep.Notice.Code)
	assert.Contains(t, rep.Notice.Message, "supply")
}

func TestRun_UserFlowEstimated(t *testing.T) {
	mock := &MockWarehouse{Results: map[string]driver.Result{
		userFlowTemplate: userFlowResult(
			[]any{"before", "swap", int64(100)},
			[]any{"after", "swap", int64(60)},
			[]any{"after", "bridge", int64(40)},
		),
	}}
	d := newTestDashboard(mock, mockTemplates())

	rep, err := d.Run(context.Background(), "user-flow", defaultOptions())

	require.NoError(t, err)
	assert.Nil(t, rep.Notice)
	assert.Equal(t, model.KindSankey, rep.Kind)
	assert.Equal(t, "before", rep.FlowMode)
	require.NotNil(t, rep.Flow)
	assert.Equal(t, []string{"Before: Swap", "After: Swap", "After: Bridge"}, rep.Flow.Labels)
	require.Len(t, rep.Flow.Links, 2)
	assert.InEpsilon(t, 60.0, rep.Flow.Links[0].Value, 1e-9)
	assert.InEpsilon(t, 40.0, rep.Flow.Links[1].Value, 1e-9)
}

func TestRun_UserFlowPreserveAfter(t *testing.T) {
	mock := &MockWarehouse{Results: map[string]driver.Result{
		userFlowTemplate: userFlowResult(
			[]any{"Before", "Supply", int64(30)},
			[]any{"Before", "Borrow", int64(10)},
			[]any{"After", "Repay", int64(80)},
		),
	}}
	d := newTestDashboard(mock, mockTemplates())

	opts := defaultOptions()
	opts.Mode = flow.PreserveAfter
	rep, err := d.Run(context.Background(), "user-flow", opts)

	require.NoError(t, err)
	require.NotNil(t, rep.Flow)
	assert.Equal(t, "after", rep.FlowMode)
	total := 0.0
	for _, l := range rep.Flow.Links {
		total += l.Value
	}
	assert.InEpsilon(t, 80.0, total, 1e-9)
}

func TestRun_UserFlowInsufficient(t *testing.T) {
	mock := &MockWarehouse{Results: map[string]driver.Result{
		userFlowTemplate: userFlowResult([]any{"Before", "Swap", int64(100)}),
	}}
	d := newTestDashboard(mock, mockTemplates())

	rep, err := d.Run(context.Background(), "user-flow", defaultOptions())

	require.NoError(t, err)
	assert.Nil(t, rep.Flow)
	assert.Equal(t, model.KindComparison, rep.Kind)
	require.NotNil(t, rep.Notice)
	assert.Equal(t, model.CodeInsufficient, rep.Notice.Code)
	assert.Contains(t, rep.Notice.Message, "After data is missing")
	assert.Equal(t, []flow.ComparisonRow{{Label: "Swap", Before: 100, After: 0}}, rep.Comparison)
}

func TestRun_UserFlowDegenerate(t *testing.T) {
	mock := &MockWarehouse{Results: map[string]driver.Result{
		userFlowTemplate: userFlowResult(
			[]any{"Before", "Swap", int64(100)},
			[]any{"After", "Swap", int64(0)},
		),
	}}
	d := newTestDashboard(mock, mockTemplates())

	rep, err := d.Run(context.Background(), "user-flow", defaultOptions())

	require.NoError(t, err)
	assert.Nil(t, rep.Flow)
	require.NotNil(t, rep.Notice)
	assert.Equal(t, model.CodeDegenerate, rep.Notice.Code)
	assert.Equal(t, model.LevelError, rep.Notice.Level)
	assert.Contains(t, rep.Notice.Message, "After total is 0")
}

func TestRunAll_KeepsCatalogueOrder(t *testing.T) {
	mock := &MockWarehouse{
		Errs: map[string]error{"overtime": errors.New("boom")},
		Results: map[string]driver.Result{
			userFlowTemplate: userFlowResult(
				[]any{"Before", "Swap", int64(10)},
				[]any{"After", "Swap", int64(10)},
			),
		},
	}
	d := newTestDashboard(mock, mockTemplates())
	d.Concurrency = 3

	reports := d.RunAll(context.Background(), defaultOptions())

	require.Len(t, reports, len(report.Names()))
	for i, name := range report.Names() {
		assert.Equal(t, name, reports[i].Name)
	}
	byName := make(map[string]model.Report)
	for _, r := range reports {
		byName[r.Name] = r
	}
	assert.Equal(t, model.CodeQueryFailed, byName["overtime"].Notice.Code)
	assert.Equal(t, model.CodeNoData, byName["cex-inflow"].Notice.Code)
	assert.NotNil(t, byName["user-flow"].Flow)
	assert.Len(t, mock.Executed, len(templateNames))
}

func TestRunAll_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	path := filepath.Join(t.TempDir(), "warehouse.db")
	db, err := sql.Open("sqlite", "file:"+path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	d := newTestDashboard(driver.NewSQLWarehouse(db, config.DriverSQLite, nil), mockTemplates())
	reports := d.RunAll(ctx, defaultOptions())

	for _, r := range reports {
		require.NotNil(t, r.Notice, r.Name)
		assert.Equal(t, model.CodeQueryFailed, r.Notice.Code, r.Name)
	}
}

func TestDashboard_SQLiteEndToEnd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "warehouse.db")
	db, err := sql.Open("sqlite", "file:"+path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`CREATE TABLE activity (action_type TEXT, event_name TEXT, users INTEGER, day TEXT)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO activity VALUES
		('Before', 'swap', 200, '2025-01-01'),
		('Before', 'bridge', 50, '2025-01-01'),
		('After', 'swap', 100, '2025-01-02'),
		('After', 'supply', 150, '2025-01-02')`)
	require.NoError(t, err)

	templates := query.NewTemplates(fstest.MapFS{
		userFlowTemplate + ".sql": &fstest.MapFile{Data: []byte(
			"SELECT action_type, event_name, SUM(users) AS users FROM activity WHERE {condition} " +
				"GROUP BY action_type, event_name ORDER BY action_type DESC, users DESC")},
	})

	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)
	d := NewDashboard(driver.NewSQLWarehouse(db, config.DriverSQLite, nil), templates, config.Default(), logrus.NewEntry(logger))

	rep, err := d.Run(context.Background(), "user-flow", defaultOptions())

	require.NoError(t, err)
	require.Nil(t, rep.Notice)
	require.NotNil(t, rep.Flow)
	assert.Equal(t, []string{"Before: Swap", "Before: Bridge", "After: Supply", "After: Swap"}, rep.Flow.Labels)
	require.Len(t, rep.Flow.Links, 4)
	assert.InEpsilon(t, 120.0, rep.Flow.Links[0].Value, 1e-9)
	assert.Equal(t, 0, db.Stats().InUse)

	missing, err := d.Run(context.Background(), "overtime", defaultOptions())
	require.NoError(t, err)
	assert.Equal(t, model.CodeTemplateNotFound, missing.Notice.Code)
	assert.True(t, strings.HasPrefix(missing.Title, "Transactions"))
}
