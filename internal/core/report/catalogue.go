// Package report defines the dashboard's reports: which templates each one
// runs, the column layout it expects back, and how rows become chart data.
package report

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/agenthands/tydrodash/internal/core/flow"
	"github.com/agenthands/tydrodash/internal/core/model"
	"github.com/agenthands/tydrodash/internal/query"
)

type Query struct {
	Template string
	Schema   *query.Schema
}

// Env is what a report's Build step may use besides its rows.
type Env struct {
	Filter    Filter
	Mode      flow.Mode
	Estimator *flow.Estimator
	Logger    *logrus.Entry
}

func (e Env) log() *logrus.Entry {
	if e.Logger == nil {
		return logrus.NewEntry(logrus.StandardLogger())
	}
	return e.Logger
}

// BuildFunc turns one row set per Query (same order) into chart data. base
// has Name, Title and Kind filled in.
type BuildFunc func(ctx context.Context, env Env, base model.Report, results [][]query.Row) model.Report

type Definition struct {
	Name         string
	Title        string
	Kind         model.Kind
	Queries      []Query
	EmptyMessage string
	Build        BuildFunc
}

var catalogue = []Definition{
	{
		Name:         "totals",
		Title:        "Tydro Totals",
		Kind:         model.KindMetrics,
		Queries:      []Query{{"total-borrow", totalsSchema("total-borrow")}, {"total-supply", totalsSchema("total-supply")}},
		EmptyMessage: "No borrow/supply totals returned by the query.",
		Build:        buildTotals,
	},
	{
		Name:         "overtime",
		Title:        "Transactions, Users and Volume per Event",
		Kind:         model.KindTimeSeries,
		Queries:      []Query{{"overtime", overtimeSchema}},
		EmptyMessage: "No historical data returned by the query.",
		Build:        buildOvertime,
	},
	{
		Name:         "deposit-size-distribution",
		Title:        "Deposit Size Distribution: Volume per Bucket",
		Kind:         model.KindHistogram,
		Queries:      []Query{{"deposit-size-distribution", depositSchema}},
		EmptyMessage: "No deposit size data available.",
		Build:        buildDepositDistribution,
	},
	{
		Name:         "tydro-by-token",
		Title:        "Tydro Inflow/Outflow Volume by Token",
		Kind:         model.KindGroupedBar,
		Queries:      []Query{{"inflows-outflows-by-token", tokenFlowSchema}},
		EmptyMessage: "No by-token data returned by the query.",
		Build:        buildTydroByToken,
	},
	{
		Name:         "bridge-totals",
		Title:        "Borrowed vs. Bridged-Out Volume",
		Kind:         model.KindMetrics,
		Queries:      []Query{{"total-bridge", bridgeTotalsSchema}},
		EmptyMessage: "No bridge totals returned by the query.",
		Build:        buildBridgeTotals,
	},
	{
		Name:         "bridge-by-chain",
		Title:        "Bridge Inflows / Outflows by Chain (Volume USD)",
		Kind:         model.KindGroupedBar,
		Queries:      []Query{{"bridge-inflows-outflows-by-chain", bridgeSchema("bridge-inflows-outflows-by-chain", "chain")}},
		EmptyMessage: "No bridge inflows/outflows data returned by the query.",
		Build:        buildBridge("chain", "chains"),
	},
	{
		Name:         "bridge-by-token",
		Title:        "Bridge Inflows / Outflows by Token (Volume USD)",
		Kind:         model.KindGroupedBar,
		Queries:      []Query{{"bridge-inflows-outflows-by-token", bridgeSchema("bridge-inflows-outflows-by-token", "symbol")}},
		EmptyMessage: "No bridge inflows/outflows data returned by the query.",
		Build:        buildBridge("symbol", "symbols"),
	},
	{
		Name:         "cex-inflow",
		Title:        "CEX to Ink Inflow Volume by Exchange (USD)",
		Kind:         model.KindPie,
		Queries:      []Query{{"cex-to-ink-inflow-volume-by-chain", cexSchema}},
		EmptyMessage: "No CEX -> Ink inflow data returned by the query.",
		Build:        buildCEXInflow,
	},
	{
		Name:         "user-flow",
		Title:        "User Behavior Flow: Before → After",
		Kind:         model.KindSankey,
		Queries:      []Query{{"user-behavior-before-and-after-tydro-interaction", userFlowSchema}},
		EmptyMessage: "No data returned from user behavior query.",
		Build:        buildUserFlow,
	},
}

// Catalogue returns every report in dashboard order.
func Catalogue() []Definition {
	out := make([]Definition, len(catalogue))
	copy(out, catalogue)
	return out
}

func Lookup(name string) (Definition, bool) {
	for _, d := range catalogue {
		if d.Name == name {
			return d, true
		}
	}
	return Definition{}, false
}

func Names() []string {
	names := make([]string, len(catalogue))
	for i, d := range catalogue {
		names[i] = d.Name
	}
	return names
}
