package report

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/agenthands/tydrodash/internal/core/flow"
	"github.com/agenthands/tydrodash/internal/core/model"
	"github.com/agenthands/tydrodash/internal/metrics"
	"github.com/agenthands/tydrodash/internal/query"
)

// crowdedThreshold is the series count above which grouped bars get a
// "may be crowded" caption.
const crowdedThreshold = 12

func noData(msg string) *model.Notice {
	return &model.Notice{Level: model.LevelInfo, Code: model.CodeNoData, Message: msg}
}

func buildTotals(_ context.Context, _ Env, base model.Report, results [][]query.Row) model.Report {
	for i, prefix := range []string{"Borrow", "Supply"} {
		if len(results[i]) == 0 {
			base.Notice = noData(fmt.Sprintf("No %s totals returned by the query.", strings.ToLower(prefix)))
			continue
		}
		row := results[i][0]
		base.Metrics = append(base.Metrics,
			model.Metric{Label: prefix + " Transactions", Value: math.Trunc(row.Number("total_transactions")), Format: model.FormatInteger},
			model.Metric{Label: prefix + " Users", Value: math.Trunc(row.Number("total_users")), Format: model.FormatInteger},
			model.Metric{Label: prefix + " Volume (USD)", Value: row.Number("total_volume_usd"), Format: model.FormatUSD},
		)
	}
	return base
}

func buildBridgeTotals(_ context.Context, _ Env, base model.Report, results [][]query.Row) model.Report {
	row := results[0][0]
	base.Metrics = []model.Metric{
		{Label: "Total Borrowed Volume of Tydro", Value: math.Trunc(row.Number("total_borrowed_volume_of_tydro")), Format: model.FormatInteger},
		{Label: "Total Bridged out Volume (USD)", Value: math.Trunc(row.Number("total_bridged_out_volume")), Format: model.FormatInteger},
		{Label: "Borrowed vs. Bridged-Out Ratio", Value: row.Number("borrowed_vs_bridged_out"), Format: model.FormatPercent},
	}
	return base
}

type overtimeKey struct {
	date  time.Time
	event string
}

type overtimeAgg struct {
	point   model.TimePoint
	avgs    []float64
	medians []float64
}

// buildOvertime collapses rows to one point per (date, event): counts and
// volume are summed, averages averaged, medians take the median, maxima the
// max.
func buildOvertime(_ context.Context, env Env, base model.Report, results [][]query.Row) model.Report {
	aggs := make(map[overtimeKey]*overtimeAgg)
	var keys []overtimeKey
	for _, row := range results[0] {
		d, ok := row.Time("date")
		if !ok {
			env.log().WithField("value", row.Text("date")).Warn("Skipping overtime row with unreadable date")
			continue
		}
		k := overtimeKey{date: d, event: strings.TrimSpace(row.Text("event_name"))}
		agg, seen := aggs[k]
		if !seen {
			agg = &overtimeAgg{point: model.TimePoint{Date: d, Event: k.event, MaxUSD: math.Inf(-1)}}
			aggs[k] = agg
			keys = append(keys, k)
		}
		agg.point.Transactions += row.Number("transactions")
		agg.point.Users += row.Number("users")
		agg.point.VolumeUSD += row.Number("volume_usd")
		agg.avgs = append(agg.avgs, row.Number("average_amount_usd"))
		agg.medians = append(agg.medians, row.Number("median_amount_usd"))
		agg.point.MaxUSD = math.Max(agg.point.MaxUSD, row.Number("max_amount_usd"))
	}

	sort.SliceStable(keys, func(i, j int) bool {
		if !keys[i].date.Equal(keys[j].date) {
			return keys[i].date.Before(keys[j].date)
		}
		return keys[i].event < keys[j].event
	})

	events := make([]string, 0)
	seenEvent := make(map[string]bool)
	for _, k := range keys {
		agg := aggs[k]
		agg.point.AverageUSD = mean(agg.avgs)
		agg.point.MedianUSD = median(agg.medians)
		base.Series = append(base.Series, agg.point)
		if !seenEvent[k.event] {
			seenEvent[k.event] = true
			events = append(events, k.event)
		}
	}
	base.Events = preferredOrder(events, "Supply", "Borrow", "Withdraw", "Repay")
	if env.Filter.Granularity != "" {
		base.Title = env.Filter.Granularity.Label() + " " + base.Title
	}
	return base
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func median(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	s := append([]float64(nil), xs...)
	sort.Float64s(s)
	mid := len(s) / 2
	if len(s)%2 == 1 {
		return s[mid]
	}
	return (s[mid-1] + s[mid]) / 2
}

var rangeDashes = strings.NewReplacer("â€“", "–", "-", "–")

func buildDepositDistribution(_ context.Context, _ Env, base model.Report, results [][]query.Row) model.Report {
	total := 0.0
	for _, row := range results[0] {
		b := model.Bucket{
			Range:    strings.TrimSpace(rangeDashes.Replace(row.Text("deposit_size_range"))),
			Count:    row.Number("deposit_count"),
			TotalUSD: row.Number("total_deposit_usd"),
			MinUSD:   row.Number("min_amount_usd"),
			MaxUSD:   row.Number("max_amount_usd"),
		}
		total += b.Count
		base.Buckets = append(base.Buckets, b)
	}

	sort.SliceStable(base.Buckets, func(i, j int) bool { return base.Buckets[i].MinUSD < base.Buckets[j].MinUSD })

	if total > 0 {
		for i := range base.Buckets {
			base.Buckets[i].PctOfTotal = math.Round(base.Buckets[i].Count/total*100*100) / 100
		}
	}
	return base
}

func groupedBars(rows []query.Row, categoryCol, seriesCol string, withNative bool, preferred ...string) *model.GroupedBars {
	bars := &model.GroupedBars{}
	var categories, series []string
	var weights []float64
	for _, row := range rows {
		p := model.BarPoint{
			Category:   flow.NormalizeLabel(row.Text(categoryCol)),
			Series:     strings.TrimSpace(row.Text(seriesCol)),
			VolumeUSD:  row.Number("volume_usd"),
			AverageUSD: row.Number("average_amount_usd"),
		}
		if withNative {
			p.Volume = row.Number("volume")
		} else {
			p.Transactions = row.Number("transactions")
		}
		bars.Points = append(bars.Points, p)
		categories = append(categories, p.Category)
		series = append(series, p.Series)
		weights = append(weights, p.VolumeUSD)
	}
	bars.CategoryOrder = preferredOrder(categories, preferred...)
	bars.SeriesOrder = orderByTotal(series, weights)
	return bars
}

func crowdedCaption(n int, noun string) string {
	if n <= crowdedThreshold {
		return ""
	}
	return fmt.Sprintf("%d %s detected, chart may appear crowded.", n, noun)
}

func buildTydroByToken(_ context.Context, _ Env, base model.Report, results [][]query.Row) model.Report {
	base.Bars = groupedBars(results[0], "event_name", "symbol", true, "Supply", "Withdraw")
	base.Caption = crowdedCaption(len(base.Bars.SeriesOrder), "symbols")
	return base
}

func buildBridge(key, noun string) BuildFunc {
	return func(_ context.Context, _ Env, base model.Report, results [][]query.Row) model.Report {
		base.Bars = groupedBars(results[0], "direction", key, false, "Inflow", "Outflow")
		base.Caption = crowdedCaption(len(base.Bars.SeriesOrder), noun)
		return base
	}
}

// buildCEXInflow drops non-positive slices, which a pie cannot draw.
func buildCEXInflow(_ context.Context, _ Env, base model.Report, results [][]query.Row) model.Report {
	for _, row := range results[0] {
		s := model.Slice{Label: strings.TrimSpace(row.Text("label")), Value: row.Number("volume_usd")}
		if s.Value > 0 {
			base.Slices = append(base.Slices, s)
		}
	}
	sort.SliceStable(base.Slices, func(i, j int) bool { return base.Slices[i].Value > base.Slices[j].Value })
	if len(base.Slices) == 0 {
		base.Notice = noData("All CEX -> Ink inflow volumes are zero.")
	}
	return base
}

// Marginals splits user-flow rows into the Before and After distributions.
// Rows with another action type or an invalid entry are skipped and logged.
func Marginals(rows []query.Row, logger *logrus.Entry) (before, after *flow.Marginal) {
	before, after = flow.NewMarginal(), flow.NewMarginal()
	for _, row := range rows {
		var side *flow.Marginal
		switch flow.NormalizeLabel(row.Text("action_type")) {
		case "Before":
			side = before
		case "After":
			side = after
		default:
			logger.WithField("action_type", row.Text("action_type")).Warn("Skipping user-flow row with unknown action type")
			continue
		}
		if err := side.Add(row.Text("event_name"), row.Number("users")); err != nil {
			logger.WithError(err).Warn("Skipping user-flow row")
		}
	}
	return before, after
}

func buildUserFlow(ctx context.Context, env Env, base model.Report, results [][]query.Row) model.Report {
	before, after := Marginals(results[0], env.log())
	estimator := env.Estimator
	if estimator == nil {
		estimator = flow.NewEstimator(env.log())
	}
	res, err := estimator.Estimate(ctx, before, after, env.Mode)
	base.FlowMode = res.Mode.String()

	switch res.State {
	case flow.StateEstimated:
		s := res.Graph.Sankey()
		base.Flow = &s
	case flow.StateInsufficient:
		base.Kind = model.KindComparison
		base.Comparison = res.Comparison
		base.Notice = &model.Notice{
			Level:   model.LevelWarning,
			Code:    model.CodeInsufficient,
			Message: insufficientMessage(before, after),
		}
	case flow.StateDegenerate:
		side := "After"
		if res.Mode == flow.PreserveAfter {
			side = "Before"
		}
		base.Notice = &model.Notice{
			Level: model.LevelError,
			Code:  model.CodeDegenerate,
			Message: fmt.Sprintf("Cannot build the flow diagram: the %s total is 0, so flows cannot be normalized. "+
				"Add %s activity for this period or switch the preserved side.", side, strings.ToLower(side)),
		}
	case flow.StateAllZero:
		base.Notice = &model.Notice{
			Level: model.LevelWarning,
			Code:  model.CodeAllZero,
			Message: "All computed flows are zero, so there is nothing to draw. " +
				"Relax the filters that zero out the Before or After side.",
		}
	default:
		base.Notice = &model.Notice{Level: model.LevelError, Code: model.CodeQueryFailed, Message: fmt.Sprintf("Flow estimation failed: %v", err)}
	}

	metrics.ObserveEstimation(string(res.State), res.Mode.String())
	env.log().WithFields(logrus.Fields{
		"state":  res.State,
		"mode":   res.Mode.String(),
		"before": before.Len(),
		"after":  after.Len(),
	}).Info("User flow estimated")
	return base
}

func insufficientMessage(before, after *flow.Marginal) string {
	missing := "After"
	if before.Len() == 0 {
		missing = "Before"
	}
	if before.Len() == 0 && after.Len() == 0 {
		missing = "Before and After"
	}
	return fmt.Sprintf("%s data is missing, so transitions cannot be estimated. "+
		"Showing a per-event Before/After comparison instead; add %s data to see the flow diagram.",
		missing, strings.ToLower(missing))
}
