package report

import (
	"fmt"
	"strings"

	"github.com/agenthands/tydrodash/internal/query"
)

// TimeRange is the closed set of time windows a report can be filtered to.
type TimeRange string

const (
	AllTime   TimeRange = "all-time"
	PastYear  TimeRange = "past-year"
	PastMonth TimeRange = "past-month"
	PastWeek  TimeRange = "past-week"
)

var rangeConditions = map[TimeRange]string{
	AllTime:   "1 = 1",
	PastYear:  "block_timestamp::date >= current_date - interval '1 year'",
	PastMonth: "block_timestamp::date >= current_date - interval '1 month'",
	PastWeek:  "block_timestamp::date >= current_date - interval '7 day'",
}

// Granularity is the closed set of aggregation periods.
type Granularity string

const (
	Day   Granularity = "day"
	Week  Granularity = "week"
	Month Granularity = "month"
)

var granularityLabels = map[Granularity]string{
	Day:   "Daily",
	Week:  "Weekly",
	Month: "Monthly",
}

func (g Granularity) Label() string { return granularityLabels[g] }

func canonical(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "-", "_", "-").Replace(s)
}

// ParseTimeRange accepts the canonical names and their display spellings
// ("Past month"). Empty means all time.
func ParseTimeRange(s string) (TimeRange, error) {
	c := canonical(s)
	if c == "" || c == "all" {
		return AllTime, nil
	}
	r := TimeRange(c)
	if _, ok := rangeConditions[r]; !ok {
		return "", fmt.Errorf("unknown time range %q", s)
	}
	return r, nil
}

// ParseGranularity accepts day/week/month and Daily/Weekly/Monthly. Empty
// means day.
func ParseGranularity(s string) (Granularity, error) {
	switch canonical(s) {
	case "", "day", "daily":
		return Day, nil
	case "week", "weekly":
		return Week, nil
	case "month", "monthly":
		return Month, nil
	}
	return "", fmt.Errorf("unknown granularity %q", s)
}

// Filter is the pair of settings every report template is rendered with.
type Filter struct {
	Range       TimeRange
	Granularity Granularity
}

func ParseFilter(rangeName, granularity string) (Filter, error) {
	r, err := ParseTimeRange(rangeName)
	if err != nil {
		return Filter{}, err
	}
	g, err := ParseGranularity(granularity)
	if err != nil {
		return Filter{}, err
	}
	return Filter{Range: r, Granularity: g}, nil
}

// Substitutions resolves the filter into template text. Only values from the
// enumerations above can reach a template.
func (f Filter) Substitutions() query.Substitutions {
	cond, ok := rangeConditions[f.Range]
	if !ok {
		cond = rangeConditions[AllTime]
	}
	period := f.Granularity
	if _, ok := granularityLabels[period]; !ok {
		period = Day
	}
	return query.Substitutions{
		"condition": cond,
		"period":    string(period),
	}
}
