package model

import (
	"time"

	"github.com/agenthands/tydrodash/internal/core/flow"
)

type Kind string

const (
	KindMetrics    Kind = "metrics"
	KindPie        Kind = "pie"
	KindGroupedBar Kind = "grouped_bar"
	KindTimeSeries Kind = "timeseries"
	KindHistogram  Kind = "histogram"
	KindSankey     Kind = "sankey"
	KindComparison Kind = "comparison"
)

type NoticeLevel string

const (
	LevelInfo    NoticeLevel = "info"
	LevelWarning NoticeLevel = "warning"
	LevelError   NoticeLevel = "error"
)

type NoticeCode string

const (
	CodeNoData           NoticeCode = "no_data"
	CodeQueryFailed      NoticeCode = "query_failed"
	CodeTemplateNotFound NoticeCode = "template_not_found"
	CodeSchemaMismatch   NoticeCode = "schema_mismatch"
	CodeInsufficient     NoticeCode = "insufficient"
	CodeDegenerate       NoticeCode = "degenerate"
	CodeAllZero          NoticeCode = "all_zero"
)

// Notice is the user-visible explanation shown instead of, or next to, a chart.
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Code    NoticeCode  `json:"code"`
	Message string      `json:"message"`
}

type MetricFormat string

const (
	FormatInteger MetricFormat = "integer"
	FormatUSD     MetricFormat = "usd"
	FormatPercent MetricFormat = "percent"
)

type Metric struct {
	Label  string       `json:"label"`
	Value  float64      `json:"value"`
	Format MetricFormat `json:"format"`
}

type Slice struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// BarPoint is one bar of a grouped bar chart: Series bars sit side by side
// within each Category.
type BarPoint struct {
	Category     string  `json:"category"`
	Series       string  `json:"series"`
	Transactions float64 `json:"transactions,omitempty"`
	Volume       float64 `json:"volume,omitempty"`
	VolumeUSD    float64 `json:"volume_usd"`
	AverageUSD   float64 `json:"average_amount_usd"`
}

type GroupedBars struct {
	CategoryOrder []string   `json:"category_order"`
	SeriesOrder   []string   `json:"series_order"`
	Points        []BarPoint `json:"points"`
}

type TimePoint struct {
	Date         time.Time `json:"date"`
	Event        string    `json:"event"`
	Transactions float64   `json:"transactions"`
	Users        float64   `json:"users"`
	VolumeUSD    float64   `json:"volume_usd"`
	AverageUSD   float64   `json:"average_amount_usd"`
	MedianUSD    float64   `json:"median_amount_usd"`
	MaxUSD       float64   `json:"max_amount_usd"`
}

type Bucket struct {
	Range      string  `json:"range"`
	Count      float64 `json:"count"`
	TotalUSD   float64 `json:"total_usd"`
	MinUSD     float64 `json:"min_usd"`
	MaxUSD     float64 `json:"max_usd"`
	PctOfTotal float64 `json:"pct_of_total"`
}

// Report is the chart-ready structure for one dashboard report. Exactly the
// fields matching Kind are populated; Notice is set whenever something could
// not be drawn as requested.
type Report struct {
	Name    string  `json:"name"`
	Title   string  `json:"title"`
	Kind    Kind    `json:"kind"`
	Caption string  `json:"caption,omitempty"`
	Notice  *Notice `json:"notice,omitempty"`

	Metrics    []Metric             `json:"metrics,omitempty"`
	Slices     []Slice              `json:"slices,omitempty"`
	Bars       *GroupedBars         `json:"bars,omitempty"`
	Series     []TimePoint          `json:"series,omitempty"`
	Events     []string             `json:"events,omitempty"`
	Buckets    []Bucket             `json:"buckets,omitempty"`
	Flow       *flow.Sankey         `json:"flow,omitempty"`
	FlowMode   string               `json:"flow_mode,omitempty"`
	Comparison []flow.ComparisonRow `json:"comparison,omitempty"`
}

// Empty reports whether the report carries nothing drawable.
func (r Report) Empty() bool {
	return len(r.Metrics) == 0 && len(r.Slices) == 0 && r.Bars == nil && len(r.Series) == 0 &&
		len(r.Buckets) == 0 && r.Flow == nil && len(r.Comparison) == 0
}
