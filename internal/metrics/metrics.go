// Package metrics holds the Prometheus collectors for report execution.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	QueriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tydrodash",
		Name:      "report_queries_total",
		Help:      "Report template executions by template and outcome.",
	}, []string{"template", "outcome"})

	QueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "tydrodash",
		Name:      "report_query_duration_seconds",
		Help:      "Wall time of report template executions.",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
	}, []string{"template"})

	ReportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tydrodash",
		Name:      "reports_total",
		Help:      "Rendered reports by name and notice code (empty when drawn cleanly).",
	}, []string{"report", "notice"})

	EstimationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tydrodash",
		Name:      "flow_estimations_total",
		Help:      "User-flow estimations by outcome state and preserved side.",
	}, []string{"state", "mode"})
)

// ObserveQuery records one template execution.
func ObserveQuery(template, outcome string, took time.Duration) {
	QueriesTotal.WithLabelValues(template, outcome).Inc()
	QueryDuration.WithLabelValues(template).Observe(took.Seconds())
}

func ObserveReport(report, notice string) {
	ReportsTotal.WithLabelValues(report, notice).Inc()
}

func ObserveEstimation(state, mode string) {
	EstimationsTotal.WithLabelValues(state, mode).Inc()
}
