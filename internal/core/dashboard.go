package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/agenthands/tydrodash/internal/config"
	"github.com/agenthands/tydrodash/internal/core/flow"
	"github.com/agenthands/tydrodash/internal/core/model"
	"github.com/agenthands/tydrodash/internal/core/report"
	"github.com/agenthands/tydrodash/internal/driver"
	"github.com/agenthands/tydrodash/internal/metrics"
	"github.com/agenthands/tydrodash/internal/query"
)

var ErrUnknownReport = errors.New("unknown report")

// Options are the per-request settings of a report run.
type Options struct {
	Filter report.Filter
	Mode   flow.Mode
	// RequestID tags log lines; one is generated when empty.
	RequestID string
}

// Dashboard runs catalogue reports. Each run loads its templates, executes
// them through the shared executor and builds the chart data; every failure
// becomes a Notice on the returned report.
type Dashboard struct {
	Executor    *query.Executor
	Templates   *query.Templates
	Estimator   *flow.Estimator
	Mode        flow.Mode
	Concurrency int
	Logger      *logrus.Entry

	// UUIDGenerator produces request IDs; replaceable in tests.
	UUIDGenerator func() string
}

func NewDashboard(w driver.Warehouse, templates *query.Templates, cfg *config.Config, logger *logrus.Entry) *Dashboard {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	if cfg == nil {
		cfg = config.Default()
	}
	concurrency := cfg.Dashboard.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &Dashboard{
		Executor:      query.NewExecutor(w, logger),
		Templates:     templates,
		Estimator:     flow.NewEstimator(logger),
		Mode:          flow.ParseMode(cfg.Flow.Preserve),
		Concurrency:   concurrency,
		Logger:        logger,
		UUIDGenerator: func() string { return uuid.New().String() },
	}
}

// Run renders one report by name. The only error is ErrUnknownReport; every
// other problem is reported through the returned report's Notice.
func (d *Dashboard) Run(ctx context.Context, name string, opts Options) (model.Report, error) {
	def, ok := report.Lookup(name)
	if !ok {
		return model.Report{}, fmt.Errorf("%w: %q", ErrUnknownReport, name)
	}
	return d.run(ctx, def, opts), nil
}

// RunAll renders the whole catalogue in dashboard order. Reports run
// concurrently up to Concurrency; each one checks out its own warehouse
// connection and builds its own data.
func (d *Dashboard) RunAll(ctx context.Context, opts Options) []model.Report {
	if opts.RequestID == "" {
		opts.RequestID = d.UUIDGenerator()
	}
	defs := report.Catalogue()
	out := make([]model.Report, len(defs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.Concurrency)
	for i, def := range defs {
		i, def := i, def
		g.Go(func() error {
			out[i] = d.run(gctx, def, opts)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (d *Dashboard) run(ctx context.Context, def report.Definition, opts Options) model.Report {
	if opts.RequestID == "" {
		opts.RequestID = d.UUIDGenerator()
	}
	log := d.Logger.WithFields(logrus.Fields{"report": def.Name, "request_id": opts.RequestID})
	base := model.Report{Name: def.Name, Title: def.Title, Kind: def.Kind}

	results := make([][]query.Row, len(def.Queries))
	empty := true
	for i, q := range def.Queries {
		rows, err := d.execute(ctx, q, opts.Filter, log)
		if err != nil {
			base.Notice = noticeFor(err)
			metrics.ObserveReport(def.Name, string(base.Notice.Code))
			return base
		}
		results[i] = rows
		if len(rows) > 0 {
			empty = false
		}
	}

	if empty {
		base.Notice = &model.Notice{Level: model.LevelInfo, Code: model.CodeNoData, Message: def.EmptyMessage}
		metrics.ObserveReport(def.Name, string(model.CodeNoData))
		return base
	}

	env := report.Env{Filter: opts.Filter, Mode: opts.Mode, Estimator: d.Estimator, Logger: log}
	out := def.Build(ctx, env, base, results)

	code := ""
	if out.Notice != nil {
		code = string(out.Notice.Code)
	}
	metrics.ObserveReport(def.Name, code)
	return out
}

func (d *Dashboard) execute(ctx context.Context, q report.Query, f report.Filter, log *logrus.Entry) ([]query.Row, error) {
	src, err := d.Templates.Load(q.Template)
	if err != nil {
		log.WithError(err).Error("Failed to load report template")
		metrics.ObserveQuery(q.Template, "template_not_found", 0)
		return nil, err
	}

	start := time.Now()
	rows, err := d.Executor.Execute(ctx, src, f.Substitutions(), q.Schema)
	outcome := "ok"
	switch {
	case err != nil:
		outcome = string(noticeFor(err).Code)
	case len(rows) == 0:
		outcome = "empty"
	}
	metrics.ObserveQuery(q.Template, outcome, time.Since(start))
	return rows, err
}

func noticeFor(err error) *model.Notice {
	var (
		nf *query.TemplateNotFoundError
		sm *query.SchemaMismatchError
		qe *query.QueryError
	)
	switch {
	case errors.As(err, &nf):
		return &model.Notice{Level: model.LevelError, Code: model.CodeTemplateNotFound,
			Message: fmt.Sprintf("Report template not found: %s.sql", nf.Name)}
	case errors.As(err, &sm):
		return &model.Notice{Level: model.LevelError, Code: model.CodeSchemaMismatch,
			Message: fmt.Sprintf("The report returned an unexpected column layout: %v", sm)}
	case errors.As(err, &qe):
		return &model.Notice{Level: model.LevelError, Code: model.CodeQueryFailed,
			Message: fmt.Sprintf("Query execution failed: %v", qe.Err)}
	default:
		return &model.Notice{Level: model.LevelError, Code: model.CodeQueryFailed,
			Message: fmt.Sprintf("Query execution failed: %v", err)}
	}
}
