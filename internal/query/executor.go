// Package query runs report templates against a warehouse and hands back
// schema-checked rows. Every failure leaves this package as a typed error;
// nothing panics past Execute.
package query

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/agenthands/tydrodash/internal/driver"
)

type Executor struct {
	Warehouse driver.Warehouse
	Logger    *logrus.Entry
}

func NewExecutor(w driver.Warehouse, logger *logrus.Entry) *Executor {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Executor{Warehouse: w, Logger: logger}
}

// Execute renders templateSource with subs, runs it with args bound as query
// parameters, and validates the column layout against schema when one is
// given.
//
// A query that matches nothing returns an empty, non-nil slice and a nil
// error. Data source failures come back as *QueryError with nil rows.
func (e *Executor) Execute(ctx context.Context, templateSource string, subs Substitutions, schema *Schema, args ...any) (rows []Row, err error) {
	name := ""
	if schema != nil {
		name = schema.Name
	}
	log := e.Logger.WithField("template", name)

	defer func() {
		if r := recover(); r != nil {
			rows = nil
			err = &QueryError{Template: name, Err: fmt.Errorf("driver panic: %v", r)}
		}
	}()

	sqlText, unresolved := Render(templateSource, subs)
	if len(unresolved) > 0 {
		log.WithField("placeholders", unresolved).Warn("template has unresolved placeholders")
	}

	start := time.Now()
	res, err := e.Warehouse.ExecuteQuery(ctx, sqlText, args...)
	if err != nil {
		log.WithError(err).Error("Query execution failed")
		return nil, &QueryError{Template: name, Err: err}
	}

	if schema != nil {
		if err := schema.Validate(res.Columns); err != nil {
			log.WithError(err).Error("Query returned unexpected columns")
			return nil, err
		}
	}

	rows = make([]Row, 0, len(res.Rows))
	for _, vals := range res.Rows {
		rows = append(rows, NewRow(schema, vals))
	}

	log.WithFields(logrus.Fields{
		"rows":     len(rows),
		"duration": time.Since(start),
	}).Debug("Query executed")
	return rows, nil
}
