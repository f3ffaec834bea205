package query

import (
	"fmt"
	"strings"
)

// QueryError reports a failure inside the data source: connectivity, syntax,
// or a timeout enforced by the warehouse.
type QueryError struct {
	Template string
	Err      error
}

func (e *QueryError) Error() string {
	if e.Template == "" {
		return fmt.Sprintf("query failed: %v", e.Err)
	}
	return fmt.Sprintf("query %s failed: %v", e.Template, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// TemplateNotFoundError reports a missing report template resource.
type TemplateNotFoundError struct {
	Name string
	Err  error
}

func (e *TemplateNotFoundError) Error() string {
	return fmt.Sprintf("report template %q not found", e.Name)
}

func (e *TemplateNotFoundError) Unwrap() error { return e.Err }

// SchemaMismatchError reports a result whose columns do not line up with the
// schema the caller declared.
type SchemaMismatchError struct {
	Schema string
	Want   []string
	Got    []string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("schema %s mismatch: want columns [%s], got [%s]",
		e.Schema, strings.Join(e.Want, ", "), strings.Join(e.Got, ", "))
}
