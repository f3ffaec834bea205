package query

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Row is one result row bound to the schema that validated it.
type Row struct {
	schema *Schema
	values []any
}

func NewRow(schema *Schema, values []any) Row {
	return Row{schema: schema, values: values}
}

func (r Row) Values() []any { return r.values }

func (r Row) value(name string) any {
	if r.schema == nil {
		return nil
	}
	i, ok := r.schema.position(name)
	if !ok || i >= len(r.values) {
		return nil
	}
	return r.values[i]
}

// Text returns the named column as a string; NULL is "".
func (r Row) Text(name string) string {
	return ToText(r.value(name))
}

// Number returns the named column as a float64. NULL and unparsable values
// become 0.
func (r Row) Number(name string) float64 {
	return ToNumber(r.value(name))
}

// Time returns the named column as a time; ok is false when it cannot be read
// as one.
func (r Row) Time(name string) (time.Time, bool) {
	return ToTime(r.value(name))
}

func ToText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case time.Time:
		return t.Format(time.RFC3339)
	default:
		return fmt.Sprint(t)
	}
}

// ToNumber coerces driver values the way the dashboard expects warehouse
// numbers: thousands separators are stripped and the text parsed as a decimal.
func ToNumber(v any) float64 {
	switch t := v.(type) {
	case nil:
		return 0
	case float64:
		return t
	case float32:
		return float64(t)
	case int64:
		return float64(t)
	case int:
		return float64(t)
	case int32:
		return float64(t)
	case bool:
		if t {
			return 1
		}
		return 0
	case decimal.Decimal:
		return t.InexactFloat64()
	}

	s := strings.ReplaceAll(strings.TrimSpace(ToText(v)), ",", "")
	if s == "" {
		return 0
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0
	}
	return d.InexactFloat64()
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func ToTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case nil:
		return time.Time{}, false
	}
	s := strings.TrimSpace(ToText(v))
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
