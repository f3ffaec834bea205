package query

import (
	"strings"
)

type FieldType int

const (
	Text FieldType = iota
	Number
	Date
)

type Field struct {
	Name string
	Type FieldType
}

// Schema is the ordered column layout a report binds positionally.
type Schema struct {
	Name   string
	Fields []Field
	index  map[string]int
}

func NewSchema(name string, fields ...Field) *Schema {
	s := &Schema{Name: name, Fields: fields, index: make(map[string]int, len(fields))}
	for i, f := range fields {
		s.index[strings.ToLower(f.Name)] = i
	}
	return s
}

func (s *Schema) Names() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// Validate checks column count and names, ignoring case.
func (s *Schema) Validate(columns []string) error {
	mismatch := &SchemaMismatchError{Schema: s.Name, Want: s.Names(), Got: columns}
	if len(columns) != len(s.Fields) {
		return mismatch
	}
	for i, col := range columns {
		if !strings.EqualFold(strings.TrimSpace(col), s.Fields[i].Name) {
			return mismatch
		}
	}
	return nil
}

func (s *Schema) position(name string) (int, bool) {
	i, ok := s.index[strings.ToLower(name)]
	return i, ok
}
