package query

import (
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"strings"
)

// Substitutions maps placeholder names (without braces) to literal text.
// Values must come from code-controlled enumerations, never from free text.
type Substitutions map[string]string

// Templates loads named report templates from a file system.
type Templates struct {
	FS fs.FS
}

func NewTemplates(fsys fs.FS) *Templates {
	return &Templates{FS: fsys}
}

// Load returns the text of <name>.sql.
func (t *Templates) Load(name string) (string, error) {
	if t == nil || t.FS == nil {
		return "", &TemplateNotFoundError{Name: name, Err: fs.ErrNotExist}
	}
	data, err := fs.ReadFile(t.FS, name+".sql")
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrInvalid) {
			return "", &TemplateNotFoundError{Name: name, Err: err}
		}
		return "", fmt.Errorf("failed to read template %s: %w", name, err)
	}
	return string(data), nil
}

var placeholderPattern = regexp.MustCompile(`\{([a-zA-Z_][a-zA-Z0-9_]*)\}`)

// Render replaces each {key} in source with subs[key]. It returns the
// rendered text and the names of placeholders that had no substitution;
// those are left untouched.
func Render(source string, subs Substitutions) (string, []string) {
	out := source
	for key, val := range subs {
		out = strings.ReplaceAll(out, "{"+key+"}", val)
	}

	var unresolved []string
	for _, m := range placeholderPattern.FindAllStringSubmatch(out, -1) {
		if _, ok := subs[m[1]]; !ok {
			unresolved = append(unresolved, m[1])
		}
	}
	return out, unresolved
}
