package driver

import (
	"embed"
	"io/fs"
)

//go:embed queries/*.sql
var embeddedQueries embed.FS

// BuiltinTemplates holds the report templates shipped with the binary, one
// <report>.sql file per template, each using the {condition} and {period}
// placeholders.
func BuiltinTemplates() fs.FS {
	sub, err := fs.Sub(embeddedQueries, "queries")
	if err != nil {
		// fs.Sub only fails on an invalid path literal.
		panic(err)
	}
	return sub
}
