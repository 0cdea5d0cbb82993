// Package migrations carries the schema files the SQLite store applies
// in lexical order on startup.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
