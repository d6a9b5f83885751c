// Package migrations embeds the SQL schema so the binary can migrate a
// database without the source tree.
package migrations

import "embed"

// FS holds the numbered .sql migration files.
//
//go:embed *.sql
var FS embed.FS
