// Package migrations embeds the SQL schema applied by sql-migrate.
package migrations

import "embed"

// FS holds the ordered *.sql migration files
//
//go:embed *.sql
var FS embed.FS
