// Package migrations embeds the SQL schema applied by internal/migrate.
package migrations

import "embed"

// FS holds goose migration files.
//
//go:embed *.sql
var FS embed.FS
