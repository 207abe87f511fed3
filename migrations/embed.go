// Package migrations holds the SQL schema applied by cmd/migrate.
package migrations

import "embed"

// FS contains the numbered up/down migration files.
//
//go:embed *.sql
var FS embed.FS
