package migrations

import "embed"

// FS contains embedded SQLite migrations for roster storage.
//
//go:embed *.sql
var FS embed.FS
