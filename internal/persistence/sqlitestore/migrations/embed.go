package migrations

import "embed"

// FS contains embedded SQLite migrations for contest storage.
//
//go:embed *.sql
var FS embed.FS
