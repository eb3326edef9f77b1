package migrations

import "embed"

// FS contains embedded Postgres migrations for contest storage.
//
//go:embed *.sql
var FS embed.FS
