// Package migrations embeds the SQL files that bootstrap the Postgres schema.
package migrations

import "embed"

// FS holds the goose migration files.
//
//go:embed *.sql
var FS embed.FS
