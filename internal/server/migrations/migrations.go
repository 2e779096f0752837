// Package migrations embeds the goose migrations of the accounts database
// and the records table backing the PostgreSQL record store.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
