// Package migrations embeds the goose SQL migrations of the on-device store.
// Migrations are append-only.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
