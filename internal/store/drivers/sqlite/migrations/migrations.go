// Package migrations embeds the schema migration files into the binary.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
