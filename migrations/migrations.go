// Package migrations embeds the SQL schema migrations applied with goose.
package migrations

import "embed"

// FS holds the goose SQL migrations for the users schema.
//
//go:embed *.sql
var FS embed.FS
