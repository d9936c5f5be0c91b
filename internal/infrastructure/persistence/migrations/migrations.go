// Package migrations embeds the call log schema.
package migrations

import "embed"

// FS holds the versioned SQL migration files
//
//go:embed *.sql
var FS embed.FS
