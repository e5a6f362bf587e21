// Package migrations embeds the feedback service SQL schema.
package migrations

import "embed"

// FS holds every *.up.sql file, applied in lexical order at startup.
//
//go:embed *.sql
var FS embed.FS
