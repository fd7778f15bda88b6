// Package migrations embeds the SQL schema migrations for the huddled server.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
