// Package migrations embeds the SQL schema migrations for letschat databases.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
