// Package migrations holds the embedded SQL schema migrations applied at
// startup.
package migrations

import "embed"

//go:embed *.up.sql
var FS embed.FS
