// Package migrations holds the versioned schema of the vector store. Files
// are named NNN_name.up.sql and NNN_name.down.sql and applied in order.
package migrations

import "embed"

// FS holds the migration files.
//
//go:embed *.sql
var FS embed.FS
