// Package migrations embeds the snapshot store's SQL migrations into the
// binary.
package migrations

import "embed"

// FS holds every migration at its root, ready for database.DB.Migrate.
//
//go:embed *.sql
var FS embed.FS
