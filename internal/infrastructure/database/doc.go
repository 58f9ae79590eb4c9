// Package database provides SQLite connectivity for cloudcfg.
//
// It serves two callers:
//   - the snapshot store, a writable database owned by cloudcfg, with
//     embedded migrations
//   - the data-store probe, which opens the server's own SQLite file
//     read-only to check it is usable
//
// Security Considerations:
//   - All queries use parameterised statements
//   - Writable database files are chmod 0600
//   - Read-only handles use mode=ro and refuse migrations
//
// Usage:
//
//	db, err := database.Open(ctx, database.Config{Path: cfg.Database.Path, WALMode: true})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    return err
//	}
//
// Migration Strategy:
//
// Migrations are additive-only. Files are named
// YYYYMMDD_HHMMSS_description.up.sql with a matching .down.sql.
package database
