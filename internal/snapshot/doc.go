// Package snapshot records every successfully loaded server configuration.
//
// A Snapshot holds the redacted YAML description of a configuration, never
// the raw values, plus an Argon2id fingerprint of its secrets keyed with the
// instance's passwordsalt. Comparing fingerprints shows that a secret was
// rotated between two loads without storing or revealing it.
//
// Snapshots are persisted in SQLite through SQLiteRepository; the table is
// created by the embedded migrations.
//
// Usage:
//
//	snap, err := snapshot.New(cfg, nil, snapshot.Source{Path: path, Format: "php"})
//	if err != nil {
//	    return err
//	}
//	if err := repo.Save(ctx, snap); err != nil {
//	    return err
//	}
package snapshot
