package database

import (
	"testing"
	"testing/fstest"
)

func testMigrations() fstest.MapFS {
	return fstest.MapFS{
		"20260101_000000_create_items.up.sql": {
			Data: []byte("CREATE TABLE items (id TEXT PRIMARY KEY);"),
		},
		"20260101_000000_create_items.down.sql": {
			Data: []byte("DROP TABLE items;"),
		},
		"20260102_000000_add_notes.up.sql": {
			Data: []byte("CREATE TABLE notes (id TEXT PRIMARY KEY, body TEXT);"),
		},
		"README.md": {Data: []byte("not a migration")},
	}
}

func tableExists(t *testing.T, db *DB, name string) bool {
	t.Helper()
	var count int
	err := db.QueryRowContext(testContext(t),
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", name,
	).Scan(&count)
	if err != nil {
		t.Fatalf("querying sqlite_master: %v", err)
	}
	return count == 1
}

func TestMigrate(t *testing.T) {
	db := openTestDB(t)
	ctx := testContext(t)

	if err := db.Migrate(ctx, testMigrations()); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if !tableExists(t, db, "items") || !tableExists(t, db, "notes") {
		t.Fatal("migrations did not create tables")
	}

	applied, pending, err := db.GetMigrationStatus(ctx, testMigrations())
	if err != nil {
		t.Fatalf("GetMigrationStatus() error = %v", err)
	}
	if len(applied) != 2 || len(pending) != 0 {
		t.Errorf("applied = %d, pending = %d, want 2 and 0", len(applied), len(pending))
	}
	if applied[0].Version != "20260101_000000" || applied[0].AppliedAt.IsZero() {
		t.Errorf("applied[0] = %+v", applied[0])
	}

	// Running again is a no-op.
	if err := db.Migrate(ctx, testMigrations()); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}
}

func TestMigrate_StopsAtFailure(t *testing.T) {
	db := openTestDB(t)
	ctx := testContext(t)

	fsys := testMigrations()
	fsys["20260102_000000_add_notes.up.sql"] = &fstest.MapFile{Data: []byte("CREATE TABLE broken (")}

	if err := db.Migrate(ctx, fsys); err == nil {
		t.Fatal("Migrate() expected error")
	}
	if !tableExists(t, db, "items") {
		t.Error("earlier migration should stay applied")
	}

	_, pending, err := db.GetMigrationStatus(ctx, fsys)
	if err != nil {
		t.Fatalf("GetMigrationStatus() error = %v", err)
	}
	if len(pending) != 1 || pending[0].Name != "add_notes" {
		t.Errorf("pending = %+v, want add_notes", pending)
	}
}

func TestMigrateDown(t *testing.T) {
	db := openTestDB(t)
	ctx := testContext(t)

	fsys := testMigrations()
	delete(fsys, "20260102_000000_add_notes.up.sql")

	if err := db.Migrate(ctx, fsys); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if err := db.MigrateDown(ctx, fsys); err != nil {
		t.Fatalf("MigrateDown() error = %v", err)
	}
	if tableExists(t, db, "items") {
		t.Error("items should be dropped")
	}

	// Nothing left to roll back.
	if err := db.MigrateDown(ctx, fsys); err != nil {
		t.Errorf("MigrateDown() on empty history error = %v", err)
	}
}

func TestMigrateDown_NoDownSQL(t *testing.T) {
	db := openTestDB(t)
	ctx := testContext(t)

	if err := db.Migrate(ctx, testMigrations()); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	// add_notes is newest and has no .down.sql.
	if err := db.MigrateDown(ctx, testMigrations()); err == nil {
		t.Error("MigrateDown() expected error for missing down SQL")
	}
}

func TestMigrate_NilFS(t *testing.T) {
	db := openTestDB(t)
	if err := db.Migrate(testContext(t), nil); err != nil {
		t.Errorf("Migrate(nil) error = %v", err)
	}
}

func TestParseMigrationFilename(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		wantVersion string
		wantIsUp    bool
		wantOk      bool
	}{
		{"valid up migration", "20261016_120000_config_snapshots.up.sql", "20261016_120000", true, true},
		{"valid down migration", "20261016_120000_config_snapshots.down.sql", "20261016_120000", false, true},
		{"not sql file", "readme.txt", "", false, false},
		{"missing direction", "20261016_120000_config_snapshots.sql", "", false, false},
		{"invalid format", "invalid.up.sql", "", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			version, isUp, ok := parseMigrationFilename(tt.filename)
			if ok != tt.wantOk {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOk)
			}
			if ok && (version != tt.wantVersion || isUp != tt.wantIsUp) {
				t.Errorf("got (%q, %v), want (%q, %v)", version, isUp, tt.wantVersion, tt.wantIsUp)
			}
		})
	}
}

func TestExtractMigrationName(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"20261016_120000_config_snapshots.up.sql", "config_snapshots"},
		{"20261016_120000_config_snapshots.down.sql", "config_snapshots"},
		{"20261020_090000_add_fingerprint_index.up.sql", "add_fingerprint_index"},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			if got := extractMigrationName(tt.filename); got != tt.want {
				t.Errorf("extractMigrationName(%q) = %q, want %q", tt.filename, got, tt.want)
			}
		})
	}
}
