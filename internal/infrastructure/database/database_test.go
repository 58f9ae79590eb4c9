package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// openTestDB opens a fresh writable database in a temp directory.
func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(testContext(t), Config{
		Path:        filepath.Join(t.TempDir(), "test.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup
	return db
}

func TestOpen(t *testing.T) {
	t.Run("creates database file and directory", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "subdir", "nested", "test.db")

		db, err := Open(testContext(t), Config{Path: dbPath, WALMode: true, BusyTimeout: 5})
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		defer db.Close() //nolint:errcheck // Test cleanup

		if _, err := db.ExecContext(testContext(t), "CREATE TABLE t (id INTEGER)"); err != nil {
			t.Fatalf("ExecContext() error = %v", err)
		}
		if _, err := os.Stat(dbPath); err != nil {
			t.Errorf("database file was not created: %v", err)
		}
		if db.Path() != dbPath {
			t.Errorf("Path() = %v, want %v", db.Path(), dbPath)
		}
		if db.ReadOnly() {
			t.Error("ReadOnly() = true for writable database")
		}
	})

	t.Run("read-only requires existing file", func(t *testing.T) {
		_, err := Open(testContext(t), Config{
			Path:     filepath.Join(t.TempDir(), "missing.db"),
			ReadOnly: true,
		})
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("Open() error = %v, want os.ErrNotExist", err)
		}
	})
}

func TestOpen_ReadOnly(t *testing.T) {
	ctx := testContext(t)
	dbPath := filepath.Join(t.TempDir(), "owncloud.db")

	rw, err := Open(ctx, Config{Path: dbPath, BusyTimeout: 1})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if _, err := rw.ExecContext(ctx, "CREATE TABLE oc_appconfig (appid TEXT)"); err != nil {
		t.Fatalf("ExecContext() error = %v", err)
	}
	rw.Close() //nolint:errcheck // Test setup

	ro, err := Open(ctx, Config{Path: dbPath, ReadOnly: true, BusyTimeout: 1})
	if err != nil {
		t.Fatalf("Open(read-only) error = %v", err)
	}
	defer ro.Close() //nolint:errcheck // Test cleanup

	if err := ro.HealthCheck(ctx); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
	if _, err := ro.ExecContext(ctx, "INSERT INTO oc_appconfig VALUES ('x')"); err == nil {
		t.Error("write on read-only database should fail")
	}
	if err := ro.Migrate(ctx, nil); !errors.Is(err, ErrReadOnly) {
		t.Errorf("Migrate() error = %v, want ErrReadOnly", err)
	}
}

func TestHealthCheck(t *testing.T) {
	db := openTestDB(t)
	if err := db.HealthCheck(testContext(t)); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}

func TestClose(t *testing.T) {
	db := openTestDB(t)
	if err := db.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := db.HealthCheck(testContext(t)); err == nil {
		t.Error("HealthCheck() should fail after Close()")
	}
}

func TestBeginTx(t *testing.T) {
	db := openTestDB(t)
	ctx := testContext(t)

	if _, err := db.ExecContext(ctx, "CREATE TABLE t (v TEXT)"); err != nil {
		t.Fatal(err)
	}

	t.Run("commit", func(t *testing.T) {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			t.Fatalf("BeginTx() error = %v", err)
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO t VALUES ('a')"); err != nil {
			t.Fatal(err)
		}
		if err := tx.Commit(); err != nil {
			t.Fatalf("Commit() error = %v", err)
		}
	})

	t.Run("rollback", func(t *testing.T) {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			t.Fatalf("BeginTx() error = %v", err)
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO t VALUES ('b')"); err != nil {
			t.Fatal(err)
		}
		if err := tx.Rollback(); err != nil {
			t.Fatalf("Rollback() error = %v", err)
		}
	})

	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM t").Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("row count = %d, want 1", count)
	}
}

func TestExecContext_WrapsErrors(t *testing.T) {
	db := openTestDB(t)
	if _, err := db.ExecContext(testContext(t), "NOT SQL"); err == nil {
		t.Error("ExecContext() expected error")
	}
}
