package snapshot

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/nerrad567/cloudcfg/internal/infrastructure/database"
	"github.com/nerrad567/cloudcfg/internal/settings"
	"github.com/nerrad567/cloudcfg/migrations"
)

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// setupTestRepo opens a migrated snapshot database in a temp directory.
func setupTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	ctx := testContext(t)

	db, err := database.Open(ctx, database.Config{
		Path:        filepath.Join(t.TempDir(), "snapshots.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("database.Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup

	if err := db.Migrate(ctx, migrations.FS); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return NewSQLiteRepository(db.DB)
}

func sampleRaw() map[string]any {
	return map[string]any{
		"instanceid":        "oc8c0fd71e03",
		"passwordsalt":      "u8sK2n1UeXAsOb0Ya4ZHrUZpnvPbg2",
		"secret":            "Jd7kP2yYhV1lRm0cQ9sWq3tB6nXzE4",
		"trusted_domains":   []any{"cloud.example.com"},
		"datadirectory":     "/var/www/html/data",
		"dbtype":            "sqlite3",
		"version":           "29.0.4.1",
		"overwrite.cli.url": "https://cloud.example.com",
		"installed":         true,
		"apps_paths": []any{
			map[string]any{"path": "/var/www/html/apps", "url": "/apps", "writable": false},
		},
	}
}

func withValue(raw map[string]any, key string, value any) map[string]any {
	out := make(map[string]any, len(raw)+1)
	for k, v := range raw {
		out[k] = v
	}
	out[key] = value
	return out
}

func mustLoad(t *testing.T, raw map[string]any) *settings.Configuration {
	t.Helper()
	cfg, err := settings.Load(raw, nil)
	if err != nil {
		t.Fatalf("settings.Load() error = %v", err)
	}
	return cfg
}

// snapshotAt builds a minimal valid snapshot for repository tests.
func snapshotAt(id, instance string, at time.Time) *Snapshot {
	return &Snapshot{
		ID:                id,
		InstanceID:        instance,
		LoadedAt:          at,
		SourcePath:        "/var/www/html/config/config.php",
		SourceFormat:      "php",
		KeyCount:          9,
		Description:       "dbtype: sqlite3\n",
		SecretFingerprint: "00ff",
	}
}
