package audit

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/nerrad567/cloudcfg/internal/infrastructure/database"
	"github.com/nerrad567/cloudcfg/migrations"
)

func setupTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, database.Config{
		Path:        filepath.Join(t.TempDir(), "audit.db"),
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

var testEpoch = time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)

func TestCreate(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	e := &Entry{
		Action:    ActionConfigRead,
		Resource:  "dbtype",
		Subject:   "alice",
		RequestID: "req-1",
		Source:    SourceAPI,
		Details:   map[string]any{"status": 200},
	}
	if err := repo.Create(ctx, e); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if e.ID == "" || e.CreatedAt.IsZero() {
		t.Errorf("Create() did not fill ID and CreatedAt: %+v", e)
	}

	res, err := repo.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if res.Total != 1 || len(res.Entries) != 1 {
		t.Fatalf("List() = %+v", res)
	}
	got := res.Entries[0]
	if got.ID != e.ID || got.Action != ActionConfigRead || got.Resource != "dbtype" ||
		got.Subject != "alice" || got.RequestID != "req-1" || got.Source != SourceAPI {
		t.Errorf("entry = %+v", got)
	}
	if got.Details["status"] != float64(200) {
		t.Errorf("details = %v", got.Details)
	}
	if !got.CreatedAt.Equal(e.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, e.CreatedAt)
	}
}

func TestCreate_Invalid(t *testing.T) {
	repo := setupTestRepo(t)

	tests := []struct {
		name  string
		entry Entry
	}{
		{"no action", Entry{Source: SourceAPI}},
		{"no source", Entry{Action: ActionConfigRead}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := repo.Create(context.Background(), &tt.entry); !errors.Is(err, ErrInvalid) {
				t.Errorf("Create() error = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestList_Filters(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	seed := []Entry{
		{Action: ActionConfigLoad, Source: SourceServe},
		{Action: ActionConfigRead, Subject: "alice", Source: SourceAPI},
		{Action: ActionConfigRead, Resource: "secret", Subject: "bob", Source: SourceAPI},
		{Action: ActionSnapshotRead, Resource: "snap-1", Subject: "alice", Source: SourceAPI},
	}
	for i := range seed {
		seed[i].CreatedAt = testEpoch.Add(time.Duration(i) * time.Minute)
		if err := repo.Create(ctx, &seed[i]); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		name      string
		filter    Filter
		wantTotal int
		wantFirst Action
		wantLen   int
	}{
		{"all newest first", Filter{}, 4, ActionSnapshotRead, 4},
		{"by action", Filter{Action: ActionConfigRead}, 2, ActionConfigRead, 2},
		{"by subject", Filter{Subject: "alice"}, 2, ActionSnapshotRead, 2},
		{"paged", Filter{Limit: 1, Offset: 1}, 4, ActionConfigRead, 1},
		{"no match", Filter{Subject: "carol"}, 0, "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := repo.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if res.Total != tt.wantTotal || len(res.Entries) != tt.wantLen {
				t.Fatalf("total = %d, len = %d, want %d and %d", res.Total, len(res.Entries), tt.wantTotal, tt.wantLen)
			}
			if tt.wantLen > 0 && res.Entries[0].Action != tt.wantFirst {
				t.Errorf("first action = %s, want %s", res.Entries[0].Action, tt.wantFirst)
			}
			if res.Entries == nil {
				t.Error("Entries should be empty, not nil")
			}
		})
	}
}

func TestFilter_Clamp(t *testing.T) {
	tests := []struct {
		in         Filter
		wantLimit  int
		wantOffset int
	}{
		{Filter{}, defaultLimit, 0},
		{Filter{Limit: 10, Offset: 5}, 10, 5},
		{Filter{Limit: 1000}, maxLimit, 0},
		{Filter{Limit: -1, Offset: -3}, defaultLimit, 0},
	}
	for _, tt := range tests {
		f := tt.in
		f.clamp()
		if f.Limit != tt.wantLimit || f.Offset != tt.wantOffset {
			t.Errorf("clamp(%+v) = %+v", tt.in, f)
		}
	}
}
