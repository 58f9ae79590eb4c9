package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// timeLayout is fixed-width so loaded_at sorts correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Repository defines snapshot persistence.
type Repository interface {
	// Save inserts a snapshot.
	Save(ctx context.Context, s *Snapshot) error

	// Get retrieves a snapshot by ID.
	// Returns ErrNotFound if it does not exist.
	Get(ctx context.Context, id string) (*Snapshot, error)

	// List returns snapshots newest first. An empty instanceID lists all
	// instances; limit <= 0 means no limit.
	List(ctx context.Context, instanceID string, limit int) ([]Snapshot, error)

	// Latest returns the newest snapshot of an instance.
	// Returns ErrNotFound if there is none.
	Latest(ctx context.Context, instanceID string) (*Snapshot, error)

	// Prune keeps the newest keep snapshots per instance and deletes the
	// rest, returning how many were removed.
	Prune(ctx context.Context, keep int) (int64, error)
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a repository over an open, migrated database.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const selectColumns = `
	SELECT id, instance_id, loaded_at, source_path, source_format,
		key_count, warning_count, description, secret_fingerprint
	FROM config_snapshots`

// Save inserts a snapshot.
func (r *SQLiteRepository) Save(ctx context.Context, s *Snapshot) error {
	if err := s.validate(); err != nil {
		return err
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO config_snapshots (
			id, instance_id, loaded_at, source_path, source_format,
			key_count, warning_count, description, secret_fingerprint
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.InstanceID, s.LoadedAt.UTC().Format(timeLayout), s.SourcePath, s.SourceFormat,
		s.KeyCount, s.WarningCount, s.Description, s.SecretFingerprint,
	)
	if err != nil {
		return fmt.Errorf("inserting snapshot: %w", err)
	}
	return nil
}

// Get retrieves a snapshot by ID.
func (r *SQLiteRepository) Get(ctx context.Context, id string) (*Snapshot, error) {
	row := r.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id)
	s, err := scanSnapshot(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying snapshot by id: %w", err)
	}
	return s, nil
}

// List returns snapshots newest first.
func (r *SQLiteRepository) List(ctx context.Context, instanceID string, limit int) ([]Snapshot, error) {
	query := selectColumns
	var args []any
	if instanceID != "" {
		query += ` WHERE instance_id = ?`
		args = append(args, instanceID)
	}
	query += ` ORDER BY loaded_at DESC, id`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying snapshots: %w", err)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning snapshot: %w", err)
		}
		out = append(out, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating snapshots: %w", err)
	}
	return out, nil
}

// Latest returns the newest snapshot of an instance.
func (r *SQLiteRepository) Latest(ctx context.Context, instanceID string) (*Snapshot, error) {
	list, err := r.List(ctx, instanceID, 1)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, ErrNotFound
	}
	return &list[0], nil
}

// Prune keeps the newest keep snapshots per instance. keep <= 0 deletes
// nothing.
func (r *SQLiteRepository) Prune(ctx context.Context, keep int) (int64, error) {
	if keep <= 0 {
		return 0, nil
	}
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM config_snapshots
		WHERE id IN (
			SELECT id FROM (
				SELECT id, ROW_NUMBER() OVER (
					PARTITION BY instance_id ORDER BY loaded_at DESC, id
				) AS rn
				FROM config_snapshots
			) WHERE rn > ?
		)`, keep)
	if err != nil {
		return 0, fmt.Errorf("pruning snapshots: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting pruned snapshots: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row scanner) (*Snapshot, error) {
	var s Snapshot
	var loadedAt string
	if err := row.Scan(
		&s.ID, &s.InstanceID, &loadedAt, &s.SourcePath, &s.SourceFormat,
		&s.KeyCount, &s.WarningCount, &s.Description, &s.SecretFingerprint,
	); err != nil {
		return nil, err
	}
	t, err := time.Parse(timeLayout, loadedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing loaded_at %q: %w", loadedAt, err)
	}
	s.LoadedAt = t
	return &s, nil
}
