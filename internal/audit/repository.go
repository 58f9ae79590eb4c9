package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// timeLayout is fixed-width so created_at sorts correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Repository defines audit trail persistence.
type Repository interface {
	// Create inserts an entry, filling in ID and CreatedAt when empty.
	Create(ctx context.Context, e *Entry) error

	// List returns entries matching the filter, newest first.
	List(ctx context.Context, filter Filter) (*ListResult, error)
}

// SQLiteRepository stores the audit trail in SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a repository over an open, migrated database.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Create inserts an entry. The ID and CreatedAt are generated if empty.
func (r *SQLiteRepository) Create(ctx context.Context, e *Entry) error {
	if e.Action == "" || e.Source == "" {
		return fmt.Errorf("%w: action and source are required", ErrInvalid)
	}
	if e.ID == "" {
		e.ID = "aud-" + uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	var details *string
	if len(e.Details) > 0 {
		b, err := json.Marshal(e.Details)
		if err != nil {
			return fmt.Errorf("marshalling audit details: %w", err)
		}
		s := string(b)
		details = &s
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_log (id, action, resource, subject, request_id, source, details, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, string(e.Action),
		nullableString(e.Resource), nullableString(e.Subject), nullableString(e.RequestID),
		e.Source, details,
		e.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("inserting audit entry: %w", err)
	}
	return nil
}

// nullableString maps "" to NULL for optional TEXT columns.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// List returns entries matching the filter, newest first.
func (r *SQLiteRepository) List(ctx context.Context, filter Filter) (*ListResult, error) {
	filter.clamp()

	var conditions []string
	var args []any
	if filter.Action != "" {
		conditions = append(conditions, "action = ?")
		args = append(args, string(filter.Action))
	}
	if filter.Subject != "" {
		conditions = append(conditions, "subject = ?")
		args = append(args, filter.Subject)
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM audit_log " + where //nolint:gosec // WHERE built from fixed conditions with ? placeholders
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting audit entries: %w", err)
	}

	query := `SELECT id, action, resource, subject, request_id, source, details, created_at
		FROM audit_log ` + where + ` ORDER BY created_at DESC, id LIMIT ? OFFSET ?` //nolint:gosec // as above
	rows, err := r.db.QueryContext(ctx, query, append(args, filter.Limit, filter.Offset)...)
	if err != nil {
		return nil, fmt.Errorf("querying audit entries: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating audit entries: %w", err)
	}

	return &ListResult{
		Entries: entries,
		Total:   total,
		Limit:   filter.Limit,
		Offset:  filter.Offset,
	}, nil
}

func scanEntry(rows *sql.Rows) (Entry, error) {
	var e Entry
	var action, createdAt string
	var resource, subject, requestID, details sql.NullString

	if err := rows.Scan(&e.ID, &action, &resource, &subject, &requestID,
		&e.Source, &details, &createdAt); err != nil {
		return Entry{}, fmt.Errorf("scanning audit entry: %w", err)
	}

	e.Action = Action(action)
	e.Resource = resource.String
	e.Subject = subject.String
	e.RequestID = requestID.String
	if details.Valid && details.String != "" {
		if err := json.Unmarshal([]byte(details.String), &e.Details); err != nil {
			return Entry{}, fmt.Errorf("decoding audit details of %s: %w", e.ID, err)
		}
	}

	t, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return Entry{}, fmt.Errorf("parsing audit timestamp %q: %w", createdAt, err)
	}
	e.CreatedAt = t
	return e, nil
}
