package audit

import (
	"errors"
	"time"
)

// Action names an audited operation.
type Action string

// Audited actions.
const (
	ActionConfigLoad   Action = "config.load"
	ActionConfigRead   Action = "config.read"
	ActionSnapshotList Action = "snapshot.list"
	ActionSnapshotRead Action = "snapshot.read"
)

// Sources of entries.
const (
	SourceAPI   = "api"
	SourceServe = "serve"
)

// ErrInvalid is returned when an entry lacks its action or source.
var ErrInvalid = errors.New("audit: invalid entry")

// Entry is one audit trail record.
type Entry struct {
	ID     string `json:"id"`
	Action Action `json:"action"`
	// Resource is the setting key or snapshot ID, empty for whole-config reads.
	Resource  string         `json:"resource,omitempty"`
	Subject   string         `json:"subject,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
	Source    string         `json:"source"`
	Details   map[string]any `json:"details,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Filter controls which entries List returns.
type Filter struct {
	Action  Action // optional
	Subject string // optional
	Limit   int    // default 50, max 200
	Offset  int
}

// ListResult is one page of entries.
type ListResult struct {
	Entries []Entry `json:"entries"`
	Total   int     `json:"total"`
	Limit   int     `json:"limit"`
	Offset  int     `json:"offset"`
}

// Page size bounds for List.
const (
	defaultLimit = 50
	maxLimit     = 200
)

func (f *Filter) clamp() {
	if f.Limit <= 0 {
		f.Limit = defaultLimit
	}
	if f.Limit > maxLimit {
		f.Limit = maxLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
}
