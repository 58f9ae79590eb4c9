package snapshot

import "errors"

// Domain errors for the snapshot package.
var (
	// ErrNotFound is returned when a snapshot ID does not exist.
	ErrNotFound = errors.New("snapshot: not found")

	// ErrInvalid is returned when a snapshot is missing required fields.
	ErrInvalid = errors.New("snapshot: invalid")
)
