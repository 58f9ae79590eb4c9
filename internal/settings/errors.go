package settings

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors. Every typed error in this package matches one of these
// with errors.Is:
//
//	if errors.Is(err, settings.ErrMissingRequired) {
//	    // report the missing key
//	}
var (
	// ErrTypeMismatch is matched by a ParseError whose value cannot be coerced.
	ErrTypeMismatch = errors.New("settings: type mismatch")

	// ErrMalformedStructure is matched by a ParseError for input that is not
	// a string-keyed map, or holds values no Value can represent.
	ErrMalformedStructure = errors.New("settings: malformed structure")

	// ErrUnknownKey is matched by a ParseError raised in strict mode.
	ErrUnknownKey = errors.New("settings: unknown key")

	// ErrMissingRequired is matched by a ValidationError for an absent key.
	ErrMissingRequired = errors.New("settings: missing required key")

	// ErrConstraintViolation is matched by a ValidationError for a value that
	// fails its schema predicate.
	ErrConstraintViolation = errors.New("settings: constraint violation")

	// ErrAlreadyInitialized is matched by the error returned from a second
	// Store.Init.
	ErrAlreadyInitialized = errors.New("settings: store already initialized")

	// ErrNilConfiguration is returned when a Store is given no configuration.
	ErrNilConfiguration = errors.New("settings: nil configuration")

	// ErrNotInitialized is returned by Store reads before Init.
	ErrNotInitialized = errors.New("settings: store not initialized")

	// ErrNotFound is matched by an AccessError for an absent key.
	ErrNotFound = errors.New("settings: key not found")

	// ErrWrongType is matched by an AccessError for a key of another type.
	ErrWrongType = errors.New("settings: wrong type")
)

// ParseErrorKind classifies a ParseError.
type ParseErrorKind int

// Parse error kinds.
const (
	TypeMismatch ParseErrorKind = iota + 1
	MalformedStructure
	UnknownKey
)

// ParseError describes why a raw source could not become a Configuration.
type ParseError struct {
	Kind ParseErrorKind
	// Key is the offending path, e.g. "apps_paths[1].writable". Empty for
	// problems with the top level.
	Key      string
	Expected string
	Actual   string
	Reason   string
}

func (e *ParseError) Error() string {
	switch e.Kind {
	case TypeMismatch:
		return fmt.Sprintf("%s: expected %s, got %s", e.Key, e.Expected, e.Actual)
	case UnknownKey:
		return fmt.Sprintf("%s: unknown key", e.Key)
	default:
		if e.Key == "" {
			return "malformed structure: " + e.Reason
		}
		return fmt.Sprintf("%s: malformed structure: %s", e.Key, e.Reason)
	}
}

// Is lets errors.Is match the kind sentinels.
func (e *ParseError) Is(target error) bool {
	switch e.Kind {
	case TypeMismatch:
		return target == ErrTypeMismatch
	case MalformedStructure:
		return target == ErrMalformedStructure
	case UnknownKey:
		return target == ErrUnknownKey
	}
	return false
}

// ValidationErrorKind classifies a ValidationError.
type ValidationErrorKind int

// Validation error kinds.
const (
	MissingRequired ValidationErrorKind = iota + 1
	ConstraintViolation
	AlreadyInitialized
)

func (k ValidationErrorKind) String() string {
	switch k {
	case MissingRequired:
		return "missing_required"
	case ConstraintViolation:
		return "constraint_violation"
	case AlreadyInitialized:
		return "already_initialized"
	default:
		return "unknown"
	}
}

// ValidationError is a single problem found by Validate.
type ValidationError struct {
	Kind   ValidationErrorKind
	Key    string
	Reason string
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case MissingRequired:
		if e.Reason != "" {
			return fmt.Sprintf("%s is required: %s", e.Key, e.Reason)
		}
		return e.Key + " is required"
	case ConstraintViolation:
		return fmt.Sprintf("%s: %s", e.Key, e.Reason)
	case AlreadyInitialized:
		return "configuration store already initialized"
	default:
		return e.Reason
	}
}

// Is lets errors.Is match the kind sentinels.
func (e *ValidationError) Is(target error) bool {
	switch e.Kind {
	case MissingRequired:
		return target == ErrMissingRequired
	case ConstraintViolation:
		return target == ErrConstraintViolation
	case AlreadyInitialized:
		return target == ErrAlreadyInitialized
	}
	return false
}

// ValidationReport carries every ValidationError found in one pass.
type ValidationReport struct {
	Errors []*ValidationError
}

func (r *ValidationReport) Error() string {
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Error()
	}
	return fmt.Sprintf("configuration errors (%d): %s", len(r.Errors), strings.Join(msgs, "; "))
}

// Unwrap exposes the individual errors to errors.Is and errors.As.
func (r *ValidationReport) Unwrap() []error {
	errs := make([]error, len(r.Errors))
	for i, e := range r.Errors {
		errs[i] = e
	}
	return errs
}

// Count returns how many errors of the given kind the report holds.
func (r *ValidationReport) Count(kind ValidationErrorKind) int {
	n := 0
	for _, e := range r.Errors {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// AccessErrorKind classifies an AccessError.
type AccessErrorKind int

// Access error kinds.
const (
	NotFound AccessErrorKind = iota + 1
	WrongType
)

// AccessError is returned by the typed Store accessors.
type AccessError struct {
	Kind     AccessErrorKind
	Key      string
	Expected Kind
	Actual   Kind
}

func (e *AccessError) Error() string {
	if e.Kind == NotFound {
		return fmt.Sprintf("%s: not found", e.Key)
	}
	return fmt.Sprintf("%s: is %s, not %s", e.Key, e.Actual, e.Expected)
}

// Is lets errors.Is match the kind sentinels.
func (e *AccessError) Is(target error) bool {
	switch e.Kind {
	case NotFound:
		return target == ErrNotFound
	case WrongType:
		return target == ErrWrongType
	}
	return false
}
