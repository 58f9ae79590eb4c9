package settings

import (
	"fmt"
	"regexp"
	"strings"
)

// databaseCredentialKeys must be present for the mysql and pgsql backends.
var databaseCredentialKeys = []string{"dbhost", "dbname", "dbuser", "dbpassword"}

// Validate applies the registry rules to cfg and reports every problem.
//
// Checks run in this order, without stopping at the first failure:
//  1. Every required key is present (MissingRequired)
//  2. Every present declared key satisfies its predicate (ConstraintViolation)
//  3. A mysql or pgsql dbtype needs dbhost, dbname, dbuser and dbpassword
//     (MissingRequired)
//
// Validate never modifies cfg. On success it returns cfg itself.
//
// Parameters:
//   - cfg: Parsed configuration
//   - reg: Schema registry; nil means DefaultRegistry()
//
// Returns:
//   - *Configuration: cfg, unchanged, when valid
//   - error: *ValidationReport listing all problems
func Validate(cfg *Configuration, reg *Registry) (*Configuration, error) {
	if reg == nil {
		reg = DefaultRegistry()
	}

	var errs []*ValidationError

	for _, entry := range reg.Entries() {
		if entry.Required && !cfg.Has(entry.Key) {
			errs = append(errs, &ValidationError{Kind: MissingRequired, Key: entry.Key})
		}
	}

	for _, key := range cfg.Keys() {
		entry, ok := reg.Lookup(key)
		if !ok {
			continue
		}
		v, _ := cfg.Get(key)
		if v.Kind() != entry.Type.Kind {
			// Only reachable for configurations built by hand.
			errs = append(errs, &ValidationError{
				Kind:   ConstraintViolation,
				Key:    key,
				Reason: fmt.Sprintf("expected %s, got %s", entry.Type, v.Kind()),
			})
			continue
		}
		if entry.Validate == nil {
			continue
		}
		if err := entry.Validate(v); err != nil {
			errs = append(errs, &ValidationError{Kind: ConstraintViolation, Key: key, Reason: err.Error()})
		}
	}

	errs = append(errs, checkDatabaseCredentials(cfg)...)

	if len(errs) > 0 {
		return nil, &ValidationReport{Errors: errs}
	}
	return cfg, nil
}

// checkDatabaseCredentials enforces the cross-field rule for server databases.
func checkDatabaseCredentials(cfg *Configuration) []*ValidationError {
	v, ok := cfg.Get("dbtype")
	if !ok {
		return nil
	}
	dbtype, _ := v.AsString()
	if dbtype != DBTypeMySQL && dbtype != DBTypePgSQL {
		return nil
	}
	var errs []*ValidationError
	for _, key := range databaseCredentialKeys {
		if !cfg.Has(key) {
			errs = append(errs, &ValidationError{
				Kind:   MissingRequired,
				Key:    key,
				Reason: fmt.Sprintf("needed when dbtype is %q", dbtype),
			})
		}
	}
	return errs
}

var placeholderPattern = regexp.MustCompile(`^(x{3,}|changeme|change-me|todo|<[^>]*>|\$\{[^}]*\})$`)

// Placeholders returns the sorted keys whose string value looks like an
// unfilled template placeholder such as "xxx" or "<secret>". These are not
// validation errors; callers decide whether to warn.
func Placeholders(cfg *Configuration) []string {
	var keys []string
	for _, key := range cfg.Keys() {
		v, _ := cfg.Get(key)
		s, ok := v.AsString()
		if !ok {
			continue
		}
		if placeholderPattern.MatchString(strings.ToLower(strings.TrimSpace(s))) {
			keys = append(keys, key)
		}
	}
	return keys
}
