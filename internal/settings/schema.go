package settings

import (
	"fmt"
	"strings"
	"sync"
)

// Type is the expected shape of a configuration value.
type Type struct {
	Kind Kind
	// Elem is the item type of a list. Nil accepts any item.
	Elem *Type
	// Fields declares known fields of a map. Undeclared fields are kept
	// with an inferred type.
	Fields []Field
}

// Field is a declared field of a map Type.
type Field struct {
	Name string
	Type Type
}

// Common types.
var (
	StringType = Type{Kind: KindString}
	BoolType   = Type{Kind: KindBool}
	IntType    = Type{Kind: KindInt}
)

// ListOf returns a list type with the given item type.
func ListOf(elem Type) Type {
	return Type{Kind: KindList, Elem: &elem}
}

// MapOf returns a map type with the given declared fields.
func MapOf(fields ...Field) Type {
	return Type{Kind: KindMap, Fields: fields}
}

// field returns the declared field type by name.
func (t Type) field(name string) (Type, bool) {
	for _, f := range t.Fields {
		if f.Name == name {
			return f.Type, true
		}
	}
	return Type{}, false
}

// String renders the type as used in error messages, e.g. "list<string>".
func (t Type) String() string {
	if t.Kind == KindList && t.Elem != nil {
		return "list<" + t.Elem.String() + ">"
	}
	return t.Kind.String()
}

// Predicate checks a parsed value. The returned error's message becomes the
// reason of a ConstraintViolation, so it must not quote secret values.
type Predicate func(v Value) error

// SchemaEntry declares one recognised configuration key.
type SchemaEntry struct {
	Key      string
	Type     Type
	Required bool
	// Default is used by Store reads when the key is absent. The zero Value
	// means no default.
	Default     Value
	Sensitive   bool
	Validate    Predicate
	Description string
}

// Registry is the static set of recognised keys.
//
// A Registry is immutable once built and safe for concurrent use.
type Registry struct {
	entries map[string]SchemaEntry
	order   []string
}

// NewRegistry builds a Registry from entries, in declaration order.
//
// Returns an error for empty or duplicate keys and for defaults whose kind
// does not match the declared type.
func NewRegistry(entries ...SchemaEntry) (*Registry, error) {
	r := &Registry{
		entries: make(map[string]SchemaEntry, len(entries)),
		order:   make([]string, 0, len(entries)),
	}
	for _, e := range entries {
		if e.Key == "" {
			return nil, fmt.Errorf("schema: entry with empty key")
		}
		if _, dup := r.entries[e.Key]; dup {
			return nil, fmt.Errorf("schema: duplicate key %q", e.Key)
		}
		if e.Default.IsValid() && e.Default.Kind() != e.Type.Kind {
			return nil, fmt.Errorf("schema: default for %q is %s, declared %s", e.Key, e.Default.Kind(), e.Type)
		}
		r.entries[e.Key] = e
		r.order = append(r.order, e.Key)
	}
	return r, nil
}

// MustNewRegistry is like NewRegistry but panics on error. Use it only for
// registries declared in code.
func MustNewRegistry(entries ...SchemaEntry) *Registry {
	r, err := NewRegistry(entries...)
	if err != nil {
		panic(err)
	}
	return r
}

// Lookup returns the entry for key.
func (r *Registry) Lookup(key string) (SchemaEntry, bool) {
	e, ok := r.entries[key]
	return e, ok
}

// Keys returns the declared keys in declaration order.
func (r *Registry) Keys() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Entries returns all entries in declaration order.
func (r *Registry) Entries() []SchemaEntry {
	out := make([]SchemaEntry, 0, len(r.order))
	for _, k := range r.order {
		out = append(out, r.entries[k])
	}
	return out
}

// sensitiveMarkers flag undeclared keys that look like credentials.
var sensitiveMarkers = []string{"password", "secret", "salt", "token", "apikey", "api_key"}

// IsSensitive reports whether the value of key must be masked on display.
// Declared keys use their Sensitive flag; undeclared keys are matched by name.
func (r *Registry) IsSensitive(key string) bool {
	if e, ok := r.entries[key]; ok {
		return e.Sensitive
	}
	lower := strings.ToLower(key)
	for _, m := range sensitiveMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// Database types accepted for dbtype.
const (
	DBTypeSQLite = "sqlite3"
	DBTypeMySQL  = "mysql"
	DBTypePgSQL  = "pgsql"
)

// AppsPathEntryType is the shape of one apps_paths item.
var AppsPathEntryType = MapOf(
	Field{Name: "path", Type: StringType},
	Field{Name: "url", Type: StringType},
	Field{Name: "writable", Type: BoolType},
)

var defaultRegistry = sync.OnceValue(func() *Registry {
	return MustNewRegistry(serverEntries()...)
})

// DefaultRegistry returns the registry for the file-sync server's config.php.
// It is built on first use and shared afterwards.
func DefaultRegistry() *Registry {
	return defaultRegistry()
}

// serverEntries declares the recognised keys of config.php.
func serverEntries() []SchemaEntry {
	return []SchemaEntry{
		{
			Key:         "instanceid",
			Type:        StringType,
			Required:    true,
			Validate:    NonEmpty(),
			Description: "Unique identifier of this installation.",
		},
		{
			Key:         "passwordsalt",
			Type:        StringType,
			Required:    true,
			Sensitive:   true,
			Validate:    NonEmpty(),
			Description: "Salt used when hashing user passwords.",
		},
		{
			Key:         "secret",
			Type:        StringType,
			Required:    true,
			Sensitive:   true,
			Validate:    NonEmpty(),
			Description: "Server secret used for signing and encryption.",
		},
		{
			Key:         "dbtype",
			Type:        StringType,
			Required:    true,
			Validate:    OneOf(DBTypeSQLite, DBTypeMySQL, DBTypePgSQL),
			Description: "Database backend.",
		},
		{
			Key:         "datadirectory",
			Type:        StringType,
			Required:    true,
			Validate:    NonEmpty(),
			Description: "Directory holding user files and the SQLite database.",
		},
		{
			Key:         "trusted_domains",
			Type:        ListOf(StringType),
			Required:    true,
			Validate:    TrustedDomains(),
			Description: "Host names the server answers to; * matches any.",
		},
		{
			Key:         "apps_paths",
			Type:        ListOf(AppsPathEntryType),
			Required:    true,
			Validate:    AppsPaths(),
			Description: "App directories in search order.",
		},
		{
			Key:         "installed",
			Type:        BoolType,
			Required:    true,
			Description: "Whether installation has completed.",
		},
		{
			Key:         "overwrite.cli.url",
			Type:        StringType,
			Validate:    AbsoluteURL(),
			Description: "Base URL used by command line jobs.",
		},
		{
			Key:         "version",
			Type:        StringType,
			Description: "Installed server version.",
		},
		{
			Key:         "htaccess.RewriteBase",
			Type:        StringType,
			Validate:    HasPrefix("/"),
			Description: "Rewrite base for pretty URLs.",
		},
		{
			Key:         "memcache.local",
			Type:        StringType,
			Description: "Local memory cache class.",
		},
		{
			Key:         "upgrade.disable-web",
			Type:        BoolType,
			Default:     BoolValue(false),
			Description: "Disable the web based updater.",
		},
		{
			Key:         "dbhost",
			Type:        StringType,
			Validate:    NonEmpty(),
			Description: "Database host, optionally with :port or a socket path.",
		},
		{
			Key:         "dbname",
			Type:        StringType,
			Validate:    NonEmpty(),
			Description: "Database name.",
		},
		{
			Key:         "dbuser",
			Type:        StringType,
			Validate:    NonEmpty(),
			Description: "Database user.",
		},
		{
			Key:         "dbpassword",
			Type:        StringType,
			Sensitive:   true,
			Description: "Database password.",
		},
		{
			Key:         "dbport",
			Type:        IntType,
			Validate:    IntRange(1, 65535),
			Description: "Database port when not part of dbhost.",
		},
		{
			Key:         "dbtableprefix",
			Type:        StringType,
			Default:     StringValue("oc_"),
			Description: "Prefix of every table name.",
		},
		{
			Key:         "loglevel",
			Type:        IntType,
			Default:     IntValue(2),
			Validate:    IntRange(0, 4),
			Description: "0 debug, 1 info, 2 warning, 3 error, 4 fatal.",
		},
	}
}
