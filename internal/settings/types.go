package settings

import (
	"fmt"
	"sort"
)

// Configuration is an immutable set of parsed settings.
//
// It is built by Parse and never changes afterwards; every accessor returns
// copies. A *Configuration can be shared between goroutines without locking.
type Configuration struct {
	values map[string]Value
}

// NewConfiguration builds a Configuration from already typed values.
// Parse is the usual constructor; this one serves tests and callers that
// assemble settings in code.
func NewConfiguration(values map[string]Value) *Configuration {
	cp := make(map[string]Value, len(values))
	for k, v := range values {
		cp[k] = v
	}
	return &Configuration{values: cp}
}

// Get returns the value stored under key.
func (c *Configuration) Get(key string) (Value, bool) {
	v, ok := c.values[key]
	return v, ok
}

// Has reports whether key is present.
func (c *Configuration) Has(key string) bool {
	_, ok := c.values[key]
	return ok
}

// Len returns the number of keys.
func (c *Configuration) Len() int {
	return len(c.values)
}

// Keys returns the present keys in sorted order.
func (c *Configuration) Keys() []string {
	keys := make([]string, 0, len(c.values))
	for k := range c.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// AppsPathEntry is one item of apps_paths.
type AppsPathEntry struct {
	Path     string `json:"path" yaml:"path"`
	URL      string `json:"url" yaml:"url"`
	Writable bool   `json:"writable" yaml:"writable"`
}

// DecodeAppsPaths converts an apps_paths list into entries, keeping order.
// A missing writable field means false.
func DecodeAppsPaths(v Value) ([]AppsPathEntry, error) {
	items, ok := v.AsList()
	if !ok {
		return nil, fmt.Errorf("apps_paths is %s, not list", v.Kind())
	}
	entries := make([]AppsPathEntry, 0, len(items))
	for i, item := range items {
		if item.Kind() != KindMap {
			return nil, fmt.Errorf("apps_paths[%d] is %s, not map", i, item.Kind())
		}
		var e AppsPathEntry
		if f, ok := item.Field("path"); ok {
			e.Path, _ = f.AsString()
		}
		if f, ok := item.Field("url"); ok {
			e.URL, _ = f.AsString()
		}
		if f, ok := item.Field("writable"); ok {
			e.Writable, _ = f.AsBool()
		}
		entries = append(entries, e)
	}
	return entries, nil
}
