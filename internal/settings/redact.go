package settings

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Mask replaces every sensitive value on display. Its length is fixed so the
// output says nothing about the length of the secret.
const Mask = "****"

// Description is a redacted, display-only rendering of a Configuration.
// Values are plain Go values (string, bool, int64, float64, nil, []any,
// map[string]any), so it marshals cleanly to YAML and JSON.
type Description map[string]any

// Describe renders cfg for logs, support bundles and the diagnostic API.
//
// Keys the registry marks sensitive, undeclared keys whose names look like
// credentials, and such fields nested inside maps are replaced by Mask. The
// stored configuration is not touched.
func Describe(cfg *Configuration, reg *Registry) Description {
	if reg == nil {
		reg = DefaultRegistry()
	}
	out := make(Description, cfg.Len())
	for _, key := range cfg.Keys() {
		v, _ := cfg.Get(key)
		if reg.IsSensitive(key) {
			out[key] = Mask
			continue
		}
		out[key] = redactNested(v)
	}
	return out
}

// WithDefaults adds the registry default of every declared key absent from d.
// Present keys are left as they are. It returns d.
func (d Description) WithDefaults(reg *Registry) Description {
	if reg == nil {
		reg = DefaultRegistry()
	}
	for _, entry := range reg.Entries() {
		if _, present := d[entry.Key]; present || !entry.Default.IsValid() {
			continue
		}
		d[entry.Key] = DescribeValue(entry.Key, entry.Default, reg)
	}
	return d
}

// DescribeValue renders a single value of key the same way Describe does.
func DescribeValue(key string, v Value, reg *Registry) any {
	if reg == nil {
		reg = DefaultRegistry()
	}
	if reg.IsSensitive(key) {
		return Mask
	}
	return redactNested(v)
}

// redactNested converts v to plain values, masking credential-like fields of
// nested maps.
func redactNested(v Value) any {
	switch v.Kind() {
	case KindList:
		items, _ := v.AsList()
		out := make([]any, len(items))
		for i, item := range items {
			out[i] = redactNested(item)
		}
		return out
	case KindMap:
		out := make(map[string]any, v.Len())
		for _, name := range v.Keys() {
			f, _ := v.Field(name)
			if sensitiveName(name) {
				out[name] = Mask
				continue
			}
			out[name] = redactNested(f)
		}
		return out
	default:
		return v.Interface()
	}
}

func sensitiveName(name string) bool {
	lower := strings.ToLower(name)
	for _, m := range sensitiveMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// YAML renders the description as a YAML document with sorted keys.
func (d Description) YAML() ([]byte, error) {
	out, err := yaml.Marshal(map[string]any(d))
	if err != nil {
		return nil, fmt.Errorf("rendering description: %w", err)
	}
	return out, nil
}

// LogValue implements slog.LogValuer so a Description can be logged as a
// group.
func (d Description) LogValue() slog.Value {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	attrs := make([]slog.Attr, 0, len(keys))
	for _, k := range keys {
		attrs = append(attrs, slog.Any(k, d[k]))
	}
	return slog.GroupValue(attrs...)
}

// LogValue implements slog.LogValuer, so passing a *Configuration to a logger
// emits Describe(c, DefaultRegistry()) and never the raw secrets. Use Describe
// directly for configurations checked against a custom registry.
func (c *Configuration) LogValue() slog.Value {
	return Describe(c, nil).LogValue()
}
