package settings

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ParseOption tunes Parse.
type ParseOption func(*parseOptions)

type parseOptions struct {
	strict bool
}

// WithStrict makes Parse reject keys the registry does not declare.
func WithStrict() ParseOption {
	return func(o *parseOptions) { o.strict = true }
}

// Parse converts a raw nested structure into a Configuration.
//
// raw must be a string-keyed map whose values are built from strings, bools,
// numbers, nil, slices and maps, as produced by the decoders in the source
// package or by encoding/json and yaml.v3. Declared keys are coerced to their
// schema type; undeclared keys are kept with an inferred type unless
// WithStrict is given.
//
// Parse has no side effects. Keys are visited in sorted order, so the error
// reported for an input with several problems is always the same one.
//
// Parameters:
//   - raw: Decoded configuration source
//   - reg: Schema registry; nil means DefaultRegistry()
//   - opts: Parse options
//
// Returns:
//   - *Configuration: Parsed configuration
//   - error: *ParseError describing the first problem found
func Parse(raw any, reg *Registry, opts ...ParseOption) (*Configuration, error) {
	if reg == nil {
		reg = DefaultRegistry()
	}
	var o parseOptions
	for _, opt := range opts {
		opt(&o)
	}

	top, ok, err := asMap("", raw)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &ParseError{
			Kind:   MalformedStructure,
			Reason: fmt.Sprintf("top level must be a map, got %s", rawKind(raw)),
		}
	}

	keys := make([]string, 0, len(top))
	for k := range top {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	values := make(map[string]Value, len(top))
	for _, key := range keys {
		entry, declared := reg.Lookup(key)
		if !declared && o.strict {
			return nil, &ParseError{Kind: UnknownKey, Key: key}
		}

		var v Value
		if declared {
			v, err = coerce(key, top[key], entry.Type)
		} else {
			v, err = infer(key, top[key])
		}
		if err != nil {
			return nil, err
		}
		values[key] = v
	}

	return &Configuration{values: values}, nil
}

// coerce converts raw into a Value of type t.
func coerce(path string, raw any, t Type) (Value, error) {
	mismatch := func() (Value, error) {
		return Value{}, &ParseError{
			Kind:     TypeMismatch,
			Key:      path,
			Expected: t.String(),
			Actual:   rawKind(raw),
		}
	}

	switch t.Kind {
	case KindString:
		switch x := raw.(type) {
		case string:
			return StringValue(x), nil
		case json.Number:
			return StringValue(x.String()), nil
		case float32, float64:
			f, _ := toFloat(x)
			return StringValue(strconv.FormatFloat(f, 'f', -1, 64)), nil
		}
		if i, ok := toInt(raw); ok {
			return StringValue(strconv.FormatInt(i, 10)), nil
		}
		return mismatch()

	case KindBool:
		switch x := raw.(type) {
		case bool:
			return BoolValue(x), nil
		case string:
			switch strings.ToLower(strings.TrimSpace(x)) {
			case "true", "1":
				return BoolValue(true), nil
			case "false", "0":
				return BoolValue(false), nil
			}
			return mismatch()
		}
		if i, ok := toInt(raw); ok && (i == 0 || i == 1) {
			return BoolValue(i == 1), nil
		}
		return mismatch()

	case KindInt:
		if i, ok := toInt(raw); ok {
			return IntValue(i), nil
		}
		if f, ok := toFloat(raw); ok && f == math.Trunc(f) && math.Abs(f) <= math.MaxInt64 {
			return IntValue(int64(f)), nil
		}
		if s, ok := raw.(string); ok {
			if i, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
				return IntValue(i), nil
			}
		}
		return mismatch()

	case KindList:
		items, ok := asSlice(raw)
		if !ok {
			m, isMap, err := asMap(path, raw)
			if err != nil {
				return Value{}, err
			}
			if !isMap {
				return mismatch()
			}
			if items, ok = listFromIndexedMap(m); !ok {
				return mismatch()
			}
		}
		out := make([]Value, len(items))
		for i, item := range items {
			itemPath := fmt.Sprintf("%s[%d]", path, i)
			var v Value
			var err error
			if t.Elem != nil {
				v, err = coerce(itemPath, item, *t.Elem)
			} else {
				v, err = infer(itemPath, item)
			}
			if err != nil {
				return Value{}, err
			}
			out[i] = v
		}
		return Value{kind: KindList, list: out}, nil

	case KindMap:
		m, ok, err := asMap(path, raw)
		if err != nil {
			return Value{}, err
		}
		if !ok {
			return mismatch()
		}
		out := make(map[string]Value, len(m))
		for _, name := range sortedKeys(m) {
			fieldPath := path + "." + name
			var v Value
			if ft, declared := t.field(name); declared {
				v, err = coerce(fieldPath, m[name], ft)
			} else {
				v, err = infer(fieldPath, m[name])
			}
			if err != nil {
				return Value{}, err
			}
			out[name] = v
		}
		return Value{kind: KindMap, m: out}, nil
	}

	return Value{}, &ParseError{
		Kind:   MalformedStructure,
		Key:    path,
		Reason: fmt.Sprintf("schema declares unsupported kind %s", t.Kind),
	}
}

// infer converts raw into a Value of whatever kind it naturally has.
func infer(path string, raw any) (Value, error) {
	switch x := raw.(type) {
	case nil:
		return NullValue(), nil
	case string:
		return StringValue(x), nil
	case bool:
		return BoolValue(x), nil
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return IntValue(i), nil
		}
		f, err := x.Float64()
		if err != nil {
			return Value{}, &ParseError{Kind: MalformedStructure, Key: path, Reason: "invalid number " + x.String()}
		}
		return FloatValue(f), nil
	case time.Time:
		return StringValue(x.Format(time.RFC3339)), nil
	}
	if i, ok := toInt(raw); ok {
		return IntValue(i), nil
	}
	if f, ok := toFloat(raw); ok {
		return FloatValue(f), nil
	}
	if items, ok := asSlice(raw); ok {
		out := make([]Value, len(items))
		for i, item := range items {
			v, err := infer(fmt.Sprintf("%s[%d]", path, i), item)
			if err != nil {
				return Value{}, err
			}
			out[i] = v
		}
		return Value{kind: KindList, list: out}, nil
	}
	m, ok, err := asMap(path, raw)
	if err != nil {
		return Value{}, err
	}
	if ok {
		out := make(map[string]Value, len(m))
		for _, name := range sortedKeys(m) {
			v, err := infer(path+"."+name, m[name])
			if err != nil {
				return Value{}, err
			}
			out[name] = v
		}
		return Value{kind: KindMap, m: out}, nil
	}
	return Value{}, &ParseError{
		Kind:   MalformedStructure,
		Key:    path,
		Reason: fmt.Sprintf("unsupported value of type %T", raw),
	}
}

// toInt reports raw as an int64 when it is any Go integer type that fits.
func toInt(raw any) (int64, bool) {
	switch x := raw.(type) {
	case int:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case uint:
		return int64(x), uint64(x) <= math.MaxInt64
	case uint8:
		return int64(x), true
	case uint16:
		return int64(x), true
	case uint32:
		return int64(x), true
	case uint64:
		return int64(x), x <= math.MaxInt64 //nolint:gosec // G115: bounded by the check
	case json.Number:
		i, err := x.Int64()
		return i, err == nil
	}
	return 0, false
}

// toFloat reports raw as a float64 for Go float types and json.Number.
func toFloat(raw any) (float64, bool) {
	switch x := raw.(type) {
	case float32:
		return float64(x), true
	case float64:
		return x, true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	}
	return 0, false
}

// asSlice returns the items of any Go slice or array except []byte.
func asSlice(raw any) ([]any, bool) {
	if items, ok := raw.([]any); ok {
		return items, true
	}
	rv := reflect.ValueOf(raw)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	if rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// asMap returns a string-keyed copy of any Go map. Integer keys are rendered
// in decimal; other key types are malformed.
func asMap(path string, raw any) (map[string]any, bool, error) {
	if m, ok := raw.(map[string]any); ok {
		return m, true, nil
	}
	rv := reflect.ValueOf(raw)
	if rv.Kind() != reflect.Map {
		return nil, false, nil
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		k := iter.Key()
		for k.Kind() == reflect.Interface && !k.IsNil() {
			k = k.Elem()
		}
		var name string
		switch k.Kind() {
		case reflect.String:
			name = k.String()
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			name = strconv.FormatInt(k.Int(), 10)
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			name = strconv.FormatUint(k.Uint(), 10)
		default:
			return nil, false, &ParseError{
				Kind:   MalformedStructure,
				Key:    path,
				Reason: fmt.Sprintf("map key of type %s", k.Type()),
			}
		}
		if _, dup := out[name]; dup {
			return nil, false, &ParseError{
				Kind:   MalformedStructure,
				Key:    path,
				Reason: fmt.Sprintf("duplicate key %q", name),
			}
		}
		out[name] = iter.Value().Interface()
	}
	return out, true, nil
}

// listFromIndexedMap turns a map keyed exactly "0".."n-1" into a slice.
func listFromIndexedMap(m map[string]any) ([]any, bool) {
	out := make([]any, len(m))
	for k, v := range m {
		i, err := strconv.Atoi(k)
		if err != nil || i < 0 || i >= len(m) || strconv.Itoa(i) != k {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// rawKind names the kind of a raw value for TypeMismatch reports.
func rawKind(raw any) string {
	switch raw.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "bool"
	}
	if _, ok := toInt(raw); ok {
		return "int"
	}
	if _, ok := toFloat(raw); ok {
		return "float"
	}
	if _, ok := asSlice(raw); ok {
		return "list"
	}
	if reflect.ValueOf(raw).Kind() == reflect.Map {
		return "map"
	}
	return fmt.Sprintf("%T", raw)
}
