package settings

import (
	"fmt"
	"sort"
	"strconv"
)

// Kind identifies which variant a Value holds.
type Kind int

// Value kinds. KindFloat and KindNull only occur for keys the schema does not
// declare, so opaque settings survive a parse without loss.
const (
	KindInvalid Kind = iota
	KindString
	KindBool
	KindInt
	KindList
	KindMap
	KindFloat
	KindNull
)

// String returns the lower-case name used in error messages.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	case KindFloat:
		return "float"
	case KindNull:
		return "null"
	default:
		return "invalid"
	}
}

// Value is an immutable configuration value.
//
// The zero Value is invalid. Lists and maps are copied on the way in and on
// the way out, so a Value can be shared freely between goroutines.
type Value struct {
	kind Kind
	str  string
	b    bool
	i    int64
	f    float64
	list []Value
	m    map[string]Value
}

// StringValue returns a string Value.
func StringValue(s string) Value { return Value{kind: KindString, str: s} }

// BoolValue returns a bool Value.
func BoolValue(b bool) Value { return Value{kind: KindBool, b: b} }

// IntValue returns an int Value.
func IntValue(i int64) Value { return Value{kind: KindInt, i: i} }

// FloatValue returns a float Value.
func FloatValue(f float64) Value { return Value{kind: KindFloat, f: f} }

// NullValue returns a null Value.
func NullValue() Value { return Value{kind: KindNull} }

// ListValue returns a list Value holding a copy of items.
func ListValue(items ...Value) Value {
	cp := make([]Value, len(items))
	copy(cp, items)
	return Value{kind: KindList, list: cp}
}

// MapValue returns a map Value holding a copy of fields.
func MapValue(fields map[string]Value) Value {
	cp := make(map[string]Value, len(fields))
	for k, v := range fields {
		cp[k] = v
	}
	return Value{kind: KindMap, m: cp}
}

// Kind reports the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsValid reports whether v holds any variant.
func (v Value) IsValid() bool { return v.kind != KindInvalid }

// AsString returns the string held by v.
func (v Value) AsString() (string, bool) { return v.str, v.kind == KindString }

// AsBool returns the bool held by v.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsInt returns the integer held by v.
func (v Value) AsInt() (int64, bool) { return v.i, v.kind == KindInt }

// AsFloat returns the float held by v.
func (v Value) AsFloat() (float64, bool) { return v.f, v.kind == KindFloat }

// AsList returns a copy of the items held by v.
func (v Value) AsList() ([]Value, bool) {
	if v.kind != KindList {
		return nil, false
	}
	cp := make([]Value, len(v.list))
	copy(cp, v.list)
	return cp, true
}

// AsMap returns a copy of the fields held by v.
func (v Value) AsMap() (map[string]Value, bool) {
	if v.kind != KindMap {
		return nil, false
	}
	cp := make(map[string]Value, len(v.m))
	for k, f := range v.m {
		cp[k] = f
	}
	return cp, true
}

// Len returns the number of items of a list or fields of a map.
func (v Value) Len() int {
	switch v.kind {
	case KindList:
		return len(v.list)
	case KindMap:
		return len(v.m)
	default:
		return 0
	}
}

// Index returns the i-th item of a list Value.
func (v Value) Index(i int) (Value, bool) {
	if v.kind != KindList || i < 0 || i >= len(v.list) {
		return Value{}, false
	}
	return v.list[i], true
}

// Field returns the named field of a map Value.
func (v Value) Field(name string) (Value, bool) {
	if v.kind != KindMap {
		return Value{}, false
	}
	f, ok := v.m[name]
	return f, ok
}

// Keys returns the sorted field names of a map Value.
func (v Value) Keys() []string {
	if v.kind != KindMap {
		return nil
	}
	keys := make([]string, 0, len(v.m))
	for k := range v.m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Interface converts v back into plain Go values: string, bool, int64,
// float64, nil, []any and map[string]any.
func (v Value) Interface() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindList:
		out := make([]any, len(v.list))
		for i, item := range v.list {
			out[i] = item.Interface()
		}
		return out
	case KindMap:
		out := make(map[string]any, len(v.m))
		for k, f := range v.m {
			out[k] = f.Interface()
		}
		return out
	default:
		return nil
	}
}

// Equal reports whether v and other hold the same variant and contents.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.str == other.str
	case KindBool:
		return v.b == other.b
	case KindInt:
		return v.i == other.i
	case KindFloat:
		return v.f == other.f
	case KindList:
		if len(v.list) != len(other.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(other.list[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(v.m) != len(other.m) {
			return false
		}
		for k, f := range v.m {
			o, ok := other.m[k]
			if !ok || !f.Equal(o) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// String renders v for diagnostics. It does not redact; use Describe for
// anything that may reach a log.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return strconv.Quote(v.str)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindNull:
		return "null"
	case KindList, KindMap:
		return fmt.Sprintf("%v", v.Interface())
	default:
		return "<invalid>"
	}
}
