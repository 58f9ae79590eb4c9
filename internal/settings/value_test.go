package settings

import (
	"reflect"
	"testing"
)

func TestValue_Accessors(t *testing.T) {
	v := StringValue("sqlite3")
	if s, ok := v.AsString(); !ok || s != "sqlite3" {
		t.Errorf("AsString() = %q, %v", s, ok)
	}
	if _, ok := v.AsBool(); ok {
		t.Error("AsBool() on string should report false")
	}
	if _, ok := v.AsInt(); ok {
		t.Error("AsInt() on string should report false")
	}

	var zero Value
	if zero.IsValid() || zero.Kind() != KindInvalid {
		t.Error("zero Value should be invalid")
	}
}

func TestValue_ListCopies(t *testing.T) {
	items := []Value{StringValue("a"), StringValue("b")}
	v := ListValue(items...)
	items[0] = StringValue("changed")

	got, _ := v.Index(0)
	if !got.Equal(StringValue("a")) {
		t.Errorf("Index(0) = %v after source mutation", got)
	}

	out, _ := v.AsList()
	out[1] = StringValue("changed")
	if got, _ := v.Index(1); !got.Equal(StringValue("b")) {
		t.Errorf("Index(1) = %v after result mutation", got)
	}

	if _, ok := v.Index(5); ok {
		t.Error("Index out of range should report false")
	}
}

func TestValue_MapCopies(t *testing.T) {
	fields := map[string]Value{"host": StringValue("localhost")}
	v := MapValue(fields)
	fields["host"] = StringValue("changed")

	host, ok := v.Field("host")
	if !ok || !host.Equal(StringValue("localhost")) {
		t.Errorf("Field(host) = %v after source mutation", host)
	}
	if v.Len() != 1 {
		t.Errorf("Len() = %d, want 1", v.Len())
	}
}

func TestValue_Equal(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"same string", StringValue("x"), StringValue("x"), true},
		{"different kind", IntValue(1), BoolValue(true), false},
		{"int vs float", IntValue(1), FloatValue(1), false},
		{"nulls", NullValue(), NullValue(), true},
		{
			"nested lists",
			ListValue(MapValue(map[string]Value{"a": IntValue(1)})),
			ListValue(MapValue(map[string]Value{"a": IntValue(1)})),
			true,
		},
		{
			"map field differs",
			MapValue(map[string]Value{"a": IntValue(1)}),
			MapValue(map[string]Value{"a": IntValue(2)}),
			false,
		},
		{"list length differs", ListValue(IntValue(1)), ListValue(), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equal(tt.b); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValue_Interface(t *testing.T) {
	v := MapValue(map[string]Value{
		"port":    IntValue(6379),
		"hosts":   ListValue(StringValue("a"), StringValue("b")),
		"timeout": FloatValue(1.5),
		"unset":   NullValue(),
	})

	want := map[string]any{
		"port":    int64(6379),
		"hosts":   []any{"a", "b"},
		"timeout": 1.5,
		"unset":   nil,
	}
	if got := v.Interface(); !reflect.DeepEqual(got, want) {
		t.Errorf("Interface() = %#v, want %#v", got, want)
	}
}

func TestValue_String(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{StringValue("a"), `"a"`},
		{BoolValue(false), "false"},
		{IntValue(-4), "-4"},
		{NullValue(), "null"},
		{Value{}, "<invalid>"},
	}
	for _, tt := range tests {
		if got := tt.v.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestKind_String(t *testing.T) {
	if KindList.String() != "list" || KindMap.String() != "map" || Kind(99).String() != "invalid" {
		t.Error("unexpected Kind names")
	}
}
