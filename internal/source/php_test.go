package source

import (
	"errors"
	"reflect"
	"testing"
)

func decodeOK(t *testing.T, src string) map[string]any {
	t.Helper()
	raw, err := Decode(FormatPHP, []byte(src))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	return raw
}

func TestDecodePHP_Literals(t *testing.T) {
	raw := decodeOK(t, `<?php
$CONFIG = [
  'single' => 'it\'s a \\ path \n',
  "double" => "tab\there \x41\101 \u{1F600} \$x",
  'int' => 42,
  'neg' => -7,
  'hex' => 0x1F,
  'oct' => 0755,
  'bin' => 0b101,
  'sep' => 1_000_000,
  'float' => 1.5e3,
  'big' => 9223372036854775808,
  'yes' => TRUE,
  'no' => false,
  'nothing' => NULL,
];
`)

	want := map[string]any{
		"single":  `it's a \ path \n`,
		"double":  "tab\there AA \U0001F600 $x",
		"int":     int64(42),
		"neg":     int64(-7),
		"hex":     int64(31),
		"oct":     int64(493),
		"bin":     int64(5),
		"sep":     int64(1000000),
		"float":   1500.0,
		"big":     9223372036854775808.0,
		"yes":     true,
		"no":      false,
		"nothing": nil,
	}
	if !reflect.DeepEqual(raw, want) {
		t.Errorf("Decode() =\n%#v\nwant\n%#v", raw, want)
	}
}

func TestDecodePHP_Arrays(t *testing.T) {
	raw := decodeOK(t, `<?php
$CONFIG = array (
  'implicit' => array ('a', 'b'),
  'explicit' => array (0 => 'a', 1 => 'b',),
  'string_index' => array ('0' => 'a', '1' => 'b'),
  'gap' => array (0 => 'a', 2 => 'b'),
  'continue' => array (5 => 'a', 'b'),
  'mixed' => array ('x' => 1, 'y'),
  'empty' => array (),
  'nested' => [['host' => 'localhost', 'port' => 6379]],
);`)

	want := map[string]any{
		"implicit":     []any{"a", "b"},
		"explicit":     []any{"a", "b"},
		"string_index": []any{"a", "b"},
		"gap":          map[string]any{"0": "a", "2": "b"},
		"continue":     map[string]any{"5": "a", "6": "b"},
		"mixed":        map[string]any{"x": int64(1), "0": "y"},
		"empty":        []any{},
		"nested":       []any{map[string]any{"host": "localhost", "port": int64(6379)}},
	}
	if !reflect.DeepEqual(raw, want) {
		t.Errorf("Decode() =\n%#v\nwant\n%#v", raw, want)
	}
}

func TestDecodePHP_CommentsAndStatements(t *testing.T) {
	raw := decodeOK(t, `<?php
// Generated by the installer.
# legacy comment
/* block
   comment */
$CONFIG = array (
  'dbtype' => 'sqlite3', // trailing
);
$CONFIG['dbtype'] = 'pgsql';
$CONFIG['trusted_domains'] = array('cloud.example.com');
?>
trailing html is ignored`)

	if raw["dbtype"] != "pgsql" {
		t.Errorf("dbtype = %v, want pgsql (later assignment wins)", raw["dbtype"])
	}
	if !reflect.DeepEqual(raw["trusted_domains"], []any{"cloud.example.com"}) {
		t.Errorf("trusted_domains = %v", raw["trusted_domains"])
	}
}

func TestDecodePHP_DuplicateKeyKeepsLast(t *testing.T) {
	raw := decodeOK(t, `<?php $CONFIG = ['a' => 1, 'a' => 2];`)
	if raw["a"] != int64(2) {
		t.Errorf("a = %v, want 2", raw["a"])
	}
}

func TestDecodePHP_ScalarKeysAreCast(t *testing.T) {
	raw := decodeOK(t, `<?php
$CONFIG = array (
  'bools' => array (false => 'a', true => 'b'),
  'floats' => array (0.9 => 'a', 1.5 => 'b', -2.7 => 'c'),
  'null' => array (null => 'x', 2 => 'y'),
  'overwrite' => array (1 => 'a', 1.2 => 'b', true => 'c'),
);
$CONFIG[null] = 'empty';`)

	want := map[string]any{
		"bools":     []any{"a", "b"},
		"floats":    map[string]any{"0": "a", "1": "b", "-2": "c"},
		"null":      map[string]any{"": "x", "2": "y"},
		"overwrite": map[string]any{"1": "c"},
		"":          "empty",
	}
	if !reflect.DeepEqual(raw, want) {
		t.Errorf("Decode() =\n%#v\nwant\n%#v", raw, want)
	}
}

func TestDecodePHP_Errors(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		wantLine int
		wantCol  int
	}{
		{"no assignment", "<?php\n// nothing here\n", 3, 1},
		{"unterminated string", "<?php\n$CONFIG = ['a' => 'b];", 2, 19},
		{"missing semicolon", "<?php\n$CONFIG = []\n", 3, 1},
		{"other variable", "<?php\n$OTHER = [];", 2, 1},
		{"constant", "<?php\n$CONFIG = ['dir' => __DIR__];", 2, 21},
		{"concatenation", "<?php\n$CONFIG = ['a' => 'b' . 'c'];", 2, 23},
		{"interpolation", "<?php\n$CONFIG = ['a' => \"$HOME\"];", 2, 20},
		{"scalar config", "<?php\n$CONFIG = 'x';", 2, 11},
		{"unterminated comment", "<?php\n/* open\n$CONFIG = [];", 2, 1},
		{"array as key", "<?php\n$CONFIG = [[1] => 1];", 2, 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(FormatPHP, []byte(tt.src))
			var se *SyntaxError
			if !errors.As(err, &se) {
				t.Fatalf("Decode() error = %v, want *SyntaxError", err)
			}
			if se.Line != tt.wantLine || se.Col != tt.wantCol {
				t.Errorf("position = %d:%d, want %d:%d (%s)", se.Line, se.Col, tt.wantLine, tt.wantCol, se.Msg)
			}
		})
	}
}

func TestStringKey(t *testing.T) {
	tests := []struct {
		in    string
		isInt bool
	}{
		{"0", true},
		{"12", true},
		{"-3", true},
		{"007", false},
		{"-0", false},
		{"+1", false},
		{"1.5", false},
		{"", false},
		{"dbtype", false},
	}
	for _, tt := range tests {
		if got := stringKey(tt.in); got.isInt != tt.isInt {
			t.Errorf("stringKey(%q).isInt = %v, want %v", tt.in, got.isInt, tt.isInt)
		}
	}
}
