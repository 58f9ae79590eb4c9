package source

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// configVar is the variable config.php assigns.
const configVar = "CONFIG"

// decodePHP reads a config.php file: an optional <?php tag followed by
// statements of the form
//
//	$CONFIG = array ( ... );
//	$CONFIG = [ ... ];
//	$CONFIG['key'] = value;
//
// Only literals are accepted: strings, numbers, booleans, null and nested
// arrays. Arrays whose keys are exactly 0..n-1 in order decode to []any,
// every other array to map[string]any with integer keys in decimal. Float,
// boolean and null keys are cast as PHP casts them.
func decodePHP(data []byte) (map[string]any, error) {
	p := &phpParser{lex: newPHPLexer(data)}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return p.file()
}

type phpTokenKind int

const (
	tokEOF phpTokenKind = iota
	tokOpenTag
	tokCloseTag
	tokVariable
	tokIdent
	tokString
	tokInt
	tokFloat
	tokArrow
	tokLParen
	tokRParen
	tokLBracket
	tokRBracket
	tokComma
	tokSemicolon
	tokAssign
	tokMinus
	tokPlus
)

var tokenNames = map[phpTokenKind]string{
	tokEOF:       "end of input",
	tokOpenTag:   "<?php",
	tokCloseTag:  "?>",
	tokVariable:  "variable",
	tokIdent:     "identifier",
	tokString:    "string",
	tokInt:       "integer",
	tokFloat:     "float",
	tokArrow:     "'=>'",
	tokLParen:    "'('",
	tokRParen:    "')'",
	tokLBracket:  "'['",
	tokRBracket:  "']'",
	tokComma:     "','",
	tokSemicolon: "';'",
	tokAssign:    "'='",
	tokMinus:     "'-'",
	tokPlus:      "'+'",
}

func (k phpTokenKind) String() string { return tokenNames[k] }

type phpToken struct {
	kind phpTokenKind
	text string // identifier or variable name, decoded string, numeric literal
	line int
	col  int
}

type phpLexer struct {
	src  []byte
	pos  int
	line int
	col  int
}

func newPHPLexer(src []byte) *phpLexer {
	// A UTF-8 byte order mark is tolerated, as PHP does.
	src = bytes.TrimPrefix(src, []byte("\ufeff"))
	return &phpLexer{src: src, line: 1, col: 1}
}

func (l *phpLexer) errorf(line, col int, format string, args ...any) error {
	return &SyntaxError{Format: FormatPHP, Line: line, Col: col, Msg: fmt.Sprintf(format, args...)}
}

func (l *phpLexer) peekByte(off int) byte {
	if l.pos+off >= len(l.src) {
		return 0
	}
	return l.src[l.pos+off]
}

func (l *phpLexer) hasPrefix(s string) bool {
	return bytes.HasPrefix(l.src[l.pos:], []byte(s))
}

func (l *phpLexer) skip(n int) {
	for i := 0; i < n && l.pos < len(l.src); i++ {
		if l.src[l.pos] == '\n' {
			l.line++
			l.col = 1
		} else {
			l.col++
		}
		l.pos++
	}
}

// skipSpace drops whitespace and comments.
func (l *phpLexer) skipSpace() error {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v':
			l.skip(1)
		case c == '#' || (c == '/' && l.peekByte(1) == '/'):
			// Line comments end at a newline or at ?>.
			for l.pos < len(l.src) && l.src[l.pos] != '\n' && !l.hasPrefix("?>") {
				l.skip(1)
			}
		case c == '/' && l.peekByte(1) == '*':
			line, col := l.line, l.col
			l.skip(2)
			for !l.hasPrefix("*/") {
				if l.pos >= len(l.src) {
					return l.errorf(line, col, "unterminated comment")
				}
				l.skip(1)
			}
			l.skip(2)
		default:
			return nil
		}
	}
	return nil
}

func (l *phpLexer) next() (phpToken, error) {
	if err := l.skipSpace(); err != nil {
		return phpToken{}, err
	}
	tok := phpToken{line: l.line, col: l.col}
	if l.pos >= len(l.src) {
		tok.kind = tokEOF
		return tok, nil
	}

	c := l.src[l.pos]
	switch {
	case l.hasPrefix("<?php"):
		tok.kind = tokOpenTag
		l.skip(5)
	case l.hasPrefix("?>"):
		tok.kind = tokCloseTag
		l.skip(2)
	case l.hasPrefix("=>"):
		tok.kind = tokArrow
		l.skip(2)
	case c == '$':
		l.skip(1)
		name := l.ident()
		if name == "" {
			return tok, l.errorf(tok.line, tok.col, "expected variable name after '$'")
		}
		tok.kind, tok.text = tokVariable, name
	case isIdentStart(c):
		tok.kind, tok.text = tokIdent, l.ident()
	case c == '\'':
		s, err := l.singleQuoted()
		if err != nil {
			return tok, err
		}
		tok.kind, tok.text = tokString, s
	case c == '"':
		s, err := l.doubleQuoted()
		if err != nil {
			return tok, err
		}
		tok.kind, tok.text = tokString, s
	case isDigit(c) || (c == '.' && isDigit(l.peekByte(1))):
		tok.kind, tok.text = l.number()
	default:
		k, ok := punctuation[c]
		if !ok {
			r, _ := utf8.DecodeRune(l.src[l.pos:])
			return tok, l.errorf(tok.line, tok.col, "unexpected character %q", r)
		}
		tok.kind = k
		l.skip(1)
	}
	return tok, nil
}

var punctuation = map[byte]phpTokenKind{
	'(': tokLParen, ')': tokRParen, '[': tokLBracket, ']': tokRBracket,
	',': tokComma, ';': tokSemicolon, '=': tokAssign, '-': tokMinus, '+': tokPlus,
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= 0x80
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func (l *phpLexer) ident() string {
	start := l.pos
	for l.pos < len(l.src) && (isIdentStart(l.src[l.pos]) || isDigit(l.src[l.pos])) {
		l.skip(1)
	}
	return string(l.src[start:l.pos])
}

// number scans an integer or float literal, including 0x, 0b and 0o
// prefixes and _ digit separators.
func (l *phpLexer) number() (phpTokenKind, string) {
	start := l.pos
	kind := tokInt
	if l.peekByte(0) == '0' && strings.ContainsRune("xXbBoO", rune(l.peekByte(1))) {
		l.skip(2)
		for l.pos < len(l.src) && (isHexDigit(l.src[l.pos]) || l.src[l.pos] == '_') {
			l.skip(1)
		}
		return kind, string(l.src[start:l.pos])
	}
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case isDigit(c) || c == '_':
		case c == '.' && kind == tokInt:
			kind = tokFloat
		case (c == 'e' || c == 'E') && (isDigit(l.peekByte(1)) ||
			((l.peekByte(1) == '-' || l.peekByte(1) == '+') && isDigit(l.peekByte(2)))):
			kind = tokFloat
			l.skip(1)
		default:
			return kind, string(l.src[start:l.pos])
		}
		l.skip(1)
	}
	return kind, string(l.src[start:l.pos])
}

func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// singleQuoted decodes a '...' literal: only \\ and \' are escapes.
func (l *phpLexer) singleQuoted() (string, error) {
	line, col := l.line, l.col
	l.skip(1)
	var b strings.Builder
	for {
		if l.pos >= len(l.src) {
			return "", l.errorf(line, col, "unterminated string")
		}
		c := l.src[l.pos]
		switch {
		case c == '\'':
			l.skip(1)
			return b.String(), nil
		case c == '\\' && (l.peekByte(1) == '\\' || l.peekByte(1) == '\''):
			b.WriteByte(l.peekByte(1))
			l.skip(2)
		default:
			b.WriteByte(c)
			l.skip(1)
		}
	}
}

// doubleQuoted decodes a "..." literal. Variable interpolation is refused
// since config files are read as data.
func (l *phpLexer) doubleQuoted() (string, error) {
	line, col := l.line, l.col
	l.skip(1)
	var b strings.Builder
	for {
		if l.pos >= len(l.src) {
			return "", l.errorf(line, col, "unterminated string")
		}
		c := l.src[l.pos]
		switch {
		case c == '"':
			l.skip(1)
			return b.String(), nil
		case c == '$' && (isIdentStart(l.peekByte(1)) || l.peekByte(1) == '{'):
			return "", l.errorf(l.line, l.col, "variable interpolation is not supported")
		case c == '{' && l.peekByte(1) == '$':
			return "", l.errorf(l.line, l.col, "variable interpolation is not supported")
		case c == '\\':
			if err := l.escape(&b); err != nil {
				return "", err
			}
		default:
			b.WriteByte(c)
			l.skip(1)
		}
	}
}

var simpleEscapes = map[byte]byte{
	'n': '\n', 't': '\t', 'r': '\r', 'v': '\v', 'e': 0x1b, 'f': '\f',
	'\\': '\\', '$': '$', '"': '"',
}

// escape decodes one backslash sequence inside a double-quoted string.
// Unknown sequences are kept verbatim.
func (l *phpLexer) escape(b *strings.Builder) error {
	next := l.peekByte(1)
	if r, ok := simpleEscapes[next]; ok {
		b.WriteByte(r)
		l.skip(2)
		return nil
	}

	switch {
	case next >= '0' && next <= '7':
		n := 1
		for n < 3 && l.peekByte(1+n) >= '0' && l.peekByte(1+n) <= '7' {
			n++
		}
		v, _ := strconv.ParseUint(string(l.src[l.pos+1:l.pos+1+n]), 8, 16)
		b.WriteByte(byte(v))
		l.skip(1 + n)
	case next == 'x' && isHexDigit(l.peekByte(2)):
		n := 1
		if isHexDigit(l.peekByte(3)) {
			n = 2
		}
		v, _ := strconv.ParseUint(string(l.src[l.pos+2:l.pos+2+n]), 16, 8)
		b.WriteByte(byte(v))
		l.skip(2 + n)
	case next == 'u' && l.peekByte(2) == '{':
		end := bytes.IndexByte(l.src[l.pos:], '}')
		if end < 0 {
			return l.errorf(l.line, l.col, "unterminated unicode escape")
		}
		hex := string(l.src[l.pos+3 : l.pos+end])
		v, err := strconv.ParseUint(hex, 16, 32)
		if err != nil || v > utf8.MaxRune {
			return l.errorf(l.line, l.col, "invalid unicode escape %q", hex)
		}
		b.WriteRune(rune(v))
		l.skip(end + 1)
	default:
		b.WriteByte('\\')
		l.skip(1)
	}
	return nil
}

type phpParser struct {
	lex *phpLexer
	tok phpToken
}

func (p *phpParser) advance() error {
	tok, err := p.lex.next()
	if err != nil {
		return err
	}
	p.tok = tok
	return nil
}

func (p *phpParser) errorf(format string, args ...any) error {
	return p.lex.errorf(p.tok.line, p.tok.col, format, args...)
}

func (p *phpParser) expect(kind phpTokenKind) error {
	if p.tok.kind != kind {
		return p.errorf("expected %s, found %s", kind, p.describe())
	}
	return p.advance()
}

func (p *phpParser) describe() string {
	switch p.tok.kind {
	case tokIdent, tokInt, tokFloat:
		return fmt.Sprintf("%s %q", p.tok.kind, p.tok.text)
	case tokVariable:
		return "$" + p.tok.text
	default:
		return p.tok.kind.String()
	}
}

// file parses the statements of a config.php file.
func (p *phpParser) file() (map[string]any, error) {
	if p.tok.kind == tokOpenTag {
		if err := p.advance(); err != nil {
			return nil, err
		}
	}

	var config *phpArray
	for p.tok.kind != tokEOF && p.tok.kind != tokCloseTag {
		if p.tok.kind == tokSemicolon {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		if err := p.statement(&config); err != nil {
			return nil, err
		}
	}

	if config == nil {
		return nil, p.errorf("no $%s assignment found", configVar)
	}
	return config.toMap(), nil
}

// statement parses one assignment to $CONFIG.
func (p *phpParser) statement(config **phpArray) error {
	if p.tok.kind != tokVariable {
		return p.errorf("expected $%s, found %s", configVar, p.describe())
	}
	if p.tok.text != configVar {
		return p.errorf("unexpected variable $%s", p.tok.text)
	}
	if err := p.advance(); err != nil {
		return err
	}

	if p.tok.kind == tokLBracket {
		if err := p.advance(); err != nil {
			return err
		}
		key, err := p.key()
		if err != nil {
			return err
		}
		if err := p.expect(tokRBracket); err != nil {
			return err
		}
		if err := p.expect(tokAssign); err != nil {
			return err
		}
		v, err := p.value()
		if err != nil {
			return err
		}
		if *config == nil {
			*config = &phpArray{}
		}
		(*config).set(key, v)
		return p.expect(tokSemicolon)
	}

	if err := p.expect(tokAssign); err != nil {
		return err
	}
	line, col := p.tok.line, p.tok.col
	v, err := p.value()
	if err != nil {
		return err
	}
	arr, ok := v.(*phpArray)
	if !ok {
		return p.lex.errorf(line, col, "$%s must be assigned an array", configVar)
	}
	*config = arr
	return p.expect(tokSemicolon)
}

// key parses an array key: a string or an integer literal.
func (p *phpParser) key() (phpKey, error) {
	v, err := p.value()
	if err != nil {
		return phpKey{}, err
	}
	key, ok := toKey(v)
	if !ok {
		return phpKey{}, p.errorf("array key must be a scalar")
	}
	return key, nil
}

// value parses a literal or an array.
func (p *phpParser) value() (any, error) {
	tok := p.tok
	switch tok.kind {
	case tokString:
		return tok.text, p.advance()
	case tokInt, tokFloat:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return p.number(tok, false)
	case tokMinus, tokPlus:
		if err := p.advance(); err != nil {
			return nil, err
		}
		num := p.tok
		if num.kind != tokInt && num.kind != tokFloat {
			return nil, p.errorf("expected number after sign, found %s", p.describe())
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return p.number(num, tok.kind == tokMinus)
	case tokLBracket:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return p.array(tokRBracket)
	case tokIdent:
		switch strings.ToLower(tok.text) {
		case "true":
			return true, p.advance()
		case "false":
			return false, p.advance()
		case "null":
			return nil, p.advance()
		case "array":
			if err := p.advance(); err != nil {
				return nil, err
			}
			if err := p.expect(tokLParen); err != nil {
				return nil, err
			}
			return p.array(tokRParen)
		default:
			return nil, p.errorf("constants and expressions are not supported (%s)", tok.text)
		}
	default:
		return nil, p.errorf("expected a value, found %s", p.describe())
	}
}

// number converts a numeric token. Integers that overflow int64 become
// floats, as in PHP.
func (p *phpParser) number(tok phpToken, negative bool) (any, error) {
	text := tok.text
	if negative {
		text = "-" + text
	}
	if tok.kind == tokInt {
		// Go's base-0 rules match PHP: 0x, 0b, 0o and a bare leading 0 for
		// octal, with _ separators.
		i, err := strconv.ParseInt(text, 0, 64)
		if err == nil {
			return i, nil
		}
		if !errors.Is(err, strconv.ErrRange) {
			return nil, p.lex.errorf(tok.line, tok.col, "invalid integer %q", tok.text)
		}
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(text, "_", ""), 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return nil, p.lex.errorf(tok.line, tok.col, "invalid number %q", tok.text)
	}
	if math.IsInf(f, 0) {
		return nil, p.lex.errorf(tok.line, tok.col, "number %q out of range", tok.text)
	}
	return f, nil
}

// array parses elements up to the closing token. Trailing commas are
// allowed.
func (p *phpParser) array(closing phpTokenKind) (*phpArray, error) {
	arr := &phpArray{}
	for p.tok.kind != closing {
		line, col := p.tok.line, p.tok.col
		first, err := p.value()
		if err != nil {
			return nil, err
		}
		if p.tok.kind == tokArrow {
			if err := p.advance(); err != nil {
				return nil, err
			}
			key, ok := toKey(first)
			if !ok {
				return nil, p.lex.errorf(line, col, "array key must be a scalar")
			}
			v, err := p.value()
			if err != nil {
				return nil, err
			}
			arr.set(key, v)
		} else {
			arr.append(first)
		}

		if p.tok.kind != tokComma {
			break
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	if err := p.expect(closing); err != nil {
		return nil, err
	}
	return arr, nil
}

// phpKey is an array key after PHP's key normalisation.
type phpKey struct {
	isInt bool
	i     int64
	s     string
}

// stringKey converts canonical decimal strings such as "7" or "-3" to
// integer keys, as PHP does.
func stringKey(s string) phpKey {
	if s == "0" || (s != "" && s != "-0" && s[0] != '0' && !strings.HasPrefix(s, "-0")) {
		if i, err := strconv.ParseInt(s, 10, 64); err == nil && strconv.FormatInt(i, 10) == s {
			return phpKey{isInt: true, i: i}
		}
	}
	return phpKey{s: s}
}

// toKey casts a scalar to an array key the way PHP does: floats truncate
// toward zero, booleans become 0 or 1 and null becomes "". Arrays and floats
// outside the int64 range are not valid keys.
func toKey(v any) (phpKey, bool) {
	switch k := v.(type) {
	case string:
		return stringKey(k), true
	case int64:
		return phpKey{isInt: true, i: k}, true
	case float64:
		t := math.Trunc(k)
		if math.IsNaN(t) || t < math.MinInt64 || t >= math.MaxInt64 {
			return phpKey{}, false
		}
		return phpKey{isInt: true, i: int64(t)}, true
	case bool:
		if k {
			return phpKey{isInt: true, i: 1}, true
		}
		return phpKey{isInt: true}, true
	case nil:
		return phpKey{s: ""}, true
	default:
		return phpKey{}, false
	}
}

func (k phpKey) String() string {
	if k.isInt {
		return strconv.FormatInt(k.i, 10)
	}
	return k.s
}

// phpArray is an ordered PHP array.
type phpArray struct {
	keys    []phpKey
	values  map[phpKey]any
	nextIdx int64
}

func (a *phpArray) set(k phpKey, v any) {
	if a.values == nil {
		a.values = make(map[phpKey]any)
	}
	if _, exists := a.values[k]; !exists {
		a.keys = append(a.keys, k)
	}
	a.values[k] = v
	if k.isInt && k.i >= a.nextIdx {
		a.nextIdx = k.i + 1
	}
}

func (a *phpArray) append(v any) {
	a.set(phpKey{isInt: true, i: a.nextIdx}, v)
}

// isList reports whether the keys are exactly 0..n-1 in insertion order.
func (a *phpArray) isList() bool {
	for i, k := range a.keys {
		if !k.isInt || k.i != int64(i) {
			return false
		}
	}
	return true
}

func (a *phpArray) toMap() map[string]any {
	out := make(map[string]any, len(a.keys))
	for _, k := range a.keys {
		out[k.String()] = plain(a.values[k])
	}
	return out
}

// plain converts nested arrays to []any or map[string]any.
func plain(v any) any {
	arr, ok := v.(*phpArray)
	if !ok {
		return v
	}
	if len(arr.keys) == 0 {
		return []any{}
	}
	if arr.isList() {
		out := make([]any, len(arr.keys))
		for i, k := range arr.keys {
			out[i] = plain(arr.values[k])
		}
		return out
	}
	return arr.toMap()
}
