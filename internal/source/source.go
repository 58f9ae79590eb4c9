package source

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Format names a configuration file syntax.
type Format string

// Supported formats.
const (
	FormatPHP  Format = "php"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
)

// Sentinel errors.
var (
	// ErrUnsupportedFormat is returned for a format name or file extension
	// no decoder handles.
	ErrUnsupportedFormat = errors.New("source: unsupported format")

	// ErrEmpty is returned when the input holds no configuration at all.
	ErrEmpty = errors.New("source: empty input")
)

// SyntaxError reports malformed input at a 1-based line and column.
type SyntaxError struct {
	Format Format
	Line   int
	Col    int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("source: %s syntax error at %d:%d: %s", e.Format, e.Line, e.Col, e.Msg)
}

// ParseFormat maps a user-supplied name to a Format. Accepts the
// canonical names plus "yml".
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "php":
		return FormatPHP, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	case "toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
	}
}

// FormatFromPath infers the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", fmt.Errorf("%w: %s has no extension", ErrUnsupportedFormat, path)
	}
	return ParseFormat(ext)
}

// Read loads and decodes the file at path.
//
// Parameters:
//   - path: File to read
//   - format: Syntax of the file; empty means infer from the extension
//
// Returns:
//   - map[string]any: Raw nested structure for settings.Parse
//   - error: Read failure, ErrUnsupportedFormat or a decode error
func Read(path string, format Format) (map[string]any, error) {
	if format == "" {
		f, err := FormatFromPath(path)
		if err != nil {
			return nil, err
		}
		format = f
	}

	data, err := os.ReadFile(path) //nolint:gosec // path is operator-supplied
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	raw, err := Decode(format, data)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return raw, nil
}

// Decode turns data in the given format into a raw nested structure.
func Decode(format Format, data []byte) (map[string]any, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, ErrEmpty
	}
	switch format {
	case FormatPHP:
		return decodePHP(data)
	case FormatYAML:
		return decodeYAML(data)
	case FormatJSON:
		return decodeJSON(data)
	case FormatTOML:
		return decodeTOML(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}
