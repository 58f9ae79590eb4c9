package source

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

func decodeYAML(data []byte) (map[string]any, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing yaml: %w", err)
	}
	return topLevel(FormatYAML, raw)
}

// decodeJSON keeps numbers as json.Number so large integers survive.
func decodeJSON(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		var se *json.SyntaxError
		if errors.As(err, &se) {
			line, col := position(data, int(se.Offset))
			return nil, &SyntaxError{Format: FormatJSON, Line: line, Col: col, Msg: se.Error()}
		}
		return nil, fmt.Errorf("parsing json: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		line, col := position(data, int(dec.InputOffset()))
		return nil, &SyntaxError{Format: FormatJSON, Line: line, Col: col, Msg: "trailing data after document"}
	}
	return topLevel(FormatJSON, raw)
}

func decodeTOML(data []byte) (map[string]any, error) {
	raw := make(map[string]any)
	if _, err := toml.Decode(string(data), &raw); err != nil {
		var pe toml.ParseError
		if errors.As(err, &pe) {
			line, col := position(data, pe.Position.Start)
			return nil, &SyntaxError{Format: FormatTOML, Line: line, Col: col, Msg: pe.Message}
		}
		return nil, fmt.Errorf("parsing toml: %w", err)
	}
	return raw, nil
}

// topLevel checks the document is a mapping. Non-string keys are left for
// settings.Parse to report.
func topLevel(format Format, raw any) (map[string]any, error) {
	switch m := raw.(type) {
	case map[string]any:
		return m, nil
	case nil:
		return nil, ErrEmpty
	default:
		return nil, fmt.Errorf("source: %s document is %T, want a mapping at the top level", format, raw)
	}
}

// position converts a byte offset into a 1-based line and column.
func position(data []byte, offset int) (line, col int) {
	if offset > len(data) {
		offset = len(data)
	}
	line, col = 1, 1
	for _, b := range data[:offset] {
		if b == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return line, col
}
