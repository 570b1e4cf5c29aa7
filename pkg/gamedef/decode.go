package gamedef

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// ErrNotMapping is returned when a document's top level is not a mapping.
var ErrNotMapping = errors.New("game definition must be a mapping at the top level")

// Decode parses YAML, JSON or JSONC bytes into a top-level mapping. Content
// whose first non-space byte is '{' is treated as JSON with comments and
// trailing commas allowed; anything else is YAML.
func Decode(data []byte) (map[string]any, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return map[string]any{}, nil
	}

	var v any
	if trimmed[0] == '{' {
		if err := json.Unmarshal(jsonc.ToJSON(trimmed), &v); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(trimmed, &v); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	}

	m, ok := normalize(v).(map[string]any)
	if !ok {
		if v == nil {
			return map[string]any{}, nil
		}
		return nil, ErrNotMapping
	}
	return m, nil
}

// Parse decodes bytes into a Document.
func Parse(data []byte) (*Document, error) {
	m, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return New(m), nil
}

// LoadFile reads and decodes a single document file without resolving includes.
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open game definition: %w", err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// normalize converts YAML mappings with non-string keys into map[string]any
// so the rest of the package only deals with one mapping type.
func normalize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		for k, item := range val {
			val[k] = normalize(item)
		}
		return val
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[fmt.Sprint(k)] = normalize(item)
		}
		return out
	case []any:
		for i, item := range val {
			val[i] = normalize(item)
		}
		return val
	default:
		return v
	}
}
