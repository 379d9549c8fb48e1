package codec

import (
	"encoding/json"
	"fmt"

	"github.com/akavel/dodo/pkg/core"
	"gopkg.in/yaml.v3"
)

// YAML encodes documents as YAML mappings.
type YAML struct {
	// Strict converts numbers to json.Number after decoding.
	Strict bool
}

// NewYAML creates a YAML codec.
func NewYAML(strict bool) *YAML {
	return &YAML{Strict: strict}
}

func (c *YAML) Name() string { return "yaml" }

func (c *YAML) Encode(doc core.Document) ([]byte, error) {
	if doc == nil {
		doc = core.Document{}
	}
	return yaml.Marshal(plainNumbers(map[string]any(doc)))
}

// plainNumbers turns json.Number values back into numbers so strict documents
// are written as YAML numbers rather than quoted strings.
func plainNumbers(val any) any {
	switch v := val.(type) {
	case core.Document:
		return plainNumbers(map[string]any(v))
	case map[string]any:
		m := make(map[string]any, len(v))
		for k, val := range v {
			m[k] = plainNumbers(val)
		}
		return m
	case []any:
		l := make([]any, len(v))
		for i, val := range v {
			l[i] = plainNumbers(val)
		}
		return l
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i
		}
		if f, err := v.Float64(); err == nil {
			return f
		}
		return string(v)
	default:
		return v
	}
}

func (c *YAML) Decode(data []byte) (core.Document, error) {
	var payload map[string]any
	if err := yaml.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("invalid yaml: %w", err)
	}
	doc := core.Document(payload)
	if c.Strict && doc != nil {
		doc = recursiveNormalize(doc).(core.Document)
	}
	return doc, nil
}

var _ core.Codec = (*YAML)(nil)
