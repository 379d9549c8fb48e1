package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/akavel/dodo/pkg/core"
)

// JSON encodes documents as JSON objects.
type JSON struct {
	// Strict decodes numbers as json.Number instead of float64.
	Strict bool
}

// NewJSON creates a JSON codec.
func NewJSON(strict bool) *JSON {
	return &JSON{Strict: strict}
}

func (c *JSON) Name() string { return "json" }

func (c *JSON) Encode(doc core.Document) ([]byte, error) {
	if doc == nil {
		doc = core.Document{}
	}
	return json.Marshal(doc)
}

func (c *JSON) Decode(data []byte) (core.Document, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	if c.Strict {
		decoder.UseNumber()
	}

	var payload map[string]any
	if err := decoder.Decode(&payload); err != nil {
		return nil, fmt.Errorf("invalid json: %w", err)
	}
	if _, err := decoder.Token(); err != io.EOF {
		return nil, fmt.Errorf("invalid json: trailing data after document")
	}
	return core.Document(payload), nil
}

var _ core.Codec = (*JSON)(nil)
