// Package codec provides the document formats a bridge can store.
package codec

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/akavel/dodo/pkg/core"
)

// ByName returns the codec registered for a format name ("json", "yaml", "yml").
// strict keeps numbers as json.Number to avoid float64 precision loss.
func ByName(name string, strict bool) (core.Codec, error) {
	switch strings.ToLower(strings.TrimPrefix(name, ".")) {
	case "", "json":
		return NewJSON(strict), nil
	case "yaml", "yml":
		return NewYAML(strict), nil
	default:
		return nil, fmt.Errorf("unknown codec: %s", name)
	}
}

// recursiveNormalize traverses maps and slices and converts numeric types to
// json.Number, so strict YAML documents compare equal to strict JSON ones.
func recursiveNormalize(val any) any {
	switch v := val.(type) {
	case core.Document:
		m := make(core.Document, len(v))
		for k, val := range v {
			m[k] = recursiveNormalize(val)
		}
		return m
	case map[string]any:
		m := make(map[string]any, len(v))
		for k, val := range v {
			m[k] = recursiveNormalize(val)
		}
		return m
	case []any:
		l := make([]any, len(v))
		for i, val := range v {
			l[i] = recursiveNormalize(val)
		}
		return l
	case int:
		return json.Number(fmt.Sprintf("%d", v))
	case int64:
		return json.Number(fmt.Sprintf("%d", v))
	case int32:
		return json.Number(fmt.Sprintf("%d", v))
	case uint64:
		return json.Number(fmt.Sprintf("%d", v))
	case float64:
		return json.Number(fmt.Sprintf("%v", v))
	default:
		return v
	}
}
