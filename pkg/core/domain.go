// Package core holds the storage bridge domain: the persisted document, the
// store port, the migration engine and the request router.
package core

import "maps"

const (
	// DefaultNamespace is the fixed key under which the application's whole
	// document is persisted.
	DefaultNamespace = "dodo-storage"

	// SchemaField is the only field the bridge tracks.
	SchemaField = "v1"
)

// AbsentMarker is the value substituted for a schema field missing from an
// older persisted document. It encodes as JSON null.
var AbsentMarker any = nil

// Document is the persisted unit: an open mapping of field names to values.
// Apart from SchemaField, fields are opaque to the bridge.
type Document map[string]any

// Has reports whether the field is present, including when it holds the
// absent-marker.
func (d Document) Has(field string) bool {
	_, ok := d[field]
	return ok
}

// Clone returns a shallow copy. A nil document clones to an empty one.
func (d Document) Clone() Document {
	if d == nil {
		return Document{}
	}
	return maps.Clone(d)
}

// EventType represents the type of change observed on a watched key.
type EventType string

const (
	EventModify EventType = "MODIFY"
	EventDelete EventType = "DELETE"
)

// Event represents an external change of a stored key.
type Event struct {
	Type      EventType
	Key       string
	Timestamp int64 // Unix timestamp
}

// String implements fmt.Stringer.
func (e Event) String() string {
	return string(e.Type) + " " + e.Key
}
