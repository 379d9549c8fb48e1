// Package typed provides a type-safe view of the stored document: the
// application keeps its state in a struct T and the bridge sees a Document.
package typed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/akavel/dodo/pkg/core"
)

// Snapshot is a loaded state together with its schema marker.
type Snapshot[T any] struct {
	Data T
	// Schema is the value of the schema-tracked field, nil when the stored
	// document predates it.
	Schema any
	Saver  Saver[T]
}

// Saver avoids tight coupling between snapshots and the Bridge wrapper.
type Saver[T any] interface {
	Save(ctx context.Context, data T) <-chan error
}

// Save persists the snapshot data using the attached saver.
func (s *Snapshot[T]) Save(ctx context.Context) error {
	if s.Saver == nil {
		return fmt.Errorf("snapshot is detached (missing Saver)")
	}
	return <-s.Saver.Save(ctx, s.Data)
}

// Result is the outcome of Bridge.Load.
type Result[T any] struct {
	Snapshot *Snapshot[T]
	Err      error
}

// Bridge wraps a core.Bridge to provide type-safe access.
type Bridge[T any] struct {
	bridge *core.Bridge
}

// NewBridge creates a type-safe wrapper around an existing bridge.
func NewBridge[T any](bridge *core.Bridge) *Bridge[T] {
	return &Bridge[T]{bridge: bridge}
}

// Save converts data to a Document and persists it. T must marshal to a JSON
// object; anything else fails before reaching the store.
func (b *Bridge[T]) Save(ctx context.Context, data T) <-chan error {
	doc, err := toDocument(data)
	if err != nil {
		done := make(chan error, 1)
		done <- fmt.Errorf("%w: %w", core.ErrStorageUnavailable, err)
		close(done)
		return done
	}
	return b.bridge.Save(ctx, doc)
}

// Load reads the document and unmarshals it into T.
func (b *Bridge[T]) Load(ctx context.Context) <-chan Result[T] {
	done := make(chan Result[T], 1)
	go func() {
		defer close(done)
		res := <-b.bridge.Load(ctx)
		if res.Err != nil {
			done <- Result[T]{Err: res.Err}
			return
		}
		snap, err := fromDocument(res.Document, b)
		if err != nil {
			done <- Result[T]{Err: fmt.Errorf("%w: %w", core.ErrMalformedDocument, err)}
			return
		}
		done <- Result[T]{Snapshot: snap}
	}()
	return done
}

func toDocument[T any](data T) (core.Document, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal typed data: %w", err)
	}
	decoder := json.NewDecoder(bytes.NewReader(dataBytes))
	decoder.UseNumber()
	var doc core.Document
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to convert typed data to document: %w", err)
	}
	if doc == nil {
		return nil, fmt.Errorf("typed data marshals to null")
	}
	return doc, nil
}

func fromDocument[T any](doc core.Document, saver Saver[T]) (*Snapshot[T], error) {
	dataBytes, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("document marshal failed: %w", err)
	}

	var data T
	if err := json.Unmarshal(dataBytes, &data); err != nil {
		return nil, fmt.Errorf("unmarshal to target type failed: %w", err)
	}

	return &Snapshot[T]{
		Data:   data,
		Schema: doc[core.SchemaField],
		Saver:  saver,
	}, nil
}
