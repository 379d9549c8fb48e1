package dodo

import (
	"github.com/akavel/dodo/pkg/core"
	"github.com/akavel/dodo/pkg/typed"
)

// TypedBridge keeps application state in a struct T.
type TypedBridge[T any] = typed.Bridge[T]

// Snapshot is a loaded typed state.
type Snapshot[T any] = typed.Snapshot[T]

// NewTyped creates a type-safe wrapper around an existing bridge.
func NewTyped[T any](bridge *core.Bridge) *TypedBridge[T] {
	return typed.NewBridge[T](bridge)
}

// OpenTyped simplifies creating a TypedBridge from a path. The returned Bridge
// must be closed by the caller.
func OpenTyped[T any](uri string, opts ...Option) (*TypedBridge[T], *Bridge, error) {
	b, err := New(uri, opts...)
	if err != nil {
		return nil, nil, err
	}
	return typed.NewBridge[T](b.Bridge), b, nil
}
