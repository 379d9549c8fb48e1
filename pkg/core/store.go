package core

import "context"

// Store is the contract of the external key-value backend.
// The bridge depends on nothing else, so it is independent of the physical
// mechanism behind it (memory, filesystem, SQLite, ...).
type Store interface {
	// SetItem writes value under key, replacing any previous value.
	SetItem(ctx context.Context, key string, value []byte) error

	// GetItem reads the value stored under key.
	// It MUST return (nil, nil) if nothing was ever stored.
	GetItem(ctx context.Context, key string) ([]byte, error)
}

// Initializer is implemented by stores that need setup before first use
// (create directories, open connections, create tables).
type Initializer interface {
	Initialize(ctx context.Context) error
}

// Watchable is implemented by stores that can report external changes to a key.
type Watchable interface {
	Watch(ctx context.Context, key string) (<-chan Event, error)
}

// Codec converts documents to and from the bytes handed to a Store.
type Codec interface {
	// Encode serializes a document.
	Encode(doc Document) ([]byte, error)
	// Decode parses bytes into a document. Content that is valid in the
	// format but not a field mapping must be reported as an error.
	Decode(data []byte) (Document, error)
	// Name identifies the format, e.g. "json".
	Name() string
}

type enteredKey struct{}

// Entered is called by a store inside SetItem or GetItem once the call holds
// its place in the store's order (typically: its lock is acquired). The bridge
// starts the next operation only then. A store that never calls it is treated
// as entered when the call returns, which orders its calls completely.
func Entered(ctx context.Context) {
	if enter, ok := ctx.Value(enteredKey{}).(func()); ok {
		enter()
	}
}
