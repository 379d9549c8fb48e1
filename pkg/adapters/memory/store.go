// Package memory provides an in-process core.Store. Nothing survives the process.
package memory

import (
	"context"
	"sync"

	"github.com/aretw0/introspection"

	"github.com/akavel/dodo/pkg/core"
)

// Store is an in-memory key-value store.
type Store struct {
	mu    sync.RWMutex
	items map[string][]byte
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{items: make(map[string][]byte)}
}

// SetItem stores a private copy of value.
func (s *Store) SetItem(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	core.Entered(ctx)
	s.items[key] = append([]byte(nil), value...)
	return nil
}

// GetItem returns a copy of the stored value, or (nil, nil) when absent.
func (s *Store) GetItem(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	core.Entered(ctx)
	val, ok := s.items[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), val...), nil
}

// StoreState exposes internal state for observability.
type StoreState struct {
	Keys int `json:"keys"`
}

// State implements introspection.Introspectable.
func (s *Store) State() any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return StoreState{Keys: len(s.items)}
}

// ComponentType implements introspection.Component.
func (s *Store) ComponentType() string {
	return "memory"
}

var _ core.Store = (*Store)(nil)
var _ introspection.Introspectable = (*Store)(nil)
var _ introspection.Component = (*Store)(nil)
