package core

import (
	"github.com/aretw0/introspection"
)

// BridgeState exposes internal state for observability.
type BridgeState struct {
	Namespace      string   `json:"namespace"`
	Codec          string   `json:"codec"`
	StoreType      string   `json:"store_type"`
	SchemaFields   []string `json:"schema_fields"`
	Issued         uint64   `json:"issued"`
	InFlight       int64    `json:"in_flight"`
	Failures       uint64   `json:"failures"`
	ResponseBuffer int      `json:"response_buffer"`
	Closed         bool     `json:"closed"`
}

// State implements introspection.Introspectable.
func (b *Bridge) State() any {
	b.mu.RLock()
	closed := b.closed
	b.mu.RUnlock()

	storeType := "store"
	if comp, ok := b.store.(introspection.Component); ok {
		storeType = comp.ComponentType()
	}

	return BridgeState{
		Namespace:      b.config.Namespace,
		Codec:          b.config.Codec.Name(),
		StoreType:      storeType,
		SchemaFields:   b.config.Migrator.Fields(),
		Issued:         b.seq.Load(),
		InFlight:       b.inflight.Load(),
		Failures:       b.failures.Load(),
		ResponseBuffer: b.config.ResponseBuffer,
		Closed:         closed,
	}
}

// ComponentType implements introspection.Component.
func (b *Bridge) ComponentType() string {
	return "bridge"
}

var _ introspection.Introspectable = (*Bridge)(nil)
var _ introspection.Component = (*Bridge)(nil)
