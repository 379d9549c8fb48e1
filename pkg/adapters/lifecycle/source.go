// Package lifecycle exposes dodo channels as lifecycle sources, so bridge
// responses and store change events can be consumed by a lifecycle runtime.
package lifecycle

import (
	"context"

	"github.com/aretw0/lifecycle"

	"github.com/akavel/dodo/pkg/core"
)

type channelSource[E lifecycle.Event] struct {
	events <-chan E
	out    chan lifecycle.Event
}

// NewSource creates a lifecycle.Source that forwards every value of events
// until the channel closes or the context passed to Start is done.
func NewSource[E lifecycle.Event](events <-chan E) lifecycle.Source {
	return &channelSource[E]{
		events: events,
		out:    make(chan lifecycle.Event),
	}
}

// ResponseSource emits the responses of a bridge.
func ResponseSource(bridge *core.Bridge) lifecycle.Source {
	return NewSource(bridge.Responses())
}

// EventSource emits the change events of a watchable store.
func EventSource(events <-chan core.Event) lifecycle.Source {
	return NewSource(events)
}

func (s *channelSource[E]) Events() <-chan lifecycle.Event {
	return s.out
}

func (s *channelSource[E]) Start(ctx context.Context) error {
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(s.out)
		for {
			select {
			case <-ctx.Done():
				return nil
			case e, ok := <-s.events:
				if !ok {
					return nil
				}
				select {
				case s.out <- e:
				case <-ctx.Done():
					return nil
				}
			}
		}
	})
	return nil
}
