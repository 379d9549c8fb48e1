package fs

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/akavel/dodo/pkg/core"
)

const watchDebounce = 50 * time.Millisecond

// Watch reports changes of key's file made by anyone, this process included.
// Bursts of filesystem events (an atomic write is a create plus a rename) are
// coalesced into one event. The channel is closed when ctx is done.
func (s *Store) Watch(ctx context.Context, key string) (<-chan core.Event, error) {
	filename, err := s.filename(key)
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(s.Path); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", s.Path, err)
	}

	events := make(chan core.Event, 16)
	w := &watchLoop{
		store:    s,
		key:      key,
		filename: filename,
		watcher:  watcher,
		events:   events,
	}

	s.setWatcherActive(true)
	lifecycle.Go(ctx, w.run, lifecycle.WithErrorHandler(func(err error) {
		s.handleWatchError(fmt.Errorf("watcher panic: %w", err))
	}))
	return events, nil
}

type watchLoop struct {
	store    *Store
	key      string
	filename string
	watcher  *fsnotify.Watcher
	events   chan core.Event

	mu      sync.Mutex
	pending *time.Timer
	wg      sync.WaitGroup
}

func (w *watchLoop) run(ctx context.Context) error {
	defer close(w.events)
	defer w.store.setWatcherActive(false)
	defer w.watcher.Close()
	defer w.wg.Wait()
	defer w.stopPending()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			eType, ok := w.classify(event)
			if !ok {
				continue
			}
			w.store.config.Logger.Debug("watch event", "name", event.Name, "op", event.Op.String())
			w.debounce(ctx, eType)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.store.handleWatchError(err)
		}
	}
}

// classify maps a filesystem event to a change of the watched key.
func (w *watchLoop) classify(event fsnotify.Event) (core.EventType, bool) {
	base := filepath.Base(event.Name)
	if ok, _ := doublestar.Match(TempFilePrefix+"*", base); ok {
		return "", false
	}
	if base != w.filename {
		return "", false
	}
	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return core.EventDelete, true
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		return core.EventModify, true
	default:
		return "", false
	}
}

// debounce restarts the quiet-period timer; only the last event type of a
// burst is sent.
func (w *watchLoop) debounce(ctx context.Context, eType core.EventType) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.pending != nil && w.pending.Stop() {
		w.wg.Done()
	}
	w.wg.Add(1)
	w.pending = time.AfterFunc(watchDebounce, func() {
		defer w.wg.Done()
		select {
		case w.events <- core.Event{Type: eType, Key: w.key, Timestamp: time.Now().Unix()}:
		case <-ctx.Done():
		}
	})
}

func (w *watchLoop) stopPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.pending != nil && w.pending.Stop() {
		w.wg.Done()
	}
}

func (s *Store) handleWatchError(err error) {
	s.config.Logger.Error("watch error", "error", err)
	if s.config.ErrorHandler != nil {
		s.config.ErrorHandler(err)
	}
}

var _ core.Watchable = (*Store)(nil)
