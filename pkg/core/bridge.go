package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// DefaultResponseBuffer is the capacity of the response channel.
const DefaultResponseBuffer = 100

// Config holds the dependencies and tuning of a Bridge.
type Config struct {
	// Namespace is the store key of the document. Defaults to DefaultNamespace.
	Namespace string
	// Codec serializes documents for the store. Required.
	Codec Codec
	// Migrator normalizes loaded documents. Defaults to NewMigrator().
	Migrator *Migrator
	Logger   *slog.Logger
	// ResponseBuffer is the capacity of the Responses channel.
	// Zero means DefaultResponseBuffer.
	ResponseBuffer int
	// OperationTimeout bounds each store call. Zero means no bound: a backend
	// that never completes leaves that one operation pending.
	OperationTimeout time.Duration
}

// Bridge routes save and load requests from the application to a Store.
//
// Every operation runs on its own goroutine; callers never block on the store.
// Operations enter the store in the order they are issued: an operation calls
// the store only after its predecessor has entered (see Entered). They complete
// in whatever order the store finishes them. Concurrent saves are
// last-write-wins at the store in issuance order, and a load issued after a
// save sees that save or a later one.
type Bridge struct {
	store  Store
	config Config
	logger *slog.Logger

	out     chan Response
	abandon chan struct{}

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup

	// chainMu guards tail, the entered signal of the last issued operation.
	chainMu sync.Mutex
	tail    <-chan struct{}

	seq      atomic.Uint64
	inflight atomic.Int64
	failures atomic.Uint64
}

// NewBridge creates a Bridge over store.
func NewBridge(store Store, config Config) (*Bridge, error) {
	if store == nil {
		return nil, errors.New("bridge requires a store")
	}
	if config.Codec == nil {
		return nil, errors.New("bridge requires a codec")
	}
	if config.Namespace == "" {
		config.Namespace = DefaultNamespace
	}
	if config.Migrator == nil {
		config.Migrator = NewMigrator()
	}
	if config.ResponseBuffer <= 0 {
		config.ResponseBuffer = DefaultResponseBuffer
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	first := make(chan struct{})
	close(first)

	return &Bridge{
		tail:    first,
		store:   store,
		config:  config,
		logger:  logger.With("namespace", config.Namespace),
		out:     make(chan Response, config.ResponseBuffer),
		abandon: make(chan struct{}),
	}, nil
}

// Namespace returns the store key the bridge reads and writes.
func (b *Bridge) Namespace() string {
	return b.config.Namespace
}

// Store returns the underlying store.
func (b *Bridge) Store() Store {
	return b.store
}

// Save persists doc under the namespace. The returned channel yields exactly
// one value, nil on success, once the store completes. Failures wrap
// ErrStorageUnavailable; they are neither retried nor rolled back.
func (b *Bridge) Save(ctx context.Context, doc Document) <-chan error {
	done := make(chan error, 1)
	_, err := b.goSave(ctx, doc, func(_ uint64, err error) {
		done <- err
		close(done)
	})
	if err != nil {
		done <- err
		close(done)
	}
	return done
}

// Load reads the document of the namespace and normalizes it with the
// Migrator. The returned channel yields exactly one result. On failure no
// default document is synthesized.
func (b *Bridge) Load(ctx context.Context) <-chan LoadResult {
	done := make(chan LoadResult, 1)
	_, err := b.goLoad(ctx, func(_ uint64, doc Document, err error) {
		done <- LoadResult{Document: doc, Err: err}
		close(done)
	})
	if err != nil {
		done <- LoadResult{Err: err}
		close(done)
	}
	return done
}

// Dispatch routes one message of the contract. It returns as soon as the store
// operation is scheduled; the outcome is published later on Responses, named
// in the version the request was phrased in. The returned error covers only
// messages that could not be scheduled (unknown name or version, closed bridge).
func (b *Bridge) Dispatch(ctx context.Context, req Request) error {
	version, err := Negotiate(req.Version)
	if err != nil {
		return err
	}
	op, err := ParseOp(version, req.Type)
	if err != nil {
		return err
	}
	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}

	reply := Response{ID: id, Type: version.ReplyName(op), Version: version, Op: op}

	switch op {
	case OpSave:
		_, err = b.goSave(ctx, req.Document, func(seq uint64, err error) {
			resp := reply
			resp.Seq = seq
			resp.Err = err
			b.publish(resp)
		})
	case OpLoad:
		_, err = b.goLoad(ctx, func(seq uint64, doc Document, err error) {
			resp := reply
			resp.Seq = seq
			resp.Document = doc
			resp.Err = err
			b.publish(resp)
		})
	}
	return err
}

// Responses is the single channel on which Dispatch outcomes are delivered,
// successes and failures alike. It is closed by Close.
func (b *Bridge) Responses() <-chan Response {
	return b.out
}

// Close stops accepting requests and waits for in-flight operations, then
// closes Responses. If ctx expires first, outcomes still pending are dropped
// instead of published and ctx.Err() is returned.
func (b *Bridge) Close(ctx context.Context) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	drained := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(drained)
	}()

	select {
	case <-drained:
		close(b.out)
		return nil
	case <-ctx.Done():
		close(b.abandon)
		go func() {
			<-drained
			close(b.out)
		}()
		b.logger.Warn("closing with operations still in flight", "inflight", b.inflight.Load())
		return ctx.Err()
	}
}

// turn is one operation's place in the issuance order.
type turn struct {
	seq     uint64
	prev    <-chan struct{}
	entered chan struct{}
	once    sync.Once
}

// enter lets the next operation call the store.
func (t *turn) enter() {
	t.once.Do(func() { close(t.entered) })
}

// begin registers a new operation and returns its turn.
func (b *Bridge) begin() (*turn, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, ErrBridgeClosed
	}
	b.wg.Add(1)
	b.inflight.Add(1)

	b.chainMu.Lock()
	defer b.chainMu.Unlock()
	t := &turn{seq: b.seq.Add(1), prev: b.tail, entered: make(chan struct{})}
	b.tail = t.entered
	return t, nil
}

// end must run after the outcome is published, so Close never closes the
// response channel under a pending send.
func (b *Bridge) end(err error) {
	if err != nil {
		b.failures.Add(1)
	}
	b.inflight.Add(-1)
	b.wg.Done()
}

// goSave encodes doc synchronously, so later mutations by the caller are not
// observed, and writes it on a new goroutine.
func (b *Bridge) goSave(ctx context.Context, doc Document, done func(seq uint64, err error)) (uint64, error) {
	t, err := b.begin()
	if err != nil {
		return 0, err
	}
	seq := t.seq

	data, encErr := b.config.Codec.Encode(doc)
	go func() {
		var err error
		defer func() {
			done(seq, err)
			b.end(err)
		}()
		defer t.enter()
		<-t.prev

		if encErr != nil {
			err = fmt.Errorf("%w: encode %s document: %w", ErrStorageUnavailable, b.config.Codec.Name(), encErr)
			b.logger.Error("save failed", "seq", seq, "error", err)
			return
		}
		err = b.save(ctx, t, data)
	}()
	return seq, nil
}

func (b *Bridge) save(ctx context.Context, t *turn, data []byte) error {
	seq := t.seq
	opCtx, cancel := b.opContext(ctx, t)
	defer cancel()

	start := time.Now()
	if err := b.store.SetItem(opCtx, b.config.Namespace, data); err != nil {
		err = fmt.Errorf("%w: save: %w", ErrStorageUnavailable, err)
		b.logger.Error("save failed", "seq", seq, "error", err)
		return err
	}
	b.logger.Debug("saved", "seq", seq, "bytes", len(data), "elapsed", time.Since(start))
	return nil
}

func (b *Bridge) goLoad(ctx context.Context, done func(seq uint64, doc Document, err error)) (uint64, error) {
	t, err := b.begin()
	if err != nil {
		return 0, err
	}

	go func() {
		<-t.prev
		doc, err := b.load(ctx, t)
		done(t.seq, doc, err)
		b.end(err)
	}()
	return t.seq, nil
}

func (b *Bridge) load(ctx context.Context, t *turn) (Document, error) {
	seq := t.seq
	opCtx, cancel := b.opContext(ctx, t)
	defer cancel()

	start := time.Now()
	data, err := b.store.GetItem(opCtx, b.config.Namespace)
	t.enter()
	if err != nil {
		err = fmt.Errorf("%w: load: %w", ErrStorageUnavailable, err)
		b.logger.Error("load failed", "seq", seq, "error", err)
		return nil, err
	}

	var raw Document
	if data != nil {
		raw, err = b.config.Codec.Decode(data)
		if err != nil {
			err = fmt.Errorf("%w: decode %s document: %w", ErrMalformedDocument, b.config.Codec.Name(), err)
			b.logger.Error("load failed", "seq", seq, "error", err)
			return nil, err
		}
	}

	doc := b.config.Migrator.Normalize(raw)
	b.logger.Debug("loaded", "seq", seq, "bytes", len(data), "empty", data == nil, "elapsed", time.Since(start))
	return doc, nil
}

// opContext derives the context of one store call: bounded by the operation
// timeout and carrying the turn's entered signal.
func (b *Bridge) opContext(ctx context.Context, t *turn) (context.Context, context.CancelFunc) {
	ctx = context.WithValue(ctx, enteredKey{}, t.enter)
	if b.config.OperationTimeout > 0 {
		return context.WithTimeout(ctx, b.config.OperationTimeout)
	}
	return context.WithCancel(ctx)
}

func (b *Bridge) publish(resp Response) {
	select {
	case <-b.abandon:
		b.logger.Warn("response dropped", "type", resp.Type, "seq", resp.Seq, "id", resp.ID)
		return
	default:
	}
	select {
	case b.out <- resp:
	case <-b.abandon:
		b.logger.Warn("response dropped", "type", resp.Type, "seq", resp.Seq, "id", resp.ID)
	}
}
