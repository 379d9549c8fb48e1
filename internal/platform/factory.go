package platform

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/akavel/dodo/pkg/adapters/fs"
	"github.com/akavel/dodo/pkg/adapters/memory"
	"github.com/akavel/dodo/pkg/adapters/sqlite"
	"github.com/akavel/dodo/pkg/codec"
	"github.com/akavel/dodo/pkg/core"
)

// DefaultDatabase is the file name used by the sqlite adapter when the URI
// names a directory.
const DefaultDatabase = "dodo.db"

// Bridge is a core.Bridge bound to the store it was built with.
type Bridge struct {
	*core.Bridge
	store core.Store
}

// Close closes the bridge, then the store if it holds resources.
func (b *Bridge) Close(ctx context.Context) error {
	err := b.Bridge.Close(ctx)
	if closer, ok := b.store.(io.Closer); ok {
		err = errors.Join(err, closer.Close())
	}
	return err
}

// Watch reports external changes to the namespace, if the store supports it.
func (b *Bridge) Watch(ctx context.Context) (<-chan core.Event, error) {
	watchable, ok := b.store.(core.Watchable)
	if !ok {
		return nil, fmt.Errorf("store does not support watching")
	}
	return watchable.Watch(ctx, b.Namespace())
}

// New builds and initializes a bridge.
// The URI argument is adapter-specific: a directory for "fs", a database file
// (or its directory) for "sqlite", ignored for "memory".
//
//	b, err := platform.New("./state", platform.WithAdapter("sqlite"))
func New(uri string, opts ...Option) (*Bridge, error) {
	o := buildOptions(opts)

	docCodec, err := resolveCodec(o)
	if err != nil {
		return nil, err
	}

	store, err := OpenStore(uri, opts...)
	if err != nil {
		return nil, err
	}

	var migrator *core.Migrator
	if len(o.migrations) > 0 {
		migrator = core.NewMigrator(o.migrations...)
	}

	bridge, err := core.NewBridge(store, core.Config{
		Namespace:        o.namespace,
		Codec:            docCodec,
		Migrator:         migrator,
		Logger:           o.logger,
		ResponseBuffer:   o.responseBuffer,
		OperationTimeout: o.timeout,
	})
	if err != nil {
		if closer, ok := store.(io.Closer); ok {
			_ = closer.Close()
		}
		return nil, err
	}
	return &Bridge{Bridge: bridge, store: store}, nil
}

// OpenStore builds and initializes the configured store.
func OpenStore(uri string, opts ...Option) (core.Store, error) {
	o := buildOptions(opts)

	if o.store != nil {
		return o.store, initialize(o.store)
	}

	var store core.Store
	var err error

	switch o.adapter {
	case "", "fs":
		store, err = newFS(uri, o)
	case "sqlite":
		store, err = newSQLite(uri, o)
	case "memory":
		store = memory.NewStore()
	default:
		return nil, fmt.Errorf("unknown adapter: %s", o.adapter)
	}
	if err != nil {
		return nil, err
	}

	if err := initialize(store); err != nil {
		return nil, err
	}
	return store, nil
}

func initialize(store core.Store) error {
	if initializer, ok := store.(core.Initializer); ok {
		if err := initializer.Initialize(context.Background()); err != nil {
			return fmt.Errorf("initialize store: %w", err)
		}
	}
	return nil
}

func resolveCodec(o *options) (core.Codec, error) {
	if o.codec != nil {
		return o.codec, nil
	}
	strict, _ := o.config["strict"].(bool)
	return codec.ByName(o.format, strict)
}

// resolvePath applies the dev sandbox to a storage path.
func resolvePath(path string, o *options) string {
	tempDir, _ := o.config["temp_dir"].(bool)
	readOnly, _ := o.config["read_only"].(bool)
	devSafety := true
	if val, ok := o.config["dev_safety"].(bool); ok {
		devSafety = val
	}

	bypassSafety := readOnly || !devSafety
	useTemp := tempDir || (IsDevRun() && !bypassSafety)
	resolved := ResolvePath(path, useTemp)

	if useTemp && resolved != path {
		o.logger.Warn("running in SAFE MODE (Dev/Test)", "original_path", path, "resolved_path", resolved)
	}
	return resolved
}

func newFS(path string, o *options) (core.Store, error) {
	autoInit, _ := o.config["auto_init"].(bool)
	versioning, _ := o.config["versioning"].(bool)
	mustExist, _ := o.config["must_exist"].(bool)
	readOnly, _ := o.config["read_only"].(bool)
	systemDir, _ := o.config["system_dir"].(string)
	errorHandler, _ := o.config["watcher_error_handler"].(func(error))

	docCodec, err := resolveCodec(o)
	if err != nil {
		return nil, err
	}

	return fs.NewStore(fs.Config{
		Path:         resolvePath(path, o),
		AutoInit:     autoInit,
		MustExist:    mustExist,
		Versioning:   versioning,
		ReadOnly:     readOnly,
		Logger:       o.logger,
		SystemDir:    systemDir,
		Ext:          "." + docCodec.Name(),
		ErrorHandler: errorHandler,
	}), nil
}

func newSQLite(uri string, o *options) (core.Store, error) {
	path := uri
	if path == "" || path == "." || filepath.Ext(path) == "" {
		path = filepath.Join(path, DefaultDatabase)
	}
	path = resolvePath(path, o)
	if err := ensureDir(filepath.Dir(path)); err != nil {
		return nil, err
	}

	store, err := sqlite.Open(path)
	if err != nil {
		return nil, err
	}
	o.logger.Debug("opened sqlite store", "path", path)
	return store, nil
}
