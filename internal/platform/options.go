package platform

import (
	"log/slog"
	"time"

	"github.com/akavel/dodo/pkg/core"
)

// options holds the internal configuration for a dodo bridge.
type options struct {
	store          core.Store
	logger         *slog.Logger
	adapter        string
	namespace      string
	format         string
	codec          core.Codec
	migrations     []core.FieldDefault
	responseBuffer int
	timeout        time.Duration
	// config holds adapter-specific settings.
	config map[string]any
}

// Option defines a functional option for configuring dodo.
type Option func(*options)

// defaultOptions returns the default configuration.
func defaultOptions() *options {
	return &options{
		adapter: "fs",
		format:  "json",
		config:  map[string]any{"strict": true},
	}
}

func buildOptions(opts []Option) *options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	return o
}

// WithStore allows injecting a custom storage adapter (e.g. mock).
// If provided, the adapter option and the URI are ignored.
func WithStore(store core.Store) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithAdapter selects the storage adapter by name: "fs", "sqlite" or "memory".
// Defaults to "fs".
func WithAdapter(name string) Option {
	return func(o *options) {
		o.adapter = name
	}
}

// WithLogger sets the logger for the bridge and its store.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithNamespace sets the store key of the document. Defaults to "dodo-storage".
func WithNamespace(namespace string) Option {
	return func(o *options) {
		o.namespace = namespace
	}
}

// WithFormat selects the document codec by name ("json", "yaml").
func WithFormat(format string) Option {
	return func(o *options) {
		o.format = format
	}
}

// WithCodec injects a custom codec. It takes precedence over WithFormat.
func WithCodec(codec core.Codec) Option {
	return func(o *options) {
		o.codec = codec
	}
}

// WithStrict keeps numbers as json.Number to preserve the precision of large
// integers. It is on by default; WithStrict(false) decodes numbers as float64.
func WithStrict(strict bool) Option {
	return func(o *options) {
		o.config["strict"] = strict
	}
}

// WithMigrations replaces the field defaults applied on load.
// Defaults to core.DefaultMigrations.
func WithMigrations(rules ...core.FieldDefault) Option {
	return func(o *options) {
		o.migrations = rules
	}
}

// WithResponseBuffer sets the capacity of the response channel.
// Zero means default (100).
func WithResponseBuffer(size int) Option {
	return func(o *options) {
		o.responseBuffer = size
	}
}

// WithOperationTimeout bounds every store call. Zero means no bound.
func WithOperationTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// WithAutoInit lets the fs adapter create a git repository when versioning
// is enabled and none exists.
func WithAutoInit(auto bool) Option {
	return func(o *options) {
		o.config["auto_init"] = auto
	}
}

// WithVersioning commits every fs write to git. Disabled by default.
func WithVersioning(enabled bool) Option {
	return func(o *options) {
		o.config["versioning"] = enabled
	}
}

// WithMustExist requires the storage directory to exist already.
func WithMustExist(must bool) Option {
	return func(o *options) {
		o.config["must_exist"] = must
	}
}

// WithReadOnly rejects writes and skips directory creation.
// Read-only stores bypass the dev sandbox: they operate on the real path.
func WithReadOnly(enabled bool) Option {
	return func(o *options) {
		o.config["read_only"] = enabled
	}
}

// WithSystemDir sets the hidden directory of the fs adapter. Defaults to ".dodo".
func WithSystemDir(name string) Option {
	return func(o *options) {
		o.config["system_dir"] = name
	}
}

// WithForceTemp forces storage into a temporary directory (useful for testing).
func WithForceTemp(force bool) Option {
	return func(o *options) {
		o.config["temp_dir"] = force
	}
}

// WithDevSafety controls the sandbox applied under `go run` and `go test`.
// By default (true), storage paths are re-rooted into a temporary directory.
//
// CAUTION: Only disable this if you are sure your code is safe.
func WithDevSafety(enabled bool) Option {
	return func(o *options) {
		o.config["dev_safety"] = enabled
	}
}

// WithWatcherErrorHandler registers a callback for errors of the fs Watch loop.
func WithWatcherErrorHandler(fn func(error)) Option {
	return func(o *options) {
		o.config["watcher_error_handler"] = fn
	}
}
