package dodo

import (
	"log/slog"
	"time"

	"github.com/akavel/dodo/internal/platform"
	"github.com/akavel/dodo/pkg/core"
)

// --- Types ---

// Bridge is a storage bridge bound to the store it was opened with.
type Bridge = platform.Bridge

// Document is the persisted unit.
type Document = core.Document

// Request is one message from the application to the bridge.
type Request = core.Request

// Response is one message from the bridge to the application.
type Response = core.Response

// LoadResult is the outcome of Bridge.Load.
type LoadResult = core.LoadResult

// --- Configuration ---

// Option defines a functional option for configuring dodo.
type Option = platform.Option

// WithAdapter selects the storage adapter by name: "fs", "sqlite" or "memory".
func WithAdapter(name string) Option {
	return platform.WithAdapter(name)
}

// WithStore allows injecting a custom storage adapter.
func WithStore(store core.Store) Option {
	return platform.WithStore(store)
}

// WithLogger sets the logger for the bridge and its store.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithNamespace sets the store key of the document.
func WithNamespace(namespace string) Option {
	return platform.WithNamespace(namespace)
}

// WithFormat selects the document codec by name ("json", "yaml").
func WithFormat(format string) Option {
	return platform.WithFormat(format)
}

// WithCodec injects a custom document codec.
func WithCodec(codec core.Codec) Option {
	return platform.WithCodec(codec)
}

// WithStrict keeps numbers as json.Number (the default).
func WithStrict(strict bool) Option {
	return platform.WithStrict(strict)
}

// WithMigrations replaces the field defaults applied on load.
func WithMigrations(rules ...core.FieldDefault) Option {
	return platform.WithMigrations(rules...)
}

// WithResponseBuffer sets the capacity of the response channel.
func WithResponseBuffer(size int) Option {
	return platform.WithResponseBuffer(size)
}

// WithOperationTimeout bounds every store call.
func WithOperationTimeout(d time.Duration) Option {
	return platform.WithOperationTimeout(d)
}

// WithAutoInit lets the fs adapter create a git repository for versioning.
func WithAutoInit(auto bool) Option {
	return platform.WithAutoInit(auto)
}

// WithVersioning commits every fs write to git.
func WithVersioning(enabled bool) Option {
	return platform.WithVersioning(enabled)
}

// WithMustExist requires the storage directory to exist already.
func WithMustExist(must bool) Option {
	return platform.WithMustExist(must)
}

// WithReadOnly rejects writes.
func WithReadOnly(enabled bool) Option {
	return platform.WithReadOnly(enabled)
}

// WithSystemDir sets the hidden directory of the fs adapter (e.g. ".dodo").
func WithSystemDir(name string) Option {
	return platform.WithSystemDir(name)
}

// WithForceTemp forces storage into a temporary directory (useful for testing).
func WithForceTemp(force bool) Option {
	return platform.WithForceTemp(force)
}

// WithDevSafety controls the sandbox applied under `go run` and `go test`.
func WithDevSafety(enabled bool) Option {
	return platform.WithDevSafety(enabled)
}

// WithWatcherErrorHandler registers a callback for errors of the fs Watch loop.
func WithWatcherErrorHandler(fn func(error)) Option {
	return platform.WithWatcherErrorHandler(fn)
}

// --- Factory ---

// New builds a bridge over the configured store.
func New(uri string, opts ...Option) (*Bridge, error) {
	return platform.New(uri, opts...)
}

// Open builds a bridge over storage that must already exist.
func Open(uri string, opts ...Option) (*Bridge, error) {
	return platform.New(uri, append(opts, platform.WithMustExist(true))...)
}

// OpenStore builds and initializes a store without a bridge.
func OpenStore(uri string, opts ...Option) (core.Store, error) {
	return platform.OpenStore(uri, opts...)
}

// --- Safety & Utils ---

// ResolvePath determines the actual storage path based on safety rules.
func ResolvePath(userPath string, forceTemp bool) string {
	return platform.ResolvePath(userPath, forceTemp)
}

// IsDevRun checks if the current process is running via `go run` or `go test`.
func IsDevRun() bool {
	return platform.IsDevRun()
}

// FindRoot looks upwards for a storage root.
func FindRoot(startDir string) (string, error) {
	return platform.FindRoot(startDir)
}

// EnvConfig holds the defaults read from DODO_* environment variables.
type EnvConfig = platform.EnvConfig

// LoadEnv parses EnvConfig from the environment.
func LoadEnv() (EnvConfig, error) {
	return platform.LoadEnv()
}
