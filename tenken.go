package tenken

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/tenken/internal/platform"
	"github.com/aretw0/tenken/pkg/core"
	"github.com/aretw0/tenken/pkg/typed"
)

// --- Types ---

// Session is an open checklist session bound to its storage.
type Session = platform.Session

// Schema is the ordered list of checklist categories.
type Schema = core.Schema

// Config mirrors the tenken.yaml project file.
type Config = platform.Config

// Key is a JSON-typed view of a single storage key.
type Key[T any] = typed.Key[T]

// --- Configuration ---

// Option defines a functional option for configuring a session.
type Option = platform.Option

// WithLogger sets the logger for the session and its storage.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithStorage injects a storage backend.
func WithStorage(storage core.Storage) Option {
	return platform.WithStorage(storage)
}

// WithAdapter selects the storage adapter by name ("fs", "sqlite", "redis", "memory").
func WithAdapter(name string) Option {
	return platform.WithAdapter(name)
}

// WithRedis sets the server URL and key prefix for the redis adapter.
func WithRedis(url, prefix string) Option {
	return platform.WithRedis(url, prefix)
}

// WithDebounce sets the quiet period before answer state is written.
func WithDebounce(d time.Duration) Option {
	return platform.WithDebounce(d)
}

// WithObserver receives persistence and reconciliation events.
func WithObserver(obs core.Observer) Option {
	return platform.WithObserver(obs)
}

// WithMustExist refuses to create a missing data directory.
func WithMustExist(must bool) Option {
	return platform.WithMustExist(must)
}

// --- Factory ---

// Open opens a session on the data location uri.
func Open(ctx context.Context, uri string, opts ...Option) (*Session, error) {
	return platform.New(ctx, uri, opts...)
}

// NewKey creates a typed key over storage.
func NewKey[T any](storage core.Storage, name string) Key[T] {
	return typed.NewKey[T](storage, name)
}

// --- Project layout ---

// FindRoot recursively looks upwards for a .tenken directory or tenken.yaml.
func FindRoot(startDir string) (string, error) {
	return platform.FindRoot(startDir)
}

// LoadConfig reads a tenken.yaml file; a missing file yields an empty Config.
func LoadConfig(path string) (Config, error) {
	return platform.LoadConfig(path)
}

// ParseSchema validates a checklist document.
func ParseSchema(text string) (Schema, error) {
	return core.ParseSchema(text)
}

// DefaultSchema returns the built-in checklist.
func DefaultSchema() Schema {
	return core.DefaultSchema()
}
