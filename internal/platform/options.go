package platform

import (
	"log/slog"
	"time"

	"github.com/aretw0/tenken/pkg/core"
)

// options holds the internal configuration for a session.
type options struct {
	storage     core.Storage
	logger      *slog.Logger
	observer    core.Observer
	adapter     string
	redisURL    string
	redisPrefix string
	debounce    time.Duration
	mustExist   bool
}

// Option defines a functional option for configuring a session.
type Option func(*options)

// defaultOptions returns the default configuration.
func defaultOptions() *options {
	return &options{
		adapter:  "fs",
		debounce: core.DefaultDebounce,
	}
}

// WithLogger sets the logger for the session and its storage.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithStorage injects a storage backend (e.g. memory for tests).
// If provided, the adapter selection is skipped.
func WithStorage(storage core.Storage) Option {
	return func(o *options) {
		o.storage = storage
	}
}

// WithAdapter selects the storage adapter by name: "fs" (default), "sqlite",
// "redis" or "memory".
func WithAdapter(name string) Option {
	return func(o *options) {
		o.adapter = name
	}
}

// WithRedis sets the server URL and key prefix for the redis adapter.
func WithRedis(url, prefix string) Option {
	return func(o *options) {
		o.redisURL = url
		o.redisPrefix = prefix
	}
}

// WithDebounce sets the quiet period before answer state is written.
// Zero writes every change through immediately.
func WithDebounce(d time.Duration) Option {
	return func(o *options) {
		o.debounce = d
	}
}

// WithObserver receives persistence and reconciliation events (e.g. metrics).
func WithObserver(obs core.Observer) Option {
	return func(o *options) {
		o.observer = obs
	}
}

// WithMustExist refuses to create a missing data directory.
func WithMustExist(must bool) Option {
	return func(o *options) {
		o.mustExist = must
	}
}
