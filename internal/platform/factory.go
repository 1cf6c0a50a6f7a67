package platform

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/aretw0/tenken/pkg/adapters/fs"
	"github.com/aretw0/tenken/pkg/adapters/memory"
	"github.com/aretw0/tenken/pkg/adapters/redis"
	"github.com/aretw0/tenken/pkg/adapters/sqlite"
	"github.com/aretw0/tenken/pkg/core"
)

// DatabaseFile is the sqlite file created inside the data directory.
const DatabaseFile = "tenken.db"

// Session is a core.Session bound to the storage it was opened with.
// Close flushes the session and then releases the storage.
type Session struct {
	*core.Session
	Storage core.Storage
}

// Close flushes pending writes and closes the storage if it holds resources.
func (s *Session) Close(ctx context.Context) error {
	err := s.Session.Close(ctx)
	if c, ok := s.Storage.(io.Closer); ok {
		err = errors.Join(err, c.Close())
	}
	return err
}

// New opens a session. The uri argument is adapter-specific: a data directory
// for "fs" and "sqlite", a server URL for "redis" (unless WithRedis is used).
func New(ctx context.Context, uri string, opts ...Option) (*Session, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	storage, err := OpenStorage(ctx, uri, o)
	if err != nil {
		return nil, err
	}

	sess, err := core.Open(ctx, storage, core.Config{
		Logger:   o.logger,
		Debounce: o.debounce,
		Observer: o.observer,
	})
	if err != nil {
		if c, ok := storage.(io.Closer); ok {
			_ = c.Close()
		}
		return nil, err
	}
	return &Session{Session: sess, Storage: storage}, nil
}

// OpenStorage builds the storage backend selected by the options.
func OpenStorage(ctx context.Context, uri string, o *options) (core.Storage, error) {
	if o.storage != nil {
		return o.storage, nil
	}

	switch o.adapter {
	case "fs", "":
		s := fs.NewStorage(fs.Config{Path: uri, MustExist: o.mustExist, Logger: o.logger})
		if err := s.Initialize(ctx); err != nil {
			return nil, err
		}
		return s, nil

	case "sqlite":
		path := uri
		switch filepath.Ext(path) {
		case ".db", ".sqlite", ".sqlite3":
		default:
			path = filepath.Join(uri, DatabaseFile)
		}
		return sqlite.Open(ctx, path, o.logger)

	case "redis":
		url := o.redisURL
		if url == "" {
			url = uri
		}
		return redis.New(ctx, redis.Config{URL: url, Prefix: o.redisPrefix, Logger: o.logger})

	case "memory":
		return memory.New(), nil

	default:
		return nil, fmt.Errorf("unknown adapter: %s", o.adapter)
	}
}
