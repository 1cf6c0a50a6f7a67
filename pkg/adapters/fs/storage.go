// Package fs stores each session key in its own file under a data directory.
// Writes are atomic (temp file + rename) so a crash never leaves a torn value.
package fs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/tenken/pkg/core"
)

// FileExt is appended to every key file.
const FileExt = ".json"

// Config holds the configuration for the file storage.
type Config struct {
	Path      string
	MustExist bool
	Logger    *slog.Logger
	Perm      os.FileMode // defaults to 0644
}

// Storage implements core.Storage on a directory.
type Storage struct {
	Path   string
	config Config

	mu        sync.RWMutex
	writes    int
	lastWrite *time.Time
	watchers  int
}

// NewStorage creates a file storage rooted at config.Path.
func NewStorage(config Config) *Storage {
	if config.Perm == 0 {
		config.Perm = 0644
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Storage{Path: config.Path, config: config}
}

// Initialize creates the data directory, or checks it when MustExist is set.
func (s *Storage) Initialize(ctx context.Context) error {
	if s.config.MustExist {
		info, err := os.Stat(s.Path)
		if os.IsNotExist(err) {
			return fmt.Errorf("data path does not exist: %s", s.Path)
		}
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return fmt.Errorf("data path is not a directory: %s", s.Path)
		}
		return nil
	}
	if err := os.MkdirAll(s.Path, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	return nil
}

// filename maps a storage key to its file. The key is query-escaped so that
// separators such as ':' and '/' never reach the file system.
func (s *Storage) filename(key string) (string, error) {
	name := url.QueryEscape(key)
	if name == "" || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return filepath.Join(s.Path, name+FileExt), nil
}

// Get implements core.Storage.
func (s *Storage) Get(ctx context.Context, key string) (string, bool, error) {
	path, err := s.filename(key)
	if err != nil {
		return "", false, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return string(data), true, nil
}

// Set implements core.Storage.
func (s *Storage) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.filename(key)
	if err != nil {
		return err
	}
	if err := WriteFileAtomic(path, []byte(value), s.config.Perm); err != nil {
		return err
	}
	s.recordWrite()
	s.config.Logger.Debug("key written", "key", key, "bytes", len(value))
	return nil
}

// Remove implements core.Storage.
func (s *Storage) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.filename(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}
	s.recordWrite()
	return nil
}

// Keys lists the keys currently stored, in file name order.
func (s *Storage) Keys() ([]string, error) {
	entries, err := os.ReadDir(s.Path)
	if err != nil {
		return nil, err
	}
	var keys []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, FileExt) || strings.HasPrefix(name, TempFilePrefix) {
			continue
		}
		key, err := url.QueryUnescape(strings.TrimSuffix(name, FileExt))
		if err != nil {
			continue
		}
		keys = append(keys, key)
	}
	return keys, nil
}

func (s *Storage) recordWrite() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.writes++
	s.lastWrite = &now
}

var _ core.Storage = (*Storage)(nil)
