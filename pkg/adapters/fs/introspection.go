package fs

import (
	"context"
	"time"

	"github.com/aretw0/introspection"
)

// StorageState exposes internal state for observability.
type StorageState struct {
	Path          string     `json:"path"`
	Writes        int        `json:"writes"`
	LastWrite     *time.Time `json:"last_write,omitempty"`
	WatcherActive bool       `json:"watcher_active"`
}

// State implements introspection.Introspectable.
func (s *Storage) State() any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return StorageState{
		Path:          s.Path,
		Writes:        s.writes,
		LastWrite:     s.lastWrite,
		WatcherActive: s.watchers > 0,
	}
}

// ComponentType implements introspection.Component.
func (s *Storage) ComponentType() string {
	return "fs"
}

var _ introspection.Introspectable = (*Storage)(nil)
var _ introspection.Component = (*Storage)(nil)

// Watch follows a file next to the stored keys and reports it in State.
func (s *Storage) Watch(ctx context.Context, path string, config WatchConfig) (<-chan Change, error) {
	if config.Logger == nil {
		config.Logger = s.config.Logger
	}
	outer := config.OnActive
	config.OnActive = func(active bool) {
		s.setWatcherActive(active)
		if outer != nil {
			outer(active)
		}
	}
	return WatchFile(ctx, path, config)
}

func (s *Storage) setWatcherActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if active {
		s.watchers++
	} else if s.watchers > 0 {
		s.watchers--
	}
}
