// Package memory provides an in-process Storage for tests, examples and
// ephemeral sessions.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/aretw0/introspection"

	"github.com/aretw0/tenken/pkg/core"
)

// ErrUnavailable is returned by every write while the storage is failing.
var ErrUnavailable = errors.New("memory storage unavailable")

// Storage is a map-backed core.Storage.
type Storage struct {
	mu      sync.RWMutex
	values  map[string]string
	writes  int
	failing bool
}

// New creates an empty Storage.
func New() *Storage {
	return &Storage{values: make(map[string]string)}
}

// Get implements core.Storage.
func (s *Storage) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok, nil
}

// Set implements core.Storage.
func (s *Storage) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing {
		return ErrUnavailable
	}
	s.values[key] = value
	s.writes++
	return nil
}

// Remove implements core.Storage.
func (s *Storage) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing {
		return ErrUnavailable
	}
	delete(s.values, key)
	s.writes++
	return nil
}

// SetFailing makes every subsequent write fail (or succeed again).
func (s *Storage) SetFailing(failing bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failing = failing
}

// Writes returns the number of successful Set and Remove calls.
func (s *Storage) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}

// Keys returns the stored keys in sorted order.
func (s *Storage) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// StorageState exposes internal state for observability.
type StorageState struct {
	Keys    int  `json:"keys"`
	Writes  int  `json:"writes"`
	Failing bool `json:"failing"`
}

// State implements introspection.Introspectable.
func (s *Storage) State() any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return StorageState{Keys: len(s.values), Writes: s.writes, Failing: s.failing}
}

// ComponentType implements introspection.Component.
func (s *Storage) ComponentType() string {
	return "memory"
}

var _ core.Storage = (*Storage)(nil)
var _ introspection.Introspectable = (*Storage)(nil)
var _ introspection.Component = (*Storage)(nil)
