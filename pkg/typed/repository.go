// Package typed offers JSON-typed access to single keys of a core.Storage.
package typed

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aretw0/tenken/pkg/core"
)

// Key is a typed view of one storage key.
type Key[T any] struct {
	Storage core.Storage
	Name    string
}

// NewKey creates a typed key over storage.
func NewKey[T any](storage core.Storage, name string) Key[T] {
	return Key[T]{Storage: storage, Name: name}
}

// Get reads and decodes the value. A missing key returns the zero value and false.
func (k Key[T]) Get(ctx context.Context) (T, bool, error) {
	var zero T
	raw, ok, err := k.Storage.Get(ctx, k.Name)
	if err != nil || !ok {
		return zero, false, err
	}
	var v T
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return zero, true, fmt.Errorf("unmarshal %s failed: %w", k.Name, err)
	}
	return v, true, nil
}

// Set encodes and stores v.
func (k Key[T]) Set(ctx context.Context, v T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", k.Name, err)
	}
	return k.Storage.Set(ctx, k.Name, string(data))
}

// Remove deletes the key.
func (k Key[T]) Remove(ctx context.Context) error {
	return k.Storage.Remove(ctx, k.Name)
}

// Load returns the value wrapped in a Model bound to this key.
func (k Key[T]) Load(ctx context.Context) (*Model[T], error) {
	v, _, err := k.Get(ctx)
	if err != nil {
		return nil, err
	}
	return &Model[T]{Data: v, Saver: k}, nil
}

// Model is an editable value that remembers where it came from.
type Model[T any] struct {
	Data  T
	Saver Saver[T]
}

// Saver avoids coupling Model to a concrete Key.
type Saver[T any] interface {
	Set(ctx context.Context, v T) error
}

// Save persists the model through its saver.
func (m *Model[T]) Save(ctx context.Context) error {
	if m.Saver == nil {
		return fmt.Errorf("model is detached (missing Saver)")
	}
	return m.Saver.Set(ctx, m.Data)
}
