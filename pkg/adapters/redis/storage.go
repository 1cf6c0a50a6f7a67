// Package redis shares session keys through a Redis server so several
// inspectors can work against the same checklist.
package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/introspection"
	"github.com/redis/go-redis/v9"

	"github.com/aretw0/tenken/pkg/core"
)

// DefaultPrefix namespaces keys on a shared server.
const DefaultPrefix = "tenken:"

// Config configures the Redis storage.
type Config struct {
	URL    string
	Prefix string
	Logger *slog.Logger
}

// Storage implements core.Storage on Redis strings.
type Storage struct {
	client *redis.Client
	prefix string
	logger *slog.Logger

	mu     sync.Mutex
	writes int
}

// New connects to the server named by cfg.URL and checks it answers.
func New(ctx context.Context, cfg Config) (*Storage, error) {
	if cfg.URL == "" {
		return nil, errors.New("redis URL is required")
	}
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return NewWithClient(client, cfg.Prefix, cfg.Logger), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *redis.Client, prefix string, logger *slog.Logger) *Storage {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Storage{client: client, prefix: prefix, logger: logger}
}

func (s *Storage) key(k string) string {
	return s.prefix + k
}

// Get implements core.Storage.
func (s *Storage) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return v, true, nil
}

// Set implements core.Storage. Values never expire.
func (s *Storage) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	s.recordWrite()
	return nil
}

// Remove implements core.Storage.
func (s *Storage) Remove(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	s.recordWrite()
	return nil
}

// Health checks the connection.
func (s *Storage) Health(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the client.
func (s *Storage) Close() error {
	return s.client.Close()
}

func (s *Storage) recordWrite() {
	s.mu.Lock()
	s.writes++
	s.mu.Unlock()
}

// StorageState exposes internal state for observability.
type StorageState struct {
	Addr       string `json:"addr"`
	Prefix     string `json:"prefix"`
	Writes     int    `json:"writes"`
	TotalConns uint32 `json:"total_connections"`
}

// State implements introspection.Introspectable.
func (s *Storage) State() any {
	stats := s.client.PoolStats()
	s.mu.Lock()
	defer s.mu.Unlock()
	return StorageState{
		Addr:       s.client.Options().Addr,
		Prefix:     s.prefix,
		Writes:     s.writes,
		TotalConns: stats.TotalConns,
	}
}

// ComponentType implements introspection.Component.
func (s *Storage) ComponentType() string {
	return "redis"
}

var _ core.Storage = (*Storage)(nil)
var _ introspection.Introspectable = (*Storage)(nil)
var _ introspection.Component = (*Storage)(nil)
